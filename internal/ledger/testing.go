package ledger

// SeedBalance is a test helper that seeds one balance row in the in-memory store.
func SeedBalance(s *InMemory, b Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[b.ID] = b
}

// SeedThreshold is a test helper that sets a custom payout threshold for an identity.
func SeedThreshold(s *InMemory, identity string, threshold int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds[identity] = threshold
}

// SeedNotificationTarget is a test helper that registers a notification email for an identity.
func SeedNotificationTarget(s *InMemory, identity string, target NotificationTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[identity] = target
}
