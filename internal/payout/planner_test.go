package payout

import (
	"strings"
	"testing"

	"github.com/blocpool/payoutd/internal/ledger"
	"github.com/blocpool/payoutd/internal/logging"
)

func testPlannerConfig() PlannerConfig {
	return PlannerConfig{
		Curve:             FeeCurve{BaseFee: 20_000, MinPayout: 300_000, SlewEnd: 1_000_000},
		FeeAddress:        "pool-fee-address",
		FeeReserve:        100_000,
		ExchangeMin:       5_000_000,
		Denomination:      1_000,
		DefaultThreshold:  300_000,
		IntegratedAddrLen: 106,
	}
}

func strPtr(s string) *string { return &s }

func TestPlanRoutesStandardAddressToBulk(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())

	payee, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", Amount: 1_000_000, PoolType: "pplns"}, 0, false)
	if !ok {
		t.Fatal("expected payee")
	}
	if payee.Route != RouteBulk {
		t.Fatalf("route = %s, want bulk", payee.Route)
	}
	if payee.Amount != 1_000_000 {
		t.Fatalf("amount = %d, want unchanged 1000000", payee.Amount)
	}
	if payee.Fee != 0 {
		t.Fatalf("fee = %d, want 0 at slew end", payee.Fee)
	}
}

func TestPlanTruncatesToDenomination(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())

	payee, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", Amount: 500_777}, 0, false)
	if !ok {
		t.Fatal("expected payee")
	}
	if payee.Amount != 500_000 {
		t.Fatalf("amount = %d, want truncated 500000", payee.Amount)
	}
	if payee.Amount%1_000 != 0 {
		t.Fatalf("amount %d not divisible by denomination", payee.Amount)
	}
}

func TestPlanSkipsBelowThreshold(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())

	if _, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", Amount: 299_000}, 0, false); ok {
		t.Fatal("expected skip below default threshold")
	}

	// A custom threshold above the amount also skips.
	if _, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", Amount: 400_000}, 500_000, true); ok {
		t.Fatal("expected skip below custom threshold")
	}
}

func TestPlanDefersPayoutSwallowedByFee(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())

	// A low custom threshold admits an amount inside the flat fee region
	// where the base fee exceeds it; nothing would reach the recipient.
	if _, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", Amount: 15_000}, 10_000, true); ok {
		t.Fatal("expected deferral when the fee covers the whole amount")
	}

	// Once the balance outgrows the fee the payee goes through with a
	// positive net amount.
	payee, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", Amount: 50_000}, 10_000, true)
	if !ok {
		t.Fatal("expected payee once amount exceeds the fee")
	}
	if payee.Net() <= 0 {
		t.Fatalf("net = %d, want positive", payee.Net())
	}
}

func TestPlanIntegratedAddressNeedsExchangeMinimum(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())
	integrated := strings.Repeat("i", 106)

	// Below the exchange minimum with no custom threshold: deferred.
	if _, ok := p.Plan(ledger.Balance{ID: 1, Address: integrated, Amount: 1_000_000}, 0, false); ok {
		t.Fatal("expected deferral below exchange minimum")
	}

	// At the exchange minimum: solo integrated transfer.
	payee, ok := p.Plan(ledger.Balance{ID: 1, Address: integrated, Amount: 5_000_000}, 0, false)
	if !ok || payee.Route != RouteIntegrated {
		t.Fatalf("expected integrated route, got (%v, %v)", payee.Route, ok)
	}

	// Above a custom threshold: allowed even below the exchange minimum.
	payee, ok = p.Plan(ledger.Balance{ID: 1, Address: integrated, Amount: 1_000_000}, 900_000, true)
	if !ok || payee.Route != RouteIntegrated {
		t.Fatalf("expected integrated route via custom threshold, got (%v, %v)", payee.Route, ok)
	}
}

func TestPlanPaymentIDRoute(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())

	payee, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", PaymentID: strPtr("beef"), Amount: 6_000_000}, 0, false)
	if !ok || payee.Route != RoutePaymentID {
		t.Fatalf("expected payment-id route, got (%v, %v)", payee.Route, ok)
	}
	if payee.Identity != "addr.beef" {
		t.Fatalf("identity = %q", payee.Identity)
	}

	// Below the gate with no custom threshold: deferred, not bulk.
	if _, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", PaymentID: strPtr("beef"), Amount: 400_000}, 0, false); ok {
		t.Fatal("expected deferral for small payment-id balance")
	}
}

func TestPlanAltCurrencyRoute(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())

	payee, ok := p.Plan(ledger.Balance{ID: 1, Address: "addr", AltCurrency: true, Amount: 6_000_000}, 0, false)
	if !ok || payee.Route != RouteAltCurrency {
		t.Fatalf("expected alt-currency route, got (%v, %v)", payee.Route, ok)
	}
}

func TestPlanFeeAddressCarveOut(t *testing.T) {
	cfg := testPlannerConfig()
	p := NewPlanner(cfg, logging.Discard())

	// Accrual covers reserve plus exchange minimum: reserve subtracted.
	payee, ok := p.Plan(ledger.Balance{ID: 1, Address: cfg.FeeAddress, Amount: 5_200_000, PoolType: "fees"}, 0, false)
	if !ok {
		t.Fatal("expected fee-address payee")
	}
	if payee.Amount != 5_100_000 {
		t.Fatalf("amount = %d, want 5100000 after reserve", payee.Amount)
	}

	// Accrual too small: withheld entirely.
	if _, ok := p.Plan(ledger.Balance{ID: 1, Address: cfg.FeeAddress, Amount: 4_000_000, PoolType: "fees"}, 0, false); ok {
		t.Fatal("expected fee address to be withheld")
	}

	// Same address outside the fees pool is routed normally.
	payee, ok = p.Plan(ledger.Balance{ID: 1, Address: cfg.FeeAddress, Amount: 4_000_000, PoolType: "pplns"}, 0, false)
	if !ok || payee.Route != RouteBulk {
		t.Fatalf("expected normal bulk routing, got (%v, %v)", payee.Route, ok)
	}
}

func TestPlanSingleDisposition(t *testing.T) {
	p := NewPlanner(testPlannerConfig(), logging.Discard())
	rows := []ledger.Balance{
		{ID: 1, Address: "addr", Amount: 1_000_000},
		{ID: 2, Address: strings.Repeat("i", 106), Amount: 6_000_000},
		{ID: 3, Address: "addr3", PaymentID: strPtr("aa"), Amount: 6_000_000},
		{ID: 4, Address: "addr4", AltCurrency: true, Amount: 6_000_000},
	}
	seen := map[int64]Route{}
	for _, row := range rows {
		payee, ok := p.Plan(row, 0, false)
		if !ok {
			t.Fatalf("row %d unexpectedly skipped", row.ID)
		}
		if prev, dup := seen[payee.BalanceID]; dup {
			t.Fatalf("row %d routed twice (%s and %s)", row.ID, prev, payee.Route)
		}
		seen[payee.BalanceID] = payee.Route
	}
}
