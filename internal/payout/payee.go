package payout

// Route is the disposition the planner assigns to one eligible balance.
type Route int

const (
	// RouteSkip means no payee is created this round.
	RouteSkip Route = iota
	// RouteBulk adds the payee to the shared multi-destination transfer.
	RouteBulk
	// RouteIntegrated pays an integrated address with its own transfer call.
	RouteIntegrated
	// RoutePaymentID pays an address plus explicit payment ID with its own transfer call.
	RoutePaymentID
	// RouteAltCurrency hands the payee to the alternate-currency collaborator.
	RouteAltCurrency
)

func (r Route) String() string {
	switch r {
	case RouteBulk:
		return "bulk"
	case RouteIntegrated:
		return "integrated"
	case RoutePaymentID:
		return "payment_id"
	case RouteAltCurrency:
		return "alt_currency"
	default:
		return "skip"
	}
}

// Payee is a planned disbursement derived from one balance row. It lives for
// a single payout round and is never persisted directly.
type Payee struct {
	BalanceID   int64
	Identity    string
	Address     string
	PaymentID   *string
	PoolType    string
	AltCurrency bool

	// Amount is the gross payout in minor units; the balance row is debited
	// by this full amount. Fee is withheld, so the recipient receives Net.
	Amount int64
	Fee    int64

	Route Route
}

// Net returns the amount actually delivered to the recipient.
func (p Payee) Net() int64 {
	return p.Amount - p.Fee
}
