package payout

// FeeCurve describes the pool transfer fee as a function of payout amount:
// a flat base fee up to the minimum payout, a linear slew from base fee down
// to zero across (MinPayout, SlewEnd), and zero at or beyond SlewEnd.
type FeeCurve struct {
	BaseFee   int64
	MinPayout int64
	SlewEnd   int64
}

// Fee computes the fee owed for a payout of the given amount. The result is
// always a non-negative integer and non-increasing in amount.
func (c FeeCurve) Fee(amount int64) int64 {
	if amount <= c.MinPayout {
		return c.BaseFee
	}
	if amount >= c.SlewEnd {
		return 0
	}
	fee := c.BaseFee - (amount-c.MinPayout)*c.BaseFee/(c.SlewEnd-c.MinPayout)
	if fee < 0 {
		fee = 0
	}
	return fee
}
