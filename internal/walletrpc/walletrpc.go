package walletrpc

import (
	"context"
	"errors"
	"fmt"
)

// BalanceInfo reports the wallet daemon's view of pool funds in minor units.
type BalanceInfo struct {
	Available int64 `json:"available_balance"`
	Locked    int64 `json:"locked_amount"`
}

// Destination is one output of a transfer call.
type Destination struct {
	Amount  int64  `json:"amount"`
	Address string `json:"address"`
}

// TransferRequest is the payload for a wallet transfer call. PaymentID is set
// only for explicit payment-ID transfers; integrated addresses carry the
// identifier inside the address itself.
type TransferRequest struct {
	Destinations []Destination `json:"destinations"`
	PaymentID    string        `json:"payment_id,omitempty"`
	Mixin        int           `json:"mixin"`
	Fee          int64         `json:"fee"`
	Priority     int           `json:"priority"`
	UnlockTime   int64         `json:"unlock_time"`
}

// Total returns the sum of destination amounts.
func (r TransferRequest) Total() int64 {
	var total int64
	for _, d := range r.Destinations {
		total += d.Amount
	}
	return total
}

// TransferResult is the wallet's response to a successful transfer.
type TransferResult struct {
	TxHash string `json:"tx_hash"`
	TxKey  string `json:"tx_key"`
	Fee    int64  `json:"fee"`
}

// Client is the wallet daemon surface the payout engine consumes.
type Client interface {
	// GetBalance queries the live wallet balance.
	GetBalance(ctx context.Context) (BalanceInfo, error)

	// Transfer submits one transfer call. Wallet-reported failures come back
	// as *RPCError; IsInsufficientFunds distinguishes the retryable case.
	Transfer(ctx context.Context, req TransferRequest) (TransferResult, error)

	// Store asks the wallet daemon to flush its state to disk.
	Store(ctx context.Context) error
}

// RPCError is an error object returned by the wallet daemon.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

// IsInsufficientFunds reports whether err is the wallet telling us it cannot
// cover the requested amount right now. These are the only transfer errors
// the serializer treats as retryable.
func IsInsufficientFunds(err error) bool {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	switch rpcErr.Message {
	case "not enough money", "not enough unlocked money":
		return true
	}
	return false
}
