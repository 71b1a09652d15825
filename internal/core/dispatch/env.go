package dispatch

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/composable-go/pkg/addr"
)

// Coin is an amount of one denomination attached to a request.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Env is the request context given to execute handlers.
type Env struct {
	Sender      addr.HumanAddr `json:"sender"`
	Contract    addr.HumanAddr `json:"contract"`
	BlockHeight uint64         `json:"block_height"`
	BlockTime   time.Time      `json:"block_time"`
	ChainID     string         `json:"chain_id,omitempty"`
	Funds       []Coin         `json:"funds,omitempty"`
	RequestID   ulid.ULID      `json:"request_id"`
}

// NewRequestID returns a fresh, time-ordered request ID.
func NewRequestID() ulid.ULID {
	return ulid.Make()
}

// withDefaults fills the request ID and block time when unset.
func (e Env) withDefaults() Env {
	if e.RequestID.IsZero() {
		e.RequestID = NewRequestID()
	}
	if e.BlockTime.IsZero() {
		e.BlockTime = time.Now().UTC()
	}
	return e
}

// FundsOf returns the attached amount for denom, or "" when none is attached.
func (e Env) FundsOf(denom string) string {
	for _, c := range e.Funds {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return ""
}
