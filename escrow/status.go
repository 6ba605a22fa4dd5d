package escrow

import (
	"math/big"

	"github.com/arbitrable-escrow/escrow-api/types"
)

// statusRule is one row of the resolution table. Rules are evaluated in
// order and the first match wins, so precedence is explicit: an unrecognized
// status code beats everything, a ruling beats an open dispute, a dispute
// beats a drained balance.
type statusRule struct {
	name    string
	applies func(events types.TransactionEvents, remaining *big.Int, statusCode int) bool
	status  types.TransactionStatus
}

var statusRules = []statusRule{
	{
		name: "unrecognized status code",
		applies: func(_ types.TransactionEvents, _ *big.Int, statusCode int) bool {
			return !types.KnownStatusCode(statusCode)
		},
		status: types.StatusUnknown,
	},
	{
		name: "ruling given",
		applies: func(events types.TransactionEvents, _ *big.Int, _ int) bool {
			return len(events.Rulings) > 0
		},
		status: types.StatusCompleted,
	},
	{
		name: "dispute open",
		applies: func(events types.TransactionEvents, _ *big.Int, _ int) bool {
			return len(events.Disputes) > 0
		},
		status: types.StatusDisputed,
	},
	{
		name: "fully paid out",
		applies: func(events types.TransactionEvents, remaining *big.Int, _ int) bool {
			return len(events.Disputes) == 0 && len(events.Rulings) == 0 &&
				remaining != nil && remaining.Sign() == 0
		},
		status: types.StatusCompleted,
	},
}

// ResolveStatus derives the transaction status from the observed event set
// plus the on-chain remaining balance. It is a pure function of the event
// set's shape: supplying the same events in any order yields the same result.
//
// remaining is the normalized smallest-unit amount; a malformed value is
// treated as non-zero so a parse problem can never mark a funded transaction
// completed.
func ResolveStatus(events types.TransactionEvents, remaining string, statusCode int) types.TransactionStatus {
	bal, ok := new(big.Int).SetString(remaining, 10)
	if !ok {
		bal = nil
	}
	for _, rule := range statusRules {
		if rule.applies(events, bal, statusCode) {
			return rule.status
		}
	}
	return types.StatusPending
}
