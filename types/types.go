package types

// Track identifies which of the two escrow contract/event-index pairs a
// transaction belongs to.
type Track string

const (
	// TrackNative - transactions escrowing the chain's base currency
	TrackNative Track = "NATIVE"

	// TrackToken - transactions escrowing an ERC20 token
	TrackToken Track = "TOKEN"
)

// TransactionStatus represents the user-facing state of an escrow transaction
type TransactionStatus string

const (
	// StatusPending - transaction open, funds still escrowed, no dispute
	StatusPending TransactionStatus = "pending"

	// StatusDisputed - a dispute has been created and no ruling has resolved it yet
	StatusDisputed TransactionStatus = "disputed"

	// StatusCompleted - a ruling was given, or the funds were fully paid out cooperatively
	StatusCompleted TransactionStatus = "completed"

	// StatusUnknown - the on-chain status code itself is unrecognized
	StatusUnknown TransactionStatus = "unknown"
)

// On-chain status codes as stored by the escrow contracts.
const (
	StatusCodeNoDispute       = 0
	StatusCodeWaitingSender   = 1
	StatusCodeWaitingReceiver = 2
	StatusCodeDisputeCreated  = 3
	StatusCodeResolved        = 4
)

// KnownStatusCode reports whether code is one of the contract's declared
// status values.
func KnownStatusCode(code int) bool {
	return code >= StatusCodeNoDispute && code <= StatusCodeResolved
}
