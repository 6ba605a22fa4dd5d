package types

// TransactionFields is the on-chain view of one escrow transaction, as read
// from the contract's transactions(uint256) getter. Amounts are strings
// because upstream sources disagree on representation; the aggregator
// normalizes them to smallest units.
type TransactionFields struct {
	Sender          string
	Receiver        string
	RemainingAmount string
	TokenAddress    string // token track only
	TimeoutPayment  uint64
	LastInteraction uint64
	StatusCode      int
}

// TokenInfo is the display metadata for a token-track transaction's asset.
type TokenInfo struct {
	Name     string `json:"name" bson:"name"`
	Symbol   string `json:"symbol" bson:"symbol"`
	Address  string `json:"address" bson:"address"`
	Decimals int    `json:"decimals" bson:"decimals"`
}

// EscrowTransaction is the aggregate read model produced for each on-chain
// transaction id. It is rebuilt from scratch on every load and never patched
// in place; the raw event set and the on-chain remaining amount stay the
// single source of truth.
type EscrowTransaction struct {
	ID    string `json:"id"`
	Track Track  `json:"track"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`

	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`

	// Amount is the remaining escrowed amount in smallest units.
	Amount string     `json:"amount"`
	Token  *TokenInfo `json:"token,omitempty"`

	Question           string   `json:"question,omitempty"`
	RulingTitles       []string `json:"rulingTitles,omitempty"`
	RulingDescriptions []string `json:"rulingDescriptions,omitempty"`
	Aliases            Aliases  `json:"aliases,omitempty"`
	TimeoutSeconds     int64    `json:"timeoutSeconds,omitempty"`

	Status     TransactionStatus `json:"status"`
	StatusCode int               `json:"statusCode"`

	// CreatedAt is the creation event's block timestamp, seconds as a string.
	CreatedAt   string `json:"createdAt"`
	TxHash      string `json:"txHash"`
	BlockNumber string `json:"blockNumber"`
}

// Decimals returns the asset precision for the transaction's track.
func (t EscrowTransaction) Decimals() int {
	if t.Track == TrackToken && t.Token != nil {
		return t.Token.Decimals
	}
	return 18
}

// Symbol returns the asset ticker for display.
func (t EscrowTransaction) Symbol() string {
	if t.Track == TrackToken && t.Token != nil {
		return t.Token.Symbol
	}
	return "ETH"
}
