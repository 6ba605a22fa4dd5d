package types

// RulingOptions are the arbitration outcomes a transaction declares at
// creation. Ruling codes index into Titles (code 0 is "refused to rule" on
// most arbitrators, so Titles[0] usually covers it).
type RulingOptions struct {
	Type         string   `json:"type,omitempty"`
	Titles       []string `json:"titles"`
	Descriptions []string `json:"descriptions"`
}

// TokenDescriptor is the token block embedded in a transaction's metadata
// record. Address is nil for the native asset.
type TokenDescriptor struct {
	Name     string  `json:"name"`
	Ticker   string  `json:"ticker"`
	Address  *string `json:"address"`
	Decimals int     `json:"decimals"`
}

// Aliases are user-supplied display labels for the two parties. They are
// unauthenticated metadata and must never be used for authorization.
type Aliases struct {
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
}

// MetaEvidence is the off-chain descriptive record associated with a
// transaction's creation, fetched from the metadata store by content hash.
type MetaEvidence struct {
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	SubCategory       string           `json:"subCategory,omitempty"`
	Question          string           `json:"question,omitempty"`
	RulingOptions     RulingOptions    `json:"rulingOptions"`
	Sender            string           `json:"sender,omitempty"`
	Receiver          string           `json:"receiver,omitempty"`
	Amount            string           `json:"amount,omitempty"`
	Timeout           int64            `json:"timeout,omitempty"`
	Token             *TokenDescriptor `json:"token,omitempty"`
	Aliases           Aliases          `json:"aliases,omitempty"`
	FileURI           string           `json:"fileURI,omitempty"`
	FileTypeExtension string           `json:"fileTypeExtension,omitempty"`
}

// PlaceholderMetaEvidence is substituted when a metadata fetch fails, so a
// transaction with unreachable metadata still renders.
func PlaceholderMetaEvidence() MetaEvidence {
	return MetaEvidence{
		Title:       "Failed to load",
		Description: "Content unavailable",
		Category:    "Unknown",
		Amount:      "0",
		Sender:      "Unknown",
		Receiver:    "Unknown",
	}
}

// EvidenceDocument is the record uploaded to the metadata store when a party
// submits evidence. The store expects "name", not "title".
type EvidenceDocument struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	FileURI           string `json:"fileURI,omitempty"`
	FileTypeExtension string `json:"fileTypeExtension,omitempty"`
}
