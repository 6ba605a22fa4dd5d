package types

// Raw event records as returned by the event index. Field names follow the
// subgraph schema; everything is a string at this boundary and is only
// interpreted once, by the timeline normalizer and the status resolver.

type MetaEvidenceEvent struct {
	ID              string `json:"id" bson:"id"`
	MetaEvidenceID  string `json:"_metaEvidenceID" bson:"meta_evidence_id"`
	Evidence        string `json:"_evidence" bson:"evidence"`
	BlockTimestamp  string `json:"blockTimestamp" bson:"block_timestamp"`
	BlockNumber     string `json:"blockNumber" bson:"block_number"`
	TransactionHash string `json:"transactionHash" bson:"transaction_hash"`
}

type PaymentEvent struct {
	ID              string `json:"id"`
	TransactionID   string `json:"_transactionID"`
	Amount          string `json:"_amount"`
	Party           string `json:"_party"`
	BlockTimestamp  string `json:"blockTimestamp"`
	BlockNumber     string `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
}

// EvidenceEvent carries no block timestamp in the index; its block number is
// the only ordering key available.
type EvidenceEvent struct {
	Arbitrator      string `json:"_arbitrator"`
	Party           string `json:"_party"`
	Evidence        string `json:"_evidence"`
	EvidenceGroupID string `json:"_evidenceGroupID"`
	BlockNumber     string `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
}

type DisputeEvent struct {
	Arbitrator      string `json:"_arbitrator"`
	DisputeID       string `json:"_disputeID"`
	MetaEvidenceID  string `json:"_metaEvidenceID"`
	EvidenceGroupID string `json:"_evidenceGroupID"`
	BlockTimestamp  string `json:"blockTimestamp"`
	BlockNumber     string `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
}

type HasToPayFeeEvent struct {
	TransactionID   string `json:"_transactionID"`
	Party           string `json:"_party"`
	BlockTimestamp  string `json:"blockTimestamp"`
	BlockNumber     string `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
}

type RulingEvent struct {
	Arbitrator      string `json:"_arbitrator"`
	DisputeID       string `json:"_disputeID"`
	Ruling          string `json:"_ruling"`
	BlockTimestamp  string `json:"blockTimestamp"`
	BlockNumber     string `json:"blockNumber"`
	TransactionHash string `json:"transactionHash"`
}

// TransactionEvents groups every on-chain event observed for one transaction.
// Nil slices are valid and mean "none observed".
type TransactionEvents struct {
	MetaEvidences []MetaEvidenceEvent `json:"metaEvidences"`
	Payments      []PaymentEvent      `json:"payments"`
	Evidences     []EvidenceEvent     `json:"evidences"`
	Disputes      []DisputeEvent      `json:"disputes"`
	HasToPayFees  []HasToPayFeeEvent  `json:"hasToPayFees"`
	Rulings       []RulingEvent       `json:"rulings"`
}
