package models

import "github.com/arbitrable-escrow/escrow-api/types"

// Transaction is the persisted form of one aggregated escrow transaction.
// Every sync cycle replaces the whole document; fields are never patched
// individually, so the stored record always reflects one consistent
// aggregation run.
type Transaction struct {
	TransactionID string `json:"transaction_id" bson:"transaction_id"`
	Track         string `json:"track" bson:"track"`

	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Category    string `json:"category" bson:"category"`

	Sender   string `json:"sender" bson:"sender"`
	Receiver string `json:"receiver" bson:"receiver"`

	Amount string           `json:"amount" bson:"amount"`
	Token  *types.TokenInfo `json:"token,omitempty" bson:"token,omitempty"`

	Question     string   `json:"question,omitempty" bson:"question,omitempty"`
	RulingTitles []string `json:"ruling_titles,omitempty" bson:"ruling_titles,omitempty"`

	Status     string `json:"status" bson:"status"`
	StatusCode int    `json:"status_code" bson:"status_code"`

	CreatedAt   string `json:"created_at" bson:"created_at"`
	TxHash      string `json:"tx_hash" bson:"tx_hash"`
	BlockNumber string `json:"block_number" bson:"block_number"`
}

// FromEscrow converts an aggregate into its persisted form.
func FromEscrow(tx types.EscrowTransaction) Transaction {
	return Transaction{
		TransactionID: tx.ID,
		Track:         string(tx.Track),
		Title:         tx.Title,
		Description:   tx.Description,
		Category:      tx.Category,
		Sender:        tx.Sender,
		Receiver:      tx.Receiver,
		Amount:        tx.Amount,
		Token:         tx.Token,
		Question:      tx.Question,
		RulingTitles:  tx.RulingTitles,
		Status:        string(tx.Status),
		StatusCode:    tx.StatusCode,
		CreatedAt:     tx.CreatedAt,
		TxHash:        tx.TxHash,
		BlockNumber:   tx.BlockNumber,
	}
}
