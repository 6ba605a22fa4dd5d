// Package timeline turns the raw per-kind event streams of one escrow
// transaction into a single ordered, display-ready sequence. The sequence is
// fully rebuilt on every call; nothing is patched incrementally.
package timeline

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/arbitrable-escrow/escrow-api/tokens"
	"github.com/arbitrable-escrow/escrow-api/types"
)

// Entry is one normalized timeline item. Timestamp stays a numeric string
// (seconds, or a block number where the source has no timestamp).
type Entry struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	TxHash      string `json:"transactionHash"`

	sortKey int64
}

const (
	KindCreate   = "create"
	KindPayment  = "payment"
	KindEvidence = "evidence"
	KindDispute  = "dispute"
	KindFee      = "fee"
	KindRuling   = "ruling"
	KindFinal    = "final"
)

// Build produces the full timeline for one transaction: a synthesized
// creation entry, one entry per observed event, and a synthesized final
// payment entry when a payment postdates the last ruling. Entries are sorted
// ascending by their numeric key; a malformed timestamp sorts as zero rather
// than blocking the rest of the timeline.
func Build(events types.TransactionEvents, tx types.EscrowTransaction) []Entry {
	entries := []Entry{{
		Kind:        KindCreate,
		Title:       "Transaction Created",
		Description: fmt.Sprintf("Escrow transaction created between %s and %s", shortAddress(tx.Sender), shortAddress(tx.Receiver)),
		Timestamp:   tx.CreatedAt,
		TxHash:      tx.TxHash,
		sortKey:     parseKey(tx.CreatedAt),
	}}

	for _, p := range events.Payments {
		entries = append(entries, Entry{
			Kind:        KindPayment,
			Title:       "Payment Made",
			Description: fmt.Sprintf("%s paid by %s", amountText(p.Amount, tx), shortAddress(p.Party)),
			Timestamp:   p.BlockTimestamp,
			TxHash:      p.TransactionHash,
			sortKey:     parseKey(p.BlockTimestamp),
		})
	}

	// Evidence events carry no timestamp; the block number orders them.
	for _, e := range events.Evidences {
		entries = append(entries, Entry{
			Kind:        KindEvidence,
			Title:       "Evidence Submitted",
			Description: fmt.Sprintf("Evidence submitted by %s", shortAddress(e.Party)),
			Timestamp:   e.BlockNumber,
			TxHash:      e.TransactionHash,
			sortKey:     parseKey(e.BlockNumber),
		})
	}

	for _, d := range events.Disputes {
		entries = append(entries, Entry{
			Kind:        KindDispute,
			Title:       "Dispute Created",
			Description: "Transaction is now in dispute resolution",
			Timestamp:   d.BlockTimestamp,
			TxHash:      d.TransactionHash,
			sortKey:     parseKey(d.BlockTimestamp),
		})
	}

	for _, f := range events.HasToPayFees {
		entries = append(entries, Entry{
			Kind:        KindFee,
			Title:       "Arbitration Fee Required",
			Description: fmt.Sprintf("%s needs to pay arbitration fees", shortAddress(f.Party)),
			Timestamp:   f.BlockTimestamp,
			TxHash:      f.TransactionHash,
			sortKey:     parseKey(f.BlockTimestamp),
		})
	}

	for _, r := range events.Rulings {
		entries = append(entries, Entry{
			Kind:        KindRuling,
			Title:       "Ruling Given",
			Description: fmt.Sprintf("Final ruling: %s", rulingLabel(r.Ruling, tx.RulingTitles)),
			Timestamp:   r.BlockTimestamp,
			TxHash:      r.TransactionHash,
			sortKey:     parseKey(r.BlockTimestamp),
		})
	}

	if final, ok := finalPayment(events); ok {
		entries = append(entries, Entry{
			Kind:        KindFinal,
			Title:       "Final Payment",
			Description: fmt.Sprintf("%s transferred to recipient", amountText(final.Amount, tx)),
			Timestamp:   final.BlockTimestamp,
			TxHash:      final.TransactionHash,
			sortKey:     parseKey(final.BlockTimestamp),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].sortKey < entries[j].sortKey
	})
	return entries
}

// finalPayment returns the latest payment if it happened strictly after the
// latest ruling (or there are no rulings): a settlement that closed the
// transaction after arbitration concluded.
func finalPayment(events types.TransactionEvents) (types.PaymentEvent, bool) {
	if len(events.Payments) == 0 {
		return types.PaymentEvent{}, false
	}

	last := events.Payments[0]
	for _, p := range events.Payments[1:] {
		if parseKey(p.BlockTimestamp) > parseKey(last.BlockTimestamp) {
			last = p
		}
	}
	if len(events.Rulings) == 0 {
		return last, true
	}

	lastRuling := int64(0)
	for _, r := range events.Rulings {
		if k := parseKey(r.BlockTimestamp); k > lastRuling {
			lastRuling = k
		}
	}
	if parseKey(last.BlockTimestamp) > lastRuling {
		return last, true
	}
	return types.PaymentEvent{}, false
}

// rulingLabel resolves a numeric ruling code against the transaction's
// declared option titles, falling back to "Ruling #<code>".
func rulingLabel(code string, titles []string) string {
	n, err := strconv.Atoi(code)
	if err == nil && n >= 0 && n < len(titles) && titles[n] != "" {
		return titles[n]
	}
	return fmt.Sprintf("Ruling #%s", code)
}

// parseKey turns a numeric string into an ordering key; anything unparseable
// sorts first instead of failing.
func parseKey(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func amountText(amount string, tx types.EscrowTransaction) string {
	return tokens.FromSmallestUnit(amount, tx.Decimals()) + " " + tx.Symbol()
}

func shortAddress(addr string) string {
	if addr == "" || addr == "Unknown" {
		return "Unknown"
	}
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
