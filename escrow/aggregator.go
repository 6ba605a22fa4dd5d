package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arbitrable-escrow/escrow-api/tokens"
	"github.com/arbitrable-escrow/escrow-api/types"
)

const defaultBatchSize = 10

// Aggregator joins off-chain metadata, on-chain transaction fields and the
// event set into one display-ready record per transaction id. One aggregator
// serves one asset track; its collaborators are bound to that track's
// contract and event index.
type Aggregator struct {
	track     types.Track
	index     EventIndex
	reader    LedgerReader
	store     MetadataStore
	registry  *tokens.Registry
	batchSize int
	logger    *slog.Logger
}

type AggregatorOpts struct {
	Track    types.Track
	Index    EventIndex
	Reader   LedgerReader
	Store    MetadataStore
	Registry *tokens.Registry
	// BatchSize bounds concurrent external calls in List. Defaults to 10.
	BatchSize int
	Logger    *slog.Logger
}

func NewAggregator(opts AggregatorOpts) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Aggregator{
		track:     opts.Track,
		index:     opts.Index,
		reader:    opts.Reader,
		store:     opts.Store,
		registry:  opts.Registry,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
	}
}

func (a *Aggregator) Track() types.Track { return a.track }

// Get produces the aggregate for one transaction id, along with the raw
// event set the timeline is built from. A missing id is terminal
// (types.ErrNotFound); an unreachable metadata record is not, and yields the
// placeholder instead.
func (a *Aggregator) Get(ctx context.Context, id string) (types.EscrowTransaction, types.TransactionEvents, error) {
	creations, err := a.index.CreationEvents(ctx)
	if err != nil {
		return types.EscrowTransaction{}, types.TransactionEvents{}, fmt.Errorf("failed to list creation events: %w", err)
	}

	for _, creation := range creations {
		if creation.MetaEvidenceID == id {
			return a.build(ctx, creation)
		}
	}
	return types.EscrowTransaction{}, types.TransactionEvents{}, fmt.Errorf("transaction %s on %s track: %w", id, a.track, types.ErrNotFound)
}

func (a *Aggregator) build(ctx context.Context, creation types.MetaEvidenceEvent) (types.EscrowTransaction, types.TransactionEvents, error) {
	id := creation.MetaEvidenceID
	meta := a.safeFetch(ctx, creation.Evidence)

	// The fields read and the event read have no ordering dependency.
	var (
		wg        sync.WaitGroup
		fields    types.TransactionFields
		events    types.TransactionEvents
		fieldsErr error
		eventsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		fields, fieldsErr = a.reader.TransactionFields(ctx, id, a.track)
	}()
	go func() {
		defer wg.Done()
		events, eventsErr = a.index.TransactionEvents(ctx, id)
	}()
	wg.Wait()

	if fieldsErr != nil {
		return types.EscrowTransaction{}, types.TransactionEvents{}, fmt.Errorf("failed to read transaction %s fields: %w", id, fieldsErr)
	}
	if eventsErr != nil {
		return types.EscrowTransaction{}, types.TransactionEvents{}, fmt.Errorf("failed to read transaction %s events: %w", id, eventsErr)
	}

	tx := types.EscrowTransaction{
		ID:                 id,
		Track:              a.track,
		Title:              meta.Title,
		Description:        meta.Description,
		Category:           meta.Category,
		Question:           meta.Question,
		RulingTitles:       meta.RulingOptions.Titles,
		RulingDescriptions: meta.RulingOptions.Descriptions,
		Aliases:            meta.Aliases,
		TimeoutSeconds:     meta.Timeout,
		StatusCode:         fields.StatusCode,
		CreatedAt:          creation.BlockTimestamp,
		TxHash:             creation.TransactionHash,
		BlockNumber:        creation.BlockNumber,
	}
	if tx.Title == "" {
		tx.Title = "Untitled Transaction"
	}
	if tx.Description == "" {
		tx.Description = "No description available"
	}
	if tx.Category == "" {
		tx.Category = "Uncategorized"
	}

	// The parties are on-chain facts; metadata only fills gaps for display.
	tx.Sender = firstNonEmpty(fields.Sender, meta.Sender, "Unknown")
	tx.Receiver = firstNonEmpty(fields.Receiver, meta.Receiver, "Unknown")

	if a.track == types.TrackToken {
		tx.Token = a.resolveToken(fields, meta)
	}

	tx.Amount = normalizeAmount(fields.RemainingAmount, tx.Decimals())
	tx.Status = ResolveStatus(events, tx.Amount, fields.StatusCode)

	return tx, events, nil
}

// resolveToken picks the token display metadata: registry first, then the
// descriptor embedded in the metadata record, then an 18-decimal unknown.
func (a *Aggregator) resolveToken(fields types.TransactionFields, meta types.MetaEvidence) *types.TokenInfo {
	if fields.TokenAddress != "" && a.registry != nil {
		if t, ok := a.registry.ByAddress(common.HexToAddress(fields.TokenAddress)); ok {
			info := t.Info()
			return &info
		}
	}
	if meta.Token != nil {
		info := types.TokenInfo{
			Name:     meta.Token.Name,
			Symbol:   meta.Token.Ticker,
			Decimals: meta.Token.Decimals,
		}
		if meta.Token.Address != nil {
			info.Address = *meta.Token.Address
		} else {
			info.Address = fields.TokenAddress
		}
		if info.Decimals <= 0 {
			info.Decimals = 18
		}
		return &info
	}
	return &types.TokenInfo{
		Name:     "Unknown Token",
		Symbol:   "TOKEN",
		Address:  fields.TokenAddress,
		Decimals: 18,
	}
}

// List aggregates every transaction on the track, in batches of BatchSize so
// concurrent external calls stay bounded. One item's failure never aborts
// the batch: it is counted, logged and excluded from the result set. The
// progress callback fires after each batch.
func (a *Aggregator) List(ctx context.Context, progress func(Progress)) ([]types.EscrowTransaction, error) {
	creations, err := a.index.CreationEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list creation events: %w", err)
	}

	p := Progress{Total: len(creations)}
	out := make([]types.EscrowTransaction, 0, len(creations))

	for start := 0; start < len(creations); start += a.batchSize {
		end := min(start+a.batchSize, len(creations))
		batch := creations[start:end]

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			failed int
		)
		results := make([]types.EscrowTransaction, 0, len(batch))

		for _, creation := range batch {
			wg.Add(1)
			go func(creation types.MetaEvidenceEvent) {
				defer wg.Done()
				tx, _, err := a.build(ctx, creation)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					a.logger.Warn("skipping transaction", "id", creation.MetaEvidenceID, "track", a.track, "error", err)
					return
				}
				results = append(results, tx)
			}(creation)
		}
		wg.Wait()

		out = append(out, results...)
		p.Done += len(batch)
		p.Failed += failed
		if progress != nil {
			progress(p)
		}

		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
	}

	return out, nil
}

func (a *Aggregator) safeFetch(ctx context.Context, uri string) types.MetaEvidence {
	meta, err := a.store.Fetch(ctx, uri)
	if err != nil {
		a.logger.Warn("failed to load metadata, using placeholder", "uri", uri, "error", err)
		return types.PlaceholderMetaEvidence()
	}
	return meta
}

// normalizeAmount coerces an upstream amount into smallest units: integer
// strings pass through, decimal strings are converted, anything else is "0".
func normalizeAmount(amount string, decimals int) string {
	if n, err := tokens.ParseSmallestUnit(amount); err == nil {
		return n.String()
	}
	if su, err := tokens.ToSmallestUnit(amount, decimals); err == nil {
		return su
	}
	return "0"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
