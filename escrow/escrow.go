// Package escrow contains the engine core: status resolution, transaction
// aggregation and action orchestration. All I/O goes through the collaborator
// interfaces below, which are constructor-injected so tests can substitute
// fakes.
package escrow

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/arbitrable-escrow/escrow-api/types"
)

// TxHandle is a submitted on-chain write. Wait blocks until the transaction
// is confirmed and returns an error if it reverted.
type TxHandle interface {
	Hash() common.Hash
	Wait(ctx context.Context) error
}

// MetadataStore is the content-addressed store holding meta-evidence and
// evidence records.
type MetadataStore interface {
	Fetch(ctx context.Context, uri string) (types.MetaEvidence, error)
	UploadJSON(ctx context.Context, name string, v any) (string, error)
	UploadFile(ctx context.Context, name string, data []byte) (string, error)
}

// EventIndex queries the event-index service of one asset track.
type EventIndex interface {
	CreationEvents(ctx context.Context) ([]types.MetaEvidenceEvent, error)
	TransactionEvents(ctx context.Context, id string) (types.TransactionEvents, error)
}

// LedgerReader reads contract state for both tracks.
type LedgerReader interface {
	TransactionFields(ctx context.Context, id string, track types.Track) (types.TransactionFields, error)
	ArbitrationCost(ctx context.Context, track types.Track) (*big.Int, error)
	BalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error)
	// Allowance is the amount the token escrow contract may spend for owner.
	Allowance(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error)
	HasCode(ctx context.Context, address common.Address) (bool, error)
	EscrowAddress(track types.Track) common.Address
}

// LedgerWriter submits state-changing calls. Every method returns once the
// write is submitted; confirmation is awaited through the returned handle.
type LedgerWriter interface {
	Release(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, amount *big.Int) (TxHandle, error)
	Refund(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, amount *big.Int) (TxHandle, error)
	PayArbitrationFeeBySender(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, value *big.Int) (TxHandle, error)
	PayArbitrationFeeByReceiver(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, value *big.Int) (TxHandle, error)
	SubmitEvidence(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, evidenceURI string) (TxHandle, error)
	CreateNative(ctx context.Context, auth *bind.TransactOpts, timeout *big.Int, receiver common.Address, metaURI string, value *big.Int) (TxHandle, error)
	CreateToken(ctx context.Context, auth *bind.TransactOpts, amount *big.Int, token common.Address, timeout *big.Int, receiver common.Address, metaURI string) (TxHandle, error)
	Approve(ctx context.Context, auth *bind.TransactOpts, token common.Address, amount *big.Int) (TxHandle, error)
}

// Progress reports how far a batch aggregation has come. Done includes
// failed items.
type Progress struct {
	Total  int
	Done   int
	Failed int
}
