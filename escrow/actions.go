package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"path"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/arbitrable-escrow/escrow-api/tokens"
	"github.com/arbitrable-escrow/escrow-api/types"
)

// CreateState tracks the token-create sequence so callers can show where a
// multi-step workflow stands. Steps are strictly sequential: a step never
// starts before the prior step's confirmation is observed.
type CreateState int

const (
	StateIdle CreateState = iota
	StateApproving
	StateApproved
	StateCreating
	StateConfirmed
)

func (s CreateState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateApproving:
		return "approving"
	case StateApproved:
		return "approved"
	case StateCreating:
		return "creating"
	case StateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Orchestrator drives the user-initiated, state-changing escrow workflows.
// It validates everything it can before any write, submits exactly the calls
// the workflow needs, and never retries: each outcome is terminal and a
// success obligates the caller to re-aggregate the transaction.
type Orchestrator struct {
	reader   LedgerReader
	writer   LedgerWriter
	store    MetadataStore
	registry *tokens.Registry
	logger   *slog.Logger
}

type OrchestratorOpts struct {
	Reader   LedgerReader
	Writer   LedgerWriter
	Store    MetadataStore
	Registry *tokens.Registry
	Logger   *slog.Logger
}

func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Orchestrator{
		reader:   opts.Reader,
		writer:   opts.Writer,
		store:    opts.Store,
		registry: opts.Registry,
		logger:   opts.Logger,
	}
}

// Release pays out part or all of the escrowed amount to the receiver. Only
// the sender of an undisputed pending transaction may release.
func (o *Orchestrator) Release(ctx context.Context, auth *bind.TransactOpts, tx types.EscrowTransaction, amount string) error {
	if !sameAddress(auth.From.Hex(), tx.Sender) {
		return fmt.Errorf("only the sender can release funds: %w", types.ErrUnauthorized)
	}
	value, err := o.transferableAmount(tx, amount)
	if err != nil {
		return err
	}

	handle, err := o.writer.Release(ctx, auth, tx.ID, tx.Track, value)
	if err != nil {
		return fmt.Errorf("release submission failed: %v: %w", err, types.ErrChainRejected)
	}
	o.logger.Info("release submitted", "id", tx.ID, "track", tx.Track, "tx", handle.Hash().Hex())
	return o.await(ctx, handle)
}

// Refund returns part or all of the escrowed amount to the sender. Only the
// receiver of an undisputed pending transaction may refund.
func (o *Orchestrator) Refund(ctx context.Context, auth *bind.TransactOpts, tx types.EscrowTransaction, amount string) error {
	if !sameAddress(auth.From.Hex(), tx.Receiver) {
		return fmt.Errorf("only the receiver can refund funds: %w", types.ErrUnauthorized)
	}
	value, err := o.transferableAmount(tx, amount)
	if err != nil {
		return err
	}

	handle, err := o.writer.Refund(ctx, auth, tx.ID, tx.Track, value)
	if err != nil {
		return fmt.Errorf("refund submission failed: %v: %w", err, types.ErrChainRejected)
	}
	o.logger.Info("refund submitted", "id", tx.ID, "track", tx.Track, "tx", handle.Hash().Hex())
	return o.await(ctx, handle)
}

// transferableAmount validates preconditions shared by Release and Refund
// and converts the display amount to smallest units.
func (o *Orchestrator) transferableAmount(tx types.EscrowTransaction, amount string) (*big.Int, error) {
	if tx.Status != types.StatusPending {
		return nil, fmt.Errorf("transaction is %s, not pending: %w", tx.Status, types.ErrValidation)
	}
	su, err := tokens.ToSmallestUnit(amount, tx.Decimals())
	if err != nil {
		return nil, err
	}
	value, _ := tokens.ParseSmallestUnit(su)

	remaining, err := tokens.ParseSmallestUnit(tx.Amount)
	if err != nil {
		return nil, fmt.Errorf("unreadable remaining amount %q: %w", tx.Amount, types.ErrInvalidAmount)
	}
	if value.Cmp(remaining) > 0 {
		return nil, fmt.Errorf("amount %s exceeds remaining %s: %w", value, remaining, types.ErrInvalidAmount)
	}
	return value, nil
}

// PayArbitrationFee pays the caller's side of the arbitration fee. Either
// party of a pending transaction may pay; the current cost is read from the
// arbitrator and sent as the exact call value.
func (o *Orchestrator) PayArbitrationFee(ctx context.Context, auth *bind.TransactOpts, tx types.EscrowTransaction) error {
	caller := auth.From.Hex()
	isSender := sameAddress(caller, tx.Sender)
	isReceiver := sameAddress(caller, tx.Receiver)
	if !isSender && !isReceiver {
		return fmt.Errorf("only a party can pay the arbitration fee: %w", types.ErrUnauthorized)
	}
	if tx.Status != types.StatusPending {
		return fmt.Errorf("transaction is %s, not pending: %w", tx.Status, types.ErrValidation)
	}

	cost, err := o.reader.ArbitrationCost(ctx, tx.Track)
	if err != nil {
		return fmt.Errorf("failed to read arbitration cost: %w", err)
	}

	var handle TxHandle
	if isSender {
		handle, err = o.writer.PayArbitrationFeeBySender(ctx, auth, tx.ID, tx.Track, cost)
	} else {
		handle, err = o.writer.PayArbitrationFeeByReceiver(ctx, auth, tx.ID, tx.Track, cost)
	}
	if err != nil {
		return fmt.Errorf("fee payment submission failed: %v: %w", err, types.ErrChainRejected)
	}
	o.logger.Info("arbitration fee submitted", "id", tx.ID, "track", tx.Track, "cost", cost, "tx", handle.Hash().Hex())
	return o.await(ctx, handle)
}

// EvidenceParams describes one evidence submission. File is optional.
type EvidenceParams struct {
	Title       string
	Description string
	FileName    string
	File        []byte
}

// SubmitEvidence uploads the evidence record (and its attachment, if any) to
// the metadata store and anchors the reference on chain. Either party may
// submit while the transaction is not completed.
func (o *Orchestrator) SubmitEvidence(ctx context.Context, auth *bind.TransactOpts, tx types.EscrowTransaction, params EvidenceParams) error {
	caller := auth.From.Hex()
	if !sameAddress(caller, tx.Sender) && !sameAddress(caller, tx.Receiver) {
		return fmt.Errorf("only a party can submit evidence: %w", types.ErrUnauthorized)
	}
	if tx.Status == types.StatusCompleted {
		return fmt.Errorf("transaction already completed: %w", types.ErrValidation)
	}

	doc := types.EvidenceDocument{
		Name:        params.Title,
		Description: params.Description,
	}
	if len(params.File) > 0 {
		fileURI, err := o.store.UploadFile(ctx, params.FileName, params.File)
		if err != nil {
			return fmt.Errorf("attachment upload failed: %v: %w", err, types.ErrUploadFailed)
		}
		doc.FileURI = fileURI
		doc.FileTypeExtension = strings.TrimPrefix(path.Ext(params.FileName), ".")
	}

	uri, err := o.store.UploadJSON(ctx, "evidence.json", doc)
	if err != nil {
		return fmt.Errorf("evidence upload failed: %v: %w", err, types.ErrUploadFailed)
	}

	handle, err := o.writer.SubmitEvidence(ctx, auth, tx.ID, tx.Track, uri)
	if err != nil {
		return fmt.Errorf("evidence submission failed: %v: %w", err, types.ErrChainRejected)
	}
	o.logger.Info("evidence submitted", "id", tx.ID, "track", tx.Track, "uri", uri, "tx", handle.Hash().Hex())
	return o.await(ctx, handle)
}

// CreateParams describes a new escrow transaction. A nil Token selects the
// native track.
type CreateParams struct {
	Title         string
	Description   string
	Category      string
	Receiver      string
	Amount        string
	TimeoutDays   int
	Token         *tokens.Token
	SenderAlias   string
	ReceiverAlias string
	// OnState observes the create sequence; may be nil.
	OnState func(CreateState)
}

const (
	arbitrationQuestion = "Should the payment be released to the receiver?"
)

var defaultRulingOptions = types.RulingOptions{
	Titles: []string{"Release to sender", "Release to receiver"},
	Descriptions: []string{
		"Funds will be returned to the sender",
		"Funds will be sent to the receiver",
	},
}

// Create uploads the transaction's metadata record and submits the create
// call for the selected track. The token track runs the full pre-flight:
// contract code checks, balance check, allowance check, and a confirmed
// approve before the create call. All amount comparisons are on smallest
// units; no write is submitted until every check has passed.
func (o *Orchestrator) Create(ctx context.Context, auth *bind.TransactOpts, params CreateParams) (string, error) {
	if !common.IsHexAddress(params.Receiver) {
		return "", fmt.Errorf("malformed receiver address %q: %w", params.Receiver, types.ErrValidation)
	}
	if params.TimeoutDays <= 0 {
		return "", fmt.Errorf("timeout must be at least one day: %w", types.ErrValidation)
	}

	token := o.registry.Default()
	if params.Token != nil {
		token = *params.Token
	}
	su, err := tokens.ToSmallestUnit(params.Amount, token.Decimals)
	if err != nil {
		return "", err
	}
	amount, _ := tokens.ParseSmallestUnit(su)

	receiver := common.HexToAddress(params.Receiver)
	timeout := big.NewInt(int64(params.TimeoutDays) * 24 * 60 * 60)

	meta := types.MetaEvidence{
		Title:         params.Title,
		Description:   params.Description,
		Category:      params.Category,
		Question:      arbitrationQuestion,
		RulingOptions: defaultRulingOptions,
		Receiver:      params.Receiver,
		Sender:        auth.From.Hex(),
		Amount:        params.Amount,
		Timeout:       timeout.Int64(),
		Aliases: types.Aliases{
			Sender:   params.SenderAlias,
			Receiver: params.ReceiverAlias,
		},
	}
	descriptor := token.Descriptor()
	meta.Token = &descriptor

	metaURI, err := o.store.UploadJSON(ctx, "meta-evidence.json", meta)
	if err != nil {
		return "", fmt.Errorf("metadata upload failed: %v: %w", err, types.ErrUploadFailed)
	}

	if token.Native {
		return o.createNative(ctx, auth, timeout, receiver, metaURI, amount, params.OnState)
	}
	return o.createToken(ctx, auth, token, timeout, receiver, metaURI, amount, params.OnState)
}

func (o *Orchestrator) createNative(ctx context.Context, auth *bind.TransactOpts, timeout *big.Int, receiver common.Address, metaURI string, amount *big.Int, onState func(CreateState)) (string, error) {
	report(onState, StateCreating)
	handle, err := o.writer.CreateNative(ctx, auth, timeout, receiver, metaURI, amount)
	if err != nil {
		return "", fmt.Errorf("create submission failed: %v: %w", err, types.ErrChainRejected)
	}
	o.logger.Info("escrow creation submitted", "track", types.TrackNative, "tx", handle.Hash().Hex())
	if err := o.await(ctx, handle); err != nil {
		return "", err
	}
	report(onState, StateConfirmed)
	return handle.Hash().Hex(), nil
}

func (o *Orchestrator) createToken(ctx context.Context, auth *bind.TransactOpts, token tokens.Token, timeout *big.Int, receiver common.Address, metaURI string, amount *big.Int, onState func(CreateState)) (string, error) {
	escrowAddr := o.reader.EscrowAddress(types.TrackToken)
	for _, addr := range []common.Address{token.Address, escrowAddr} {
		ok, err := o.reader.HasCode(ctx, addr)
		if err != nil {
			return "", fmt.Errorf("failed to check contract code at %s: %w", addr.Hex(), err)
		}
		if !ok {
			return "", fmt.Errorf("%s: %w", addr.Hex(), types.ErrNoContractCode)
		}
	}

	balance, err := o.reader.BalanceOf(ctx, token.Address, auth.From)
	if err != nil {
		return "", fmt.Errorf("failed to read token balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return "", fmt.Errorf("balance %s below requested %s: %w", balance, amount, types.ErrInsufficientFunds)
	}

	allowance, err := o.reader.Allowance(ctx, token.Address, auth.From)
	if err != nil {
		return "", fmt.Errorf("failed to read token allowance: %w", err)
	}
	if allowance.Cmp(amount) < 0 {
		report(onState, StateApproving)
		approval, err := o.writer.Approve(ctx, auth, token.Address, amount)
		if err != nil {
			return "", fmt.Errorf("approve submission failed: %v: %w", err, types.ErrInsufficientAllowance)
		}
		o.logger.Info("approval submitted", "token", token.Symbol, "amount", amount, "tx", approval.Hash().Hex())
		if err := approval.Wait(ctx); err != nil {
			return "", fmt.Errorf("approve not confirmed: %v: %w", err, types.ErrInsufficientAllowance)
		}
	}
	report(onState, StateApproved)

	report(onState, StateCreating)
	handle, err := o.writer.CreateToken(ctx, auth, amount, token.Address, timeout, receiver, metaURI)
	if err != nil {
		return "", fmt.Errorf("create submission failed: %v: %w", err, types.ErrChainRejected)
	}
	o.logger.Info("escrow creation submitted", "track", types.TrackToken, "token", token.Symbol, "tx", handle.Hash().Hex())
	if err := o.await(ctx, handle); err != nil {
		return "", err
	}
	report(onState, StateConfirmed)
	return handle.Hash().Hex(), nil
}

func (o *Orchestrator) await(ctx context.Context, handle TxHandle) error {
	if err := handle.Wait(ctx); err != nil {
		return fmt.Errorf("transaction %s not confirmed: %v: %w", handle.Hash().Hex(), err, types.ErrChainRejected)
	}
	return nil
}

func report(onState func(CreateState), state CreateState) {
	if onState != nil {
		onState(state)
	}
}

func sameAddress(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}
