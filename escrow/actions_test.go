package escrow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitrable-escrow/escrow-api/tokens"
	"github.com/arbitrable-escrow/escrow-api/types"
)

var (
	senderAddress   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	receiverAddress = common.HexToAddress("0x2222222222222222222222222222222222222222")
	strangerAddress = common.HexToAddress("0x3333333333333333333333333333333333333333")
	escrowAddress   = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func authFor(addr common.Address) *bind.TransactOpts {
	return &bind.TransactOpts{From: addr}
}

func pendingTransaction() types.EscrowTransaction {
	return types.EscrowTransaction{
		ID:       "7",
		Track:    types.TrackNative,
		Sender:   senderAddress.Hex(),
		Receiver: receiverAddress.Hex(),
		Amount:   "1000000000000000000",
		Status:   types.StatusPending,
	}
}

func newTestOrchestrator(reader *fakeReader, writer *fakeWriter, store *fakeStore) *Orchestrator {
	return NewOrchestrator(OrchestratorOpts{
		Reader:   reader,
		Writer:   writer,
		Store:    store,
		Registry: tokens.NewRegistry(nil),
	})
}

func TestReleaseBySender(t *testing.T) {
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

	err := o.Release(context.Background(), authFor(senderAddress), pendingTransaction(), "0.4")
	require.NoError(t, err)

	require.Len(t, writer.calls, 1)
	assert.Equal(t, "release", writer.calls[0].method)
	assert.Equal(t, "7", writer.calls[0].id)
	assert.Equal(t, "400000000000000000", writer.calls[0].amount.String())
}

func TestReleaseAuthorization(t *testing.T) {
	for _, caller := range []common.Address{receiverAddress, strangerAddress} {
		writer := &fakeWriter{}
		o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

		err := o.Release(context.Background(), authFor(caller), pendingTransaction(), "0.4")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrUnauthorized))
		assert.Empty(t, writer.calls)
	}
}

func TestReleaseCaseInsensitiveCaller(t *testing.T) {
	tx := pendingTransaction()
	// stored addresses and signer addresses may disagree on hex casing
	tx.Sender = "0x1111111111111111111111111111111111111111"

	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

	err := o.Release(context.Background(), authFor(senderAddress), tx, "1")
	require.NoError(t, err)
	assert.Len(t, writer.calls, 1)
}

func TestRefundByReceiver(t *testing.T) {
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

	err := o.Refund(context.Background(), authFor(receiverAddress), pendingTransaction(), "1")
	require.NoError(t, err)

	require.Len(t, writer.calls, 1)
	assert.Equal(t, "refund", writer.calls[0].method)
	assert.Equal(t, "1000000000000000000", writer.calls[0].amount.String())
}

func TestRefundRejectsSender(t *testing.T) {
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

	err := o.Refund(context.Background(), authFor(senderAddress), pendingTransaction(), "1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnauthorized))
	assert.Empty(t, writer.calls)
}

func TestTransferRejectsNonPending(t *testing.T) {
	for _, status := range []types.TransactionStatus{types.StatusDisputed, types.StatusCompleted, types.StatusUnknown} {
		tx := pendingTransaction()
		tx.Status = status

		writer := &fakeWriter{}
		o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

		err := o.Release(context.Background(), authFor(senderAddress), tx, "0.1")
		require.Error(t, err, "status %s", status)
		assert.True(t, errors.Is(err, types.ErrValidation), "status %s", status)
		assert.Empty(t, writer.calls)
	}
}

func TestTransferRejectsExcessAmount(t *testing.T) {
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

	err := o.Release(context.Background(), authFor(senderAddress), pendingTransaction(), "1.5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidAmount))
	assert.Empty(t, writer.calls)
}

func TestTransferRejectsMalformedAmount(t *testing.T) {
	for _, amount := range []string{"", "-1", "abc", "0"} {
		writer := &fakeWriter{}
		o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

		err := o.Release(context.Background(), authFor(senderAddress), pendingTransaction(), amount)
		require.Error(t, err, "amount %q", amount)
		assert.True(t, errors.Is(err, types.ErrInvalidAmount))
		assert.Empty(t, writer.calls)
	}
}

func TestReleaseWaitFailure(t *testing.T) {
	writer := &fakeWriter{waitErr: map[string]error{"release": fmt.Errorf("reverted")}}
	o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

	err := o.Release(context.Background(), authFor(senderAddress), pendingTransaction(), "0.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrChainRejected))
}

func TestPayArbitrationFeeRouting(t *testing.T) {
	tests := []struct {
		name       string
		caller     common.Address
		wantMethod string
	}{
		{"sender side", senderAddress, "feeBySender"},
		{"receiver side", receiverAddress, "feeByReceiver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{arbitrationCost: big.NewInt(30000000000000000)}
			writer := &fakeWriter{}
			o := newTestOrchestrator(reader, writer, &fakeStore{})

			err := o.PayArbitrationFee(context.Background(), authFor(tt.caller), pendingTransaction())
			require.NoError(t, err)

			require.Len(t, writer.calls, 1)
			assert.Equal(t, tt.wantMethod, writer.calls[0].method)
			assert.Equal(t, "30000000000000000", writer.calls[0].value.String())
		})
	}
}

func TestPayArbitrationFeeRejectsStranger(t *testing.T) {
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{arbitrationCost: big.NewInt(1)}, writer, &fakeStore{})

	err := o.PayArbitrationFee(context.Background(), authFor(strangerAddress), pendingTransaction())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnauthorized))
	assert.Empty(t, writer.calls)
}

func TestSubmitEvidenceWithAttachment(t *testing.T) {
	store := &fakeStore{}
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, store)

	tx := pendingTransaction()
	tx.Status = types.StatusDisputed

	err := o.SubmitEvidence(context.Background(), authFor(receiverAddress), tx, EvidenceParams{
		Title:       "Delivery receipt",
		Description: "Signed receipt from the courier",
		FileName:    "receipt.pdf",
		File:        []byte("%PDF-"),
	})
	require.NoError(t, err)

	require.Len(t, store.fileUploads, 1)
	require.Len(t, store.jsonUploads, 1)
	doc, ok := store.jsonUploads[0].(types.EvidenceDocument)
	require.True(t, ok)
	assert.Equal(t, "Delivery receipt", doc.Name)
	assert.Equal(t, "/ipfs/file-receipt.pdf", doc.FileURI)
	assert.Equal(t, "pdf", doc.FileTypeExtension)

	require.Len(t, writer.calls, 1)
	assert.Equal(t, "submitEvidence", writer.calls[0].method)
	assert.NotEmpty(t, writer.calls[0].uri)
}

func TestSubmitEvidenceWithoutAttachment(t *testing.T) {
	store := &fakeStore{}
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, store)

	err := o.SubmitEvidence(context.Background(), authFor(senderAddress), pendingTransaction(), EvidenceParams{
		Title: "Statement",
	})
	require.NoError(t, err)

	assert.Empty(t, store.fileUploads)
	require.Len(t, store.jsonUploads, 1)
	doc := store.jsonUploads[0].(types.EvidenceDocument)
	assert.Empty(t, doc.FileURI)
	assert.Empty(t, doc.FileTypeExtension)
}

func TestSubmitEvidenceRejectsCompleted(t *testing.T) {
	tx := pendingTransaction()
	tx.Status = types.StatusCompleted

	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, &fakeStore{})

	err := o.SubmitEvidence(context.Background(), authFor(senderAddress), tx, EvidenceParams{Title: "Late"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
	assert.Empty(t, writer.calls)
}

func TestSubmitEvidenceAttachmentUploadFailure(t *testing.T) {
	store := &fakeStore{uploadFileErr: fmt.Errorf("pin service down")}
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, store)

	err := o.SubmitEvidence(context.Background(), authFor(senderAddress), pendingTransaction(), EvidenceParams{
		Title:    "Doc",
		FileName: "doc.png",
		File:     []byte{1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUploadFailed))
	assert.Empty(t, store.jsonUploads)
	assert.Empty(t, writer.calls)
}

func TestCreateNative(t *testing.T) {
	store := &fakeStore{}
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, store)

	var states []CreateState
	hash, err := o.Create(context.Background(), authFor(senderAddress), CreateParams{
		Title:       "Website build",
		Receiver:    receiverAddress.Hex(),
		Amount:      "1.5",
		TimeoutDays: 7,
		OnState:     func(s CreateState) { states = append(states, s) },
	})
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Equal(t, []CreateState{StateCreating, StateConfirmed}, states)
	assert.Equal(t, []string{"createNative"}, writer.methods())
	assert.Equal(t, "1500000000000000000", writer.calls[0].value.String())

	require.Len(t, store.jsonUploads, 1)
	meta := store.jsonUploads[0].(types.MetaEvidence)
	assert.Equal(t, "Website build", meta.Title)
	assert.Equal(t, senderAddress.Hex(), meta.Sender)
	assert.Equal(t, int64(7*24*60*60), meta.Timeout)
	require.NotNil(t, meta.Token)
	assert.Equal(t, "ETH", meta.Token.Ticker)
	assert.Nil(t, meta.Token.Address)
}

func TestCreateValidation(t *testing.T) {
	o := newTestOrchestrator(&fakeReader{}, &fakeWriter{}, &fakeStore{})

	_, err := o.Create(context.Background(), authFor(senderAddress), CreateParams{
		Receiver: "not-an-address", Amount: "1", TimeoutDays: 7,
	})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = o.Create(context.Background(), authFor(senderAddress), CreateParams{
		Receiver: receiverAddress.Hex(), Amount: "1", TimeoutDays: 0,
	})
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = o.Create(context.Background(), authFor(senderAddress), CreateParams{
		Receiver: receiverAddress.Hex(), Amount: "-3", TimeoutDays: 7,
	})
	assert.True(t, errors.Is(err, types.ErrInvalidAmount))
}

func usdcToken(t *testing.T) tokens.Token {
	t.Helper()
	token, ok := tokens.NewRegistry(nil).BySymbol("USDC")
	require.True(t, ok)
	return token
}

func tokenCreateParams(token tokens.Token, onState func(CreateState)) CreateParams {
	return CreateParams{
		Title:       "Invoice 42",
		Receiver:    receiverAddress.Hex(),
		Amount:      "100",
		TimeoutDays: 14,
		Token:       &token,
		OnState:     onState,
	}
}

func TestCreateTokenWithApproval(t *testing.T) {
	token := usdcToken(t)
	reader := &fakeReader{
		balances:   map[common.Address]*big.Int{token.Address: big.NewInt(500000000)},
		allowances: map[common.Address]*big.Int{token.Address: big.NewInt(0)},
		escrowAddr: escrowAddress,
	}
	writer := &fakeWriter{}
	o := newTestOrchestrator(reader, writer, &fakeStore{})

	var states []CreateState
	hash, err := o.Create(context.Background(), authFor(senderAddress), tokenCreateParams(token, func(s CreateState) {
		states = append(states, s)
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Equal(t, []string{"approve", "createToken"}, writer.methods())
	assert.Equal(t, "100000000", writer.calls[0].amount.String())
	assert.Equal(t, token.Address, writer.calls[0].token)
	assert.Equal(t, "100000000", writer.calls[1].amount.String())
	assert.Equal(t, []CreateState{StateApproving, StateApproved, StateCreating, StateConfirmed}, states)
}

func TestCreateTokenSkipsApprovalWhenAllowanceSuffices(t *testing.T) {
	token := usdcToken(t)
	reader := &fakeReader{
		balances:   map[common.Address]*big.Int{token.Address: big.NewInt(500000000)},
		allowances: map[common.Address]*big.Int{token.Address: big.NewInt(100000000)},
		escrowAddr: escrowAddress,
	}
	writer := &fakeWriter{}
	o := newTestOrchestrator(reader, writer, &fakeStore{})

	var states []CreateState
	_, err := o.Create(context.Background(), authFor(senderAddress), tokenCreateParams(token, func(s CreateState) {
		states = append(states, s)
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"createToken"}, writer.methods())
	assert.Equal(t, []CreateState{StateApproved, StateCreating, StateConfirmed}, states)
}

func TestCreateTokenInsufficientBalance(t *testing.T) {
	token := usdcToken(t)
	reader := &fakeReader{
		balances:   map[common.Address]*big.Int{token.Address: big.NewInt(50)},
		escrowAddr: escrowAddress,
	}
	writer := &fakeWriter{}
	o := newTestOrchestrator(reader, writer, &fakeStore{})

	_, err := o.Create(context.Background(), authFor(senderAddress), tokenCreateParams(token, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInsufficientFunds))
	assert.Empty(t, writer.calls)
}

func TestCreateTokenMissingContractCode(t *testing.T) {
	token := usdcToken(t)
	reader := &fakeReader{
		codeless:   map[common.Address]bool{token.Address: true},
		escrowAddr: escrowAddress,
	}
	writer := &fakeWriter{}
	o := newTestOrchestrator(reader, writer, &fakeStore{})

	_, err := o.Create(context.Background(), authFor(senderAddress), tokenCreateParams(token, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoContractCode))
	assert.Empty(t, writer.calls)
}

func TestCreateTokenApprovalNotConfirmed(t *testing.T) {
	token := usdcToken(t)
	reader := &fakeReader{
		balances:   map[common.Address]*big.Int{token.Address: big.NewInt(500000000)},
		escrowAddr: escrowAddress,
	}
	writer := &fakeWriter{waitErr: map[string]error{"approve": fmt.Errorf("dropped from mempool")}}
	o := newTestOrchestrator(reader, writer, &fakeStore{})

	_, err := o.Create(context.Background(), authFor(senderAddress), tokenCreateParams(token, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInsufficientAllowance))
	// the create call never went out
	assert.Equal(t, []string{"approve"}, writer.methods())
}

func TestCreateMetadataUploadFailure(t *testing.T) {
	store := &fakeStore{uploadJSONErr: fmt.Errorf("pin service down")}
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeReader{}, writer, store)

	_, err := o.Create(context.Background(), authFor(senderAddress), CreateParams{
		Receiver: receiverAddress.Hex(), Amount: "1", TimeoutDays: 7,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUploadFailed))
	assert.Empty(t, writer.calls)
}

func TestCreateStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "approving", StateApproving.String())
	assert.Equal(t, "confirmed", StateConfirmed.String())
	assert.Equal(t, "state(9)", CreateState(9).String())
}
