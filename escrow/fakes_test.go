package escrow

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/arbitrable-escrow/escrow-api/types"
)

// fakeHandle is a TxHandle whose confirmation outcome is preset.
type fakeHandle struct {
	hash    common.Hash
	waitErr error
}

func (h fakeHandle) Hash() common.Hash            { return h.hash }
func (h fakeHandle) Wait(_ context.Context) error { return h.waitErr }

func newHandle(label string) fakeHandle {
	return fakeHandle{hash: crypto.Keccak256Hash([]byte(label))}
}

// fakeStore records uploads and serves canned metadata by uri.
type fakeStore struct {
	mu       sync.Mutex
	metas    map[string]types.MetaEvidence
	fetchErr error

	uploadJSONErr error
	uploadFileErr error
	jsonUploads   []any
	fileUploads   []string
}

func (s *fakeStore) Fetch(_ context.Context, uri string) (types.MetaEvidence, error) {
	if s.fetchErr != nil {
		return types.MetaEvidence{}, s.fetchErr
	}
	meta, ok := s.metas[uri]
	if !ok {
		return types.MetaEvidence{}, fmt.Errorf("no record at %s", uri)
	}
	return meta, nil
}

func (s *fakeStore) UploadJSON(_ context.Context, name string, v any) (string, error) {
	if s.uploadJSONErr != nil {
		return "", s.uploadJSONErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jsonUploads = append(s.jsonUploads, v)
	return fmt.Sprintf("/ipfs/json-%d/%s", len(s.jsonUploads), name), nil
}

func (s *fakeStore) UploadFile(_ context.Context, name string, _ []byte) (string, error) {
	if s.uploadFileErr != nil {
		return "", s.uploadFileErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileUploads = append(s.fileUploads, name)
	return "/ipfs/file-" + name, nil
}

// fakeIndex serves a fixed creation list and per-id event sets.
type fakeIndex struct {
	creations    []types.MetaEvidenceEvent
	events       map[string]types.TransactionEvents
	creationsErr error
	eventsErr    map[string]error
}

func (i *fakeIndex) CreationEvents(_ context.Context) ([]types.MetaEvidenceEvent, error) {
	if i.creationsErr != nil {
		return nil, i.creationsErr
	}
	return i.creations, nil
}

func (i *fakeIndex) TransactionEvents(_ context.Context, id string) (types.TransactionEvents, error) {
	if err := i.eventsErr[id]; err != nil {
		return types.TransactionEvents{}, err
	}
	return i.events[id], nil
}

// fakeReader serves canned contract state.
type fakeReader struct {
	fields    map[string]types.TransactionFields
	fieldsErr map[string]error

	arbitrationCost *big.Int
	arbitrationErr  error

	balances   map[common.Address]*big.Int
	allowances map[common.Address]*big.Int
	codeless   map[common.Address]bool

	escrowAddr common.Address
}

func (r *fakeReader) TransactionFields(_ context.Context, id string, _ types.Track) (types.TransactionFields, error) {
	if err := r.fieldsErr[id]; err != nil {
		return types.TransactionFields{}, err
	}
	return r.fields[id], nil
}

func (r *fakeReader) ArbitrationCost(_ context.Context, _ types.Track) (*big.Int, error) {
	if r.arbitrationErr != nil {
		return nil, r.arbitrationErr
	}
	return r.arbitrationCost, nil
}

func (r *fakeReader) BalanceOf(_ context.Context, token common.Address, _ common.Address) (*big.Int, error) {
	if b, ok := r.balances[token]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (r *fakeReader) Allowance(_ context.Context, token common.Address, _ common.Address) (*big.Int, error) {
	if a, ok := r.allowances[token]; ok {
		return a, nil
	}
	return big.NewInt(0), nil
}

func (r *fakeReader) HasCode(_ context.Context, address common.Address) (bool, error) {
	return !r.codeless[address], nil
}

func (r *fakeReader) EscrowAddress(_ types.Track) common.Address {
	return r.escrowAddr
}

// call records one submitted write for later inspection.
type call struct {
	method string
	id     string
	amount *big.Int
	value  *big.Int
	uri    string
	token  common.Address
}

// fakeWriter records every submission and returns preset handles.
type fakeWriter struct {
	mu    sync.Mutex
	calls []call

	submitErr map[string]error
	waitErr   map[string]error
}

func (w *fakeWriter) record(c call) (TxHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.submitErr[c.method]; err != nil {
		return nil, err
	}
	w.calls = append(w.calls, c)
	h := newHandle(fmt.Sprintf("%s-%d", c.method, len(w.calls)))
	h.waitErr = w.waitErr[c.method]
	return h, nil
}

func (w *fakeWriter) methods() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.calls))
	for i, c := range w.calls {
		out[i] = c.method
	}
	return out
}

func (w *fakeWriter) Release(_ context.Context, _ *bind.TransactOpts, id string, _ types.Track, amount *big.Int) (TxHandle, error) {
	return w.record(call{method: "release", id: id, amount: amount})
}

func (w *fakeWriter) Refund(_ context.Context, _ *bind.TransactOpts, id string, _ types.Track, amount *big.Int) (TxHandle, error) {
	return w.record(call{method: "refund", id: id, amount: amount})
}

func (w *fakeWriter) PayArbitrationFeeBySender(_ context.Context, _ *bind.TransactOpts, id string, _ types.Track, value *big.Int) (TxHandle, error) {
	return w.record(call{method: "feeBySender", id: id, value: value})
}

func (w *fakeWriter) PayArbitrationFeeByReceiver(_ context.Context, _ *bind.TransactOpts, id string, _ types.Track, value *big.Int) (TxHandle, error) {
	return w.record(call{method: "feeByReceiver", id: id, value: value})
}

func (w *fakeWriter) SubmitEvidence(_ context.Context, _ *bind.TransactOpts, id string, _ types.Track, evidenceURI string) (TxHandle, error) {
	return w.record(call{method: "submitEvidence", id: id, uri: evidenceURI})
}

func (w *fakeWriter) CreateNative(_ context.Context, _ *bind.TransactOpts, _ *big.Int, _ common.Address, metaURI string, value *big.Int) (TxHandle, error) {
	return w.record(call{method: "createNative", uri: metaURI, value: value})
}

func (w *fakeWriter) CreateToken(_ context.Context, _ *bind.TransactOpts, amount *big.Int, token common.Address, _ *big.Int, _ common.Address, metaURI string) (TxHandle, error) {
	return w.record(call{method: "createToken", amount: amount, token: token, uri: metaURI})
}

func (w *fakeWriter) Approve(_ context.Context, _ *bind.TransactOpts, token common.Address, amount *big.Int) (TxHandle, error) {
	return w.record(call{method: "approve", token: token, amount: amount})
}
