package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/arbitrable-escrow/escrow-api/escrow"
	"github.com/arbitrable-escrow/escrow-api/types"
)

// txHandle wraps a submitted transaction so callers can await confirmation.
type txHandle struct {
	tx      *ethtypes.Transaction
	backend bind.DeployBackend
}

func (c *Client) handle(tx *ethtypes.Transaction) escrow.TxHandle {
	return &txHandle{tx: tx, backend: c.client}
}

func (h *txHandle) Hash() common.Hash { return h.tx.Hash() }

// Wait blocks until the transaction is mined and checks the receipt status.
func (h *txHandle) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, h.backend, h.tx)
	if err != nil {
		return fmt.Errorf("failed to wait for transaction %s: %w", h.tx.Hash().Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted: %w", h.tx.Hash().Hex(), types.ErrChainRejected)
	}
	return nil
}

// withValue copies the signer options with a call value attached; the
// caller's TransactOpts are never mutated.
func withValue(auth *bind.TransactOpts, value *big.Int) *bind.TransactOpts {
	opts := *auth
	opts.Value = value
	return &opts
}

// Release pays amount to the receiver.
func (c *Client) Release(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, amount *big.Int) (escrow.TxHandle, error) {
	txID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tx, err := c.escrowFor(track).Transact(withContext(auth, ctx), "pay", txID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to submit pay: %w", err)
	}
	return c.handle(tx), nil
}

// Refund reimburses amount to the sender.
func (c *Client) Refund(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, amount *big.Int) (escrow.TxHandle, error) {
	txID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tx, err := c.escrowFor(track).Transact(withContext(auth, ctx), "reimburse", txID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to submit reimburse: %w", err)
	}
	return c.handle(tx), nil
}

func (c *Client) PayArbitrationFeeBySender(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, value *big.Int) (escrow.TxHandle, error) {
	return c.payFee(ctx, auth, id, track, value, "payArbitrationFeeBySender")
}

func (c *Client) PayArbitrationFeeByReceiver(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, value *big.Int) (escrow.TxHandle, error) {
	return c.payFee(ctx, auth, id, track, value, "payArbitrationFeeByReceiver")
}

func (c *Client) payFee(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, value *big.Int, method string) (escrow.TxHandle, error) {
	txID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tx, err := c.escrowFor(track).Transact(withContext(withValue(auth, value), ctx), method, txID)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", method, err)
	}
	return c.handle(tx), nil
}

// SubmitEvidence anchors an evidence record reference on chain.
func (c *Client) SubmitEvidence(ctx context.Context, auth *bind.TransactOpts, id string, track types.Track, evidenceURI string) (escrow.TxHandle, error) {
	txID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tx, err := c.escrowFor(track).Transact(withContext(auth, ctx), "submitEvidence", txID, evidenceURI)
	if err != nil {
		return nil, fmt.Errorf("failed to submit evidence: %w", err)
	}
	return c.handle(tx), nil
}

// CreateNative opens a native-track escrow with the amount attached as call
// value.
func (c *Client) CreateNative(ctx context.Context, auth *bind.TransactOpts, timeout *big.Int, receiver common.Address, metaURI string, value *big.Int) (escrow.TxHandle, error) {
	tx, err := c.nativeEscrow.Transact(withContext(withValue(auth, value), ctx), "createTransaction", timeout, receiver, metaURI)
	if err != nil {
		return nil, fmt.Errorf("failed to submit createTransaction: %w", err)
	}
	return c.handle(tx), nil
}

// CreateToken opens a token-track escrow. Gas is not estimable on this path,
// so an explicit ceiling is set.
func (c *Client) CreateToken(ctx context.Context, auth *bind.TransactOpts, amount *big.Int, token common.Address, timeout *big.Int, receiver common.Address, metaURI string) (escrow.TxHandle, error) {
	opts := *auth
	opts.GasLimit = c.Opts.TokenCreateGasLimit
	tx, err := c.tokenEscrow.Transact(withContext(&opts, ctx), "createTransaction", amount, token, timeout, receiver, metaURI)
	if err != nil {
		return nil, fmt.Errorf("failed to submit token createTransaction: %w", err)
	}
	return c.handle(tx), nil
}

// Approve grants the token escrow contract spending rights for amount.
func (c *Client) Approve(ctx context.Context, auth *bind.TransactOpts, token common.Address, amount *big.Int) (escrow.TxHandle, error) {
	tx, err := c.erc20(token).Transact(withContext(auth, ctx), "approve", c.Opts.TokenEscrowAddress, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to submit approve: %w", err)
	}
	return c.handle(tx), nil
}

func withContext(auth *bind.TransactOpts, ctx context.Context) *bind.TransactOpts {
	opts := *auth
	opts.Context = ctx
	return &opts
}
