package ethereum

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/arbitrable-escrow/escrow-api/contracts"
	"github.com/arbitrable-escrow/escrow-api/types"
)

// Client is the ledger read/write collaborator: one RPC connection serving
// both escrow tracks, each bound to its own contract.
type Client struct {
	client       *ethclient.Client
	chainId      *big.Int
	nativeEscrow *bind.BoundContract
	tokenEscrow  *bind.BoundContract
	escrowABIs   map[types.Track]abi.ABI
	erc20ABI     abi.ABI
	arbABI       abi.ABI
	logger       *slog.Logger
	Opts         *ClientOpts
}

type ClientOpts struct {
	Endpoint            string
	NativeEscrowAddress common.Address
	TokenEscrowAddress  common.Address
	Logger              *slog.Logger
	Timeout             time.Duration
	// TokenCreateGasLimit is the explicit gas ceiling for the token-track
	// create call; that path does not estimate reliably.
	TokenCreateGasLimit uint64
}

const defaultTokenCreateGasLimit = 500_000

// NewClient returns a new escrow ledger client over HTTP.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TokenCreateGasLimit == 0 {
		opts.TokenCreateGasLimit = defaultTokenCreateGasLimit
	}

	client, err := ethclient.Dial(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum: %w", err)
	}

	nativeABI, err := abi.JSON(strings.NewReader(contracts.MultipleArbitrableTransactionABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse native escrow abi: %w", err)
	}
	tokenABI, err := abi.JSON(strings.NewReader(contracts.MultipleArbitrableTokenTransactionABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token escrow abi: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(contracts.ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	arbABI, err := abi.JSON(strings.NewReader(contracts.ArbitratorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse arbitrator abi: %w", err)
	}

	chainId, err := client.ChainID(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to get chainId: %w", err)
	}

	opts.Logger.Info("Connected to Ethereum", "chainId", chainId)

	c := &Client{
		client:       client,
		chainId:      chainId,
		nativeEscrow: bind.NewBoundContract(opts.NativeEscrowAddress, nativeABI, client, client, client),
		tokenEscrow:  bind.NewBoundContract(opts.TokenEscrowAddress, tokenABI, client, client, client),
		escrowABIs: map[types.Track]abi.ABI{
			types.TrackNative: nativeABI,
			types.TrackToken:  tokenABI,
		},
		erc20ABI: erc20ABI,
		arbABI:   arbABI,
		logger:   opts.Logger,
		Opts:     &opts,
	}

	// Warn user if the contracts are not found at the given addresses.
	if ok, _ := c.HasCode(context.TODO(), opts.NativeEscrowAddress); !ok {
		opts.Logger.Warn("contract not found for native escrow at given address", "address", opts.NativeEscrowAddress.Hex(), "endpoint", opts.Endpoint)
	}
	if ok, _ := c.HasCode(context.TODO(), opts.TokenEscrowAddress); !ok {
		opts.Logger.Warn("contract not found for token escrow at given address", "address", opts.TokenEscrowAddress.Hex(), "endpoint", opts.Endpoint)
	}

	return c, nil
}

func (c *Client) ChainID() *big.Int { return c.chainId }

// EscrowAddress returns the escrow contract address serving the track.
func (c *Client) EscrowAddress(track types.Track) common.Address {
	if track == types.TrackToken {
		return c.Opts.TokenEscrowAddress
	}
	return c.Opts.NativeEscrowAddress
}

func (c *Client) escrowFor(track types.Track) *bind.BoundContract {
	if track == types.TrackToken {
		return c.tokenEscrow
	}
	return c.nativeEscrow
}

// HasCode reports whether any contract code is deployed at the address.
func (c *Client) HasCode(ctx context.Context, address common.Address) (bool, error) {
	code, err := c.client.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get code at %s: %w", address.Hex(), err)
	}
	return len(code) > 0, nil
}

// TransactionFields reads the transactions(uint256) getter of the track's
// escrow contract. Amounts are returned as integer strings.
func (c *Client) TransactionFields(ctx context.Context, id string, track types.Track) (types.TransactionFields, error) {
	txID, err := parseID(id)
	if err != nil {
		return types.TransactionFields{}, err
	}

	var out []interface{}
	if err := c.escrowFor(track).Call(&bind.CallOpts{Context: ctx}, &out, "transactions", txID); err != nil {
		return types.TransactionFields{}, fmt.Errorf("failed to read transaction %s: %w", id, err)
	}

	// Native layout: sender, receiver, amount, timeoutPayment, disputeId,
	// senderFee, receiverFee, lastInteraction, status. The token layout has
	// the token address inserted after amount.
	fields := types.TransactionFields{
		Sender:          out[0].(common.Address).Hex(),
		Receiver:        out[1].(common.Address).Hex(),
		RemainingAmount: out[2].(*big.Int).String(),
	}
	offset := 0
	if track == types.TrackToken {
		fields.TokenAddress = out[3].(common.Address).Hex()
		offset = 1
	}
	fields.TimeoutPayment = out[3+offset].(*big.Int).Uint64()
	fields.LastInteraction = out[7+offset].(*big.Int).Uint64()
	fields.StatusCode = int(out[8+offset].(uint8))

	return fields, nil
}

// ArbitrationCost quotes the current fee from the arbitrator the track's
// escrow contract points at.
func (c *Client) ArbitrationCost(ctx context.Context, track types.Track) (*big.Int, error) {
	escrow := c.escrowFor(track)
	callOpts := &bind.CallOpts{Context: ctx}

	var out []interface{}
	if err := escrow.Call(callOpts, &out, "arbitrator"); err != nil {
		return nil, fmt.Errorf("failed to read arbitrator address: %w", err)
	}
	arbitratorAddr := out[0].(common.Address)

	out = nil
	if err := escrow.Call(callOpts, &out, "arbitratorExtraData"); err != nil {
		return nil, fmt.Errorf("failed to read arbitrator extra data: %w", err)
	}
	extraData := out[0].([]byte)

	arbitrator := bind.NewBoundContract(arbitratorAddr, c.arbABI, c.client, c.client, c.client)
	out = nil
	if err := arbitrator.Call(callOpts, &out, "arbitrationCost", extraData); err != nil {
		return nil, fmt.Errorf("failed to read arbitration cost: %w", err)
	}
	return out[0].(*big.Int), nil
}

func (c *Client) erc20(token common.Address) *bind.BoundContract {
	return bind.NewBoundContract(token, c.erc20ABI, c.client, c.client, c.client)
}

// BalanceOf reads the owner's balance on an ERC20 token.
func (c *Client) BalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.erc20(token).Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, fmt.Errorf("failed to read balance of %s: %w", owner.Hex(), err)
	}
	return out[0].(*big.Int), nil
}

// Allowance reads how much the token escrow contract may spend for owner.
func (c *Client) Allowance(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.erc20(token).Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, c.Opts.TokenEscrowAddress); err != nil {
		return nil, fmt.Errorf("failed to read allowance of %s: %w", owner.Hex(), err)
	}
	return out[0].(*big.Int), nil
}

func parseID(id string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(id, 10)
	if !ok {
		return nil, fmt.Errorf("malformed transaction id %q: %w", id, types.ErrValidation)
	}
	return n, nil
}
