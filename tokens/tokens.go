package tokens

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arbitrable-escrow/escrow-api/types"
)

// Token describes one asset the escrow contracts can hold.
type Token struct {
	Name     string
	Symbol   string
	Address  common.Address
	Decimals int
	Native   bool
}

// Descriptor returns the token block embedded in transaction metadata
// records. The address is nil for the native asset.
func (t Token) Descriptor() types.TokenDescriptor {
	d := types.TokenDescriptor{
		Name:     t.Name,
		Ticker:   t.Symbol,
		Decimals: t.Decimals,
	}
	if !t.Native {
		addr := t.Address.Hex()
		d.Address = &addr
	}
	return d
}

// Info returns the display metadata carried on token-track aggregates.
func (t Token) Info() types.TokenInfo {
	return types.TokenInfo{
		Name:     t.Name,
		Symbol:   t.Symbol,
		Address:  t.Address.Hex(),
		Decimals: t.Decimals,
	}
}

// mainnetTokens is the static allow-list. The zero address stands in for the
// native asset.
var mainnetTokens = []Token{
	{Name: "Ethereum", Symbol: "ETH", Address: common.Address{}, Decimals: 18, Native: true},
	{Name: "USD Coin", Symbol: "USDC", Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},
	{Name: "Dai Stablecoin", Symbol: "DAI", Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18},
	{Name: "Tether USD", Symbol: "USDT", Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},
	{Name: "Wrapped Bitcoin", Symbol: "WBTC", Address: common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), Decimals: 8},
	{Name: "Wrapped Ether", Symbol: "WETH", Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18},
	{Name: "Pinakion", Symbol: "PNK", Address: common.HexToAddress("0x93ED3FBe21207Ec2E8f2d3c3de6e058Cb73Bc04d"), Decimals: 18},
}

// Registry is the immutable asset table, set once at startup and shared
// process-wide.
type Registry struct {
	list      []Token
	byAddress map[common.Address]Token
	bySymbol  map[string]Token
}

// NewRegistry builds a registry from a token list. An empty list falls back
// to the mainnet defaults.
func NewRegistry(list []Token) *Registry {
	if len(list) == 0 {
		list = mainnetTokens
	}
	r := &Registry{
		list:      list,
		byAddress: make(map[common.Address]Token, len(list)),
		bySymbol:  make(map[string]Token, len(list)),
	}
	for _, t := range list {
		r.byAddress[t.Address] = t
		r.bySymbol[strings.ToUpper(t.Symbol)] = t
	}
	return r
}

// All returns every registered token.
func (r *Registry) All() []Token {
	out := make([]Token, len(r.list))
	copy(out, r.list)
	return out
}

// ByAddress looks a token up by contract address.
func (r *Registry) ByAddress(address common.Address) (Token, bool) {
	t, ok := r.byAddress[address]
	return t, ok
}

// BySymbol looks a token up by ticker, case-insensitively.
func (r *Registry) BySymbol(symbol string) (Token, bool) {
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// Default returns the native asset.
func (r *Registry) Default() Token {
	for _, t := range r.list {
		if t.Native {
			return t
		}
	}
	return r.list[0]
}

// Allowed reports whether the address is on the registry's allow-list.
func (r *Registry) Allowed(address common.Address) bool {
	_, ok := r.byAddress[address]
	return ok
}
