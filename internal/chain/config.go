// Package chain names the EVM chains a typed-data domain may be pinned to.
package chain

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

// Chain describes an EVM chain by its EIP-155 id.
type Chain struct {
	Name      string
	ChainID   *big.Int
	IsTestnet bool
}

// KnownChains returns the named chains accepted by Resolve.
func KnownChains() map[string]*Chain {
	return map[string]*Chain{
		"ethereum":     {Name: "Ethereum Mainnet", ChainID: big.NewInt(1)},
		"base":         {Name: "Base", ChainID: big.NewInt(8453)},
		"arbitrum":     {Name: "Arbitrum One", ChainID: big.NewInt(42161)},
		"optimism":     {Name: "Optimism", ChainID: big.NewInt(10)},
		"polygon":      {Name: "Polygon", ChainID: big.NewInt(137)},
		"sepolia":      {Name: "Sepolia Testnet", ChainID: big.NewInt(11155111), IsTestnet: true},
		"base-sepolia": {Name: "Base Sepolia Testnet", ChainID: big.NewInt(84532), IsTestnet: true},
	}
}

// Names lists the known chain keys in sorted order.
func Names() []string {
	chains := KnownChains()
	names := make([]string, 0, len(chains))
	for name := range chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a chain key ("base") or a literal id ("8453", "0x2105") to a chain id.
// An empty string resolves to nil: no chain pinned.
func Resolve(nameOrID string) (*big.Int, error) {
	s := strings.ToLower(strings.TrimSpace(nameOrID))
	if s == "" {
		return nil, nil
	}
	if c, ok := KnownChains()[s]; ok {
		return new(big.Int).Set(c.ChainID), nil
	}
	if id, ok := math.ParseBig256(s); ok && id.Sign() > 0 {
		return id, nil
	}
	return nil, fmt.Errorf("unknown chain %q (known: %s)", nameOrID, strings.Join(Names(), ", "))
}
