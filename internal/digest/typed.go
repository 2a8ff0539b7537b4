package digest

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// encoder turns a typed-data payload into its signing digest.
type encoder interface {
	digest(data json.RawMessage) (common.Hash, error)
}

// strategies is closed: the encodings are versioned by external standards,
// not extended at runtime.
var strategies = map[Version]encoder{
	V1: legacyEncoder{},
	V3: eip712Encoder{},
	V4: apitypesEncoder{},
}

// TypedDataDigest hashes data with the encoding rules of version v.
// Structures the version cannot encode fail with *SchemaError.
func TypedDataDigest(data json.RawMessage, v Version) (common.Hash, error) {
	enc, ok := strategies[v]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, string(v))
	}
	if isNull(data) {
		return common.Hash{}, schemaErr("$", "typed data is empty")
	}
	return enc.digest(data)
}

// TypedDataChainID extracts domain.chainId from EIP-712 payloads (V3, V4).
// ok is false when the version has no domain or the domain has no chainId.
func TypedDataChainID(data json.RawMessage, v Version) (chainID *big.Int, ok bool, err error) {
	if v == V1 {
		return nil, false, nil
	}
	var doc struct {
		Domain map[string]json.RawMessage `json:"domain"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, schemaErr("$", "typed data must be a JSON object")
	}
	raw, present := doc.Domain["chainId"]
	if !present || isNull(raw) {
		return nil, false, nil
	}
	id, err := parseInteger(raw, 256, false)
	if err != nil {
		return nil, false, schemaErr("domain.chainId", "%v", err)
	}
	return id, true, nil
}
