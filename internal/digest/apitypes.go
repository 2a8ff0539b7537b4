package digest

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// apitypesEncoder implements V4 on go-ethereum's EIP-712 encoder. The local
// schema walk runs first so undefined types are reported with a field path.
type apitypesEncoder struct{}

func (apitypesEncoder) digest(data json.RawMessage) (common.Hash, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return common.Hash{}, err
	}
	if err := doc.Types.check(true, domainType, doc.PrimaryType); err != nil {
		return common.Hash{}, err
	}

	var typed apitypes.TypedData
	if err := json.Unmarshal(data, &typed); err != nil {
		return common.Hash{}, schemaErr("$", "%v", err)
	}
	if _, ok := typed.Types[domainType]; !ok {
		typed.Types[domainType] = []apitypes.Type{}
	}

	domain, err := typed.HashStruct(domainType, typed.Domain.Map())
	if err != nil {
		return common.Hash{}, schemaErr("domain", "%v", err)
	}
	if typed.PrimaryType == domainType {
		return crypto.Keccak256Hash(structuredPrefix, domain), nil
	}
	message, err := typed.HashStruct(typed.PrimaryType, typed.Message)
	if err != nil {
		return common.Hash{}, schemaErr("message", "%v", err)
	}
	return crypto.Keccak256Hash(structuredPrefix, domain, message), nil
}
