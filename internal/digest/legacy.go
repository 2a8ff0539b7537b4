package digest

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type legacyField struct {
	Type  string          `json:"type"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// legacyEncoder implements V1: a flat list of {type, name, value}.
//
//	digest = keccak256(keccak256(packed("type name"...)) || keccak256(packed(value...)))
type legacyEncoder struct{}

func (legacyEncoder) digest(data json.RawMessage) (common.Hash, error) {
	var fields []legacyField
	if err := json.Unmarshal(data, &fields); err != nil {
		return common.Hash{}, schemaErr("$", "V1 typed data must be an array of {type, name, value}")
	}
	if len(fields) == 0 {
		return common.Hash{}, schemaErr("$", "V1 typed data must not be empty")
	}

	var schema, values []byte
	for i, f := range fields {
		if f.Name == "" {
			return common.Hash{}, schemaErr(fmt.Sprintf("[%d].name", i), "missing field name")
		}
		path := fmt.Sprintf("[%d].%s", i, f.Name)
		switch {
		case f.Type == "":
			return common.Hash{}, schemaErr(path, "missing field type")
		case isArrayType(f.Type):
			return common.Hash{}, schemaErr(path, "array type %q is not supported by V1, use V4", f.Type)
		case !isAtomicType(f.Type):
			return common.Hash{}, schemaErr(path, "type %q needs struct hashing, which V1 does not support; use V3 or V4", f.Type)
		}
		if isNull(f.Value) {
			return common.Hash{}, schemaErr(path, "missing value")
		}
		packed, err := packAtomic(f.Type, f.Value)
		if err != nil {
			return common.Hash{}, schemaErr(path, "%v", err)
		}
		schema = append(schema, f.Type+" "+f.Name...)
		values = append(values, packed...)
	}
	return crypto.Keccak256Hash(crypto.Keccak256(schema), crypto.Keccak256(values)), nil
}
