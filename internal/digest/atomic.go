package digest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// Solidity atomic types shared by every typed-data version.

func isArrayType(typ string) bool {
	return strings.HasSuffix(typ, "]")
}

// baseType strips every array suffix: "Person[][2]" -> "Person".
func baseType(typ string) string {
	if i := strings.Index(typ, "["); i >= 0 {
		return typ[:i]
	}
	return typ
}

// intType parses uintN / intN. A bare "uint" or "int" is 256 bits.
func intType(typ string) (bits int, signed bool, ok bool) {
	rest := typ
	switch {
	case strings.HasPrefix(typ, "uint"):
		rest = typ[4:]
	case strings.HasPrefix(typ, "int"):
		rest, signed = typ[3:], true
	default:
		return 0, false, false
	}
	if rest == "" {
		return 256, signed, true
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return 0, false, false
	}
	return n, signed, true
}

// fixedBytesType parses bytes1..bytes32.
func fixedBytesType(typ string) (int, bool) {
	if !strings.HasPrefix(typ, "bytes") || typ == "bytes" {
		return 0, false
	}
	n, err := strconv.Atoi(typ[5:])
	if err != nil || n < 1 || n > 32 {
		return 0, false
	}
	return n, true
}

func isAtomicType(typ string) bool {
	switch typ {
	case "string", "bytes", "bool", "address":
		return true
	}
	if _, ok := fixedBytesType(typ); ok {
		return true
	}
	_, _, ok := intType(typ)
	return ok
}

func parseString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("expected a string")
	}
	return s, nil
}

// parseBytes accepts a 0x-prefixed hex string as raw bytes and any other string as UTF-8.
func parseBytes(raw json.RawMessage) ([]byte, error) {
	s, err := parseString(raw)
	if err != nil {
		return nil, err
	}
	if has0xPrefix(s) {
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes: %v", err)
		}
		return b, nil
	}
	return []byte(s), nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func parseBool(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, errors.New("expected a boolean")
	}
	return b, nil
}

func parseAddress(raw json.RawMessage) (common.Address, error) {
	s, err := parseString(raw)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseInteger accepts a JSON integer, a decimal string or a 0x-hex string and
// checks the value fits the declared width.
func parseInteger(raw json.RawMessage, bits int, signed bool) (*big.Int, error) {
	var (
		v  *big.Int
		ok bool
	)
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		s, err := parseString(raw)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, errors.New("empty integer")
		}
		v, ok = math.ParseBig256(strings.TrimSpace(s))
	} else {
		v, ok = new(big.Int).SetString(string(raw), 10)
	}
	if !ok {
		return nil, fmt.Errorf("invalid integer %s", string(raw))
	}
	if signed {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("value %s overflows int%d", v, bits)
		}
	} else if v.Sign() < 0 || v.BitLen() > bits {
		return nil, fmt.Errorf("value %s overflows uint%d", v, bits)
	}
	return v, nil
}

// packAtomic is the tightly packed (abi.encodePacked) form of a non-array atomic value.
func packAtomic(typ string, raw json.RawMessage) ([]byte, error) {
	switch typ {
	case "string":
		s, err := parseString(raw)
		return []byte(s), err
	case "bytes":
		return parseBytes(raw)
	case "bool":
		b, err := parseBool(raw)
		if err != nil {
			return nil, err
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case "address":
		addr, err := parseAddress(raw)
		return addr.Bytes(), err
	}
	if size, ok := fixedBytesType(typ); ok {
		b, err := parseBytes(raw)
		if err != nil {
			return nil, err
		}
		if len(b) > size {
			return nil, fmt.Errorf("%d bytes do not fit %s", len(b), typ)
		}
		return common.RightPadBytes(b, size), nil
	}
	if bits, signed, ok := intType(typ); ok {
		v, err := parseInteger(raw, bits, signed)
		if err != nil {
			return nil, err
		}
		word := math.U256Bytes(new(big.Int).Set(v))
		return word[32-bits/8:], nil
	}
	return nil, fmt.Errorf("unknown type %q", typ)
}

// encodeAtomic is the 32-byte EIP-712 encoding of a non-array atomic value.
// Dynamic types (string, bytes) are replaced by their Keccak256 hash.
func encodeAtomic(typ string, raw json.RawMessage) ([]byte, error) {
	switch typ {
	case "string", "bytes":
		b, err := packAtomic(typ, raw)
		if err != nil {
			return nil, err
		}
		return crypto.Keccak256(b), nil
	case "bool", "address":
		b, err := packAtomic(typ, raw)
		if err != nil {
			return nil, err
		}
		return common.LeftPadBytes(b, 32), nil
	}
	if _, ok := fixedBytesType(typ); ok {
		b, err := packAtomic(typ, raw)
		if err != nil {
			return nil, err
		}
		return common.RightPadBytes(b, 32), nil
	}
	if bits, signed, ok := intType(typ); ok {
		v, err := parseInteger(raw, bits, signed)
		if err != nil {
			return nil, err
		}
		return math.U256Bytes(new(big.Int).Set(v)), nil
	}
	return nil, fmt.Errorf("unknown type %q", typ)
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
