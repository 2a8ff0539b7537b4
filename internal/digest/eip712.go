package digest

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const domainType = "EIP712Domain"

// x19 keeps the encoding clear of RLP; x01 is the EIP-191 version byte for structured data.
var structuredPrefix = []byte{0x19, 0x01}

type field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type schema map[string][]field

type document struct {
	Types       schema                     `json:"types"`
	PrimaryType string                     `json:"primaryType"`
	Domain      map[string]json.RawMessage `json:"domain"`
	Message     map[string]json.RawMessage `json:"message"`
}

func parseDocument(data json.RawMessage) (*document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, schemaErr("$", "typed data must be an object with types, primaryType, domain and message")
	}
	if len(doc.Types) == 0 {
		return nil, schemaErr("types", "no types defined")
	}
	if doc.PrimaryType == "" {
		return nil, schemaErr("primaryType", "missing primary type")
	}
	if _, ok := doc.Types[doc.PrimaryType]; !ok {
		return nil, schemaErr("primaryType", "primary type %q is not defined", doc.PrimaryType)
	}
	if _, ok := doc.Types[domainType]; !ok {
		doc.Types[domainType] = []field{}
	}
	return &doc, nil
}

// check walks every type reachable from roots and rejects field types that
// are neither atomic nor defined. Arrays are rejected unless allowArrays is set.
func (s schema) check(allowArrays bool, roots ...string) error {
	seen := map[string]bool{}
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		for _, f := range s[name] {
			path := "types." + name + "." + f.Name
			if f.Name == "" {
				return schemaErr("types."+name, "field without a name")
			}
			if isArrayType(f.Type) && !allowArrays {
				return schemaErr(path, "array type %q is not supported by V3, use V4", f.Type)
			}
			base := baseType(f.Type)
			if _, ok := s[base]; ok {
				queue = append(queue, base)
				continue
			}
			if !isAtomicType(base) {
				return schemaErr(path, "undefined type %q", f.Type)
			}
		}
	}
	return nil
}

// dependencies lists target first, then every struct it references in alphabetical order.
func (s schema) dependencies(target string) []string {
	found := map[string]bool{target: true}
	queue := []string{target}
	var deps []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, f := range s[current] {
			base := baseType(f.Type)
			if _, defined := s[base]; defined && !found[base] {
				found[base] = true
				queue = append(queue, base)
				deps = append(deps, base)
			}
		}
	}
	sort.Strings(deps)
	return append([]string{target}, deps...)
}

// encodeType renders e.g. "Mail(Person from,Person to,string contents)Person(string name,address wallet)".
func (s schema) encodeType(target string) string {
	var b bytes.Buffer
	for _, dep := range s.dependencies(target) {
		b.WriteString(dep)
		b.WriteString("(")
		for i, f := range s[dep] {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(f.Type)
			b.WriteString(" ")
			b.WriteString(f.Name)
		}
		b.WriteString(")")
	}
	return b.String()
}

func (s schema) typeHash(target string) []byte {
	return crypto.Keccak256([]byte(s.encodeType(target)))
}

// eip712Encoder implements V3. Fields absent from the data are left out of the
// encoding and arrays are rejected.
type eip712Encoder struct{}

func (eip712Encoder) digest(data json.RawMessage) (common.Hash, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return common.Hash{}, err
	}
	if err := doc.Types.check(false, domainType, doc.PrimaryType); err != nil {
		return common.Hash{}, err
	}
	domain, err := doc.Types.hashStruct(domainType, doc.Domain, "domain")
	if err != nil {
		return common.Hash{}, err
	}
	if doc.PrimaryType == domainType {
		return crypto.Keccak256Hash(structuredPrefix, domain), nil
	}
	message, err := doc.Types.hashStruct(doc.PrimaryType, doc.Message, "message")
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(structuredPrefix, domain, message), nil
}

func (s schema) hashStruct(name string, data map[string]json.RawMessage, path string) ([]byte, error) {
	buf := bytes.NewBuffer(s.typeHash(name))
	for _, f := range s[name] {
		raw, present := data[f.Name]
		if !present || isNull(raw) {
			continue
		}
		fieldPath := path + "." + f.Name
		var (
			word []byte
			err  error
		)
		if _, isStruct := s[f.Type]; isStruct {
			var nested map[string]json.RawMessage
			if jerr := json.Unmarshal(raw, &nested); jerr != nil {
				return nil, schemaErr(fieldPath, "expected an object of type %s", f.Type)
			}
			word, err = s.hashStruct(f.Type, nested, fieldPath)
			if err != nil {
				return nil, err
			}
		} else {
			word, err = encodeAtomic(f.Type, raw)
			if err != nil {
				return nil, schemaErr(fieldPath, "%v", err)
			}
		}
		buf.Write(word)
	}
	return crypto.Keccak256(buf.Bytes()), nil
}
