package codec

import (
	"encoding/json"
	"fmt"
)

// ReferenceEngine is the pure-Go reference implementation of Engine.
// It does not implement a real binary EOSIO ABI codec; instead it treats
// the already-canonical JSON text as the wire bytes directly, which makes
// it fully round-trippable and dependency-free while still exercising
// every call site a real ABI binding would need to satisfy. It validates
// that the schema document itself is parseable JSON (an EOSIO ABI is a
// JSON document) and rejects malformed schemas with SchemaError, but does
// not otherwise interpret its contents — the wire package's discriminator
// tables are the source of truth for which types/fields are legal.
type ReferenceEngine struct{}

// NewReferenceEngine constructs a ReferenceEngine. It holds no state; the
// constructor exists for symmetry with engines that do.
func NewReferenceEngine() *ReferenceEngine { return &ReferenceEngine{} }

func (e *ReferenceEngine) Bind(contract, schemaText string) (Binding, error) {
	var probe interface{}
	if err := json.Unmarshal([]byte(schemaText), &probe); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	return &referenceBinding{contract: contract, schema: schemaText}, nil
}

type referenceBinding struct {
	contract string
	schema   string
}

func (b *referenceBinding) EncodeJSON(typeName string, jsonText []byte) ([]byte, error) {
	if !json.Valid(jsonText) {
		return nil, fmt.Errorf("%s: payload is not valid JSON", typeName)
	}
	out := make([]byte, len(jsonText))
	copy(out, jsonText)
	return out, nil
}

func (b *referenceBinding) DecodeBinary(typeName string, data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: wire bytes are not valid JSON (reference codec expects canonical JSON as its \"wire\" representation)", typeName)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *referenceBinding) Destroy() {}
