// Package codec implements the Schema Capability (SC): the boundary
// between raw state-history bytes and the canonical JSON text that
// internal/wire parses into typed Go values.
//
// The capability is modeled as the Engine interface so that a real ABI
// binary codec could be substituted later without touching any other
// package; ReferenceEngine is the pure-Go implementation shipped with this
// module, sanctioned by spec.md §4.1 as a valid "pure reference codec" for
// exactly this boundary.
package codec

import (
	"fmt"
	"strings"
	"sync"
)

// Engine binds a schema document for a contract and returns a Binding that
// can encode/decode named schema types against it.
type Engine interface {
	Bind(contract, schemaText string) (Binding, error)
}

// Binding is a schema bound to one contract, ready to translate between
// wire bytes and canonical JSON text for named schema types
// ("get_blocks_result_v1", "transaction_trace[]", "signed_block", a
// specific contract row type name, ...).
type Binding interface {
	// EncodeJSON converts canonical JSON text for typeName into wire bytes.
	EncodeJSON(typeName string, jsonText []byte) ([]byte, error)
	// DecodeBinary converts wire bytes for typeName into canonical JSON text.
	DecodeBinary(typeName string, data []byte) ([]byte, error)
	// Destroy releases any resources (native or otherwise) held by the binding.
	Destroy()
}

// SchemaError reports a problem binding or parsing a schema document.
type SchemaError struct {
	Contract string
	Reason   string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("codec: schema error for contract %q: %s", e.Contract, e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// CodecError reports a problem encoding or decoding a specific schema type.
type CodecError struct {
	Contract string
	TypeName string
	Err      error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %s/%s: %v", e.Contract, e.TypeName, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// Codec wraps a Binding as a scoped, single-contract resource: constructed
// once per session from the server's handshake schema, used to translate
// every subsequent message, and destroyed exactly once on session exit.
type Codec struct {
	contract string
	binding  Binding

	mu        sync.Mutex
	destroyed bool
}

// New binds schemaText for contract using engine and returns the resulting
// Codec.
func New(engine Engine, contract, schemaText string) (*Codec, error) {
	if strings.TrimSpace(schemaText) == "" {
		return nil, &SchemaError{Contract: contract, Reason: "empty schema document"}
	}
	binding, err := engine.Bind(contract, schemaText)
	if err != nil {
		return nil, &SchemaError{Contract: contract, Reason: err.Error(), Err: err}
	}
	return &Codec{contract: contract, binding: binding}, nil
}

// Contract returns the contract name this codec was bound for.
func (c *Codec) Contract() string { return c.contract }

// Encode converts jsonText for typeName into wire bytes.
func (c *Codec) Encode(contract, typeName string, jsonText []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil, &CodecError{Contract: contract, TypeName: typeName, Err: fmt.Errorf("codec destroyed")}
	}
	if contract != c.contract {
		return nil, &CodecError{Contract: contract, TypeName: typeName, Err: fmt.Errorf("codec bound to contract %q", c.contract)}
	}
	b, err := c.binding.EncodeJSON(typeName, jsonText)
	if err != nil {
		return nil, &CodecError{Contract: contract, TypeName: typeName, Err: err}
	}
	return b, nil
}

// Decode converts wire bytes for typeName into canonical JSON text.
func (c *Codec) Decode(contract, typeName string, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil, &CodecError{Contract: contract, TypeName: typeName, Err: fmt.Errorf("codec destroyed")}
	}
	if contract != c.contract {
		return nil, &CodecError{Contract: contract, TypeName: typeName, Err: fmt.Errorf("codec bound to contract %q", c.contract)}
	}
	j, err := c.binding.DecodeBinary(typeName, data)
	if err != nil {
		return nil, &CodecError{Contract: contract, TypeName: typeName, Err: err}
	}
	return j, nil
}

// Destroy releases the underlying binding. Safe to call more than once;
// only the first call has effect. Every Session.Run exit path must call
// this exactly once (spec.md §4.1, §5).
func (c *Codec) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.binding.Destroy()
	c.destroyed = true
}
