// Package wire implements the typed wire model for the EOSIO state-history
// protocol: the tagged-sum types exchanged once the schema capability (see
// internal/codec) has turned raw bytes into canonical JSON text.
//
// Every EOSIO "variant" (a two-element [tag, payload] array) is modeled here
// as a small sealed interface: an unexported marker method satisfied only by
// the types declared in this package, so a Request can never be passed where
// a Result is expected.
// A discriminator table next to each sum maps tag strings to constructors.
package wire

import (
	"encoding/json"
	"fmt"
)

// UnknownVariantError is returned when a tagged sum's discriminator does not
// appear in that sum's registry.
type UnknownVariantError struct {
	Sum string
	Tag string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("wire: unknown %s variant %q", e.Sum, e.Tag)
}

// MalformedVariantError wraps a JSON error encountered while decoding a
// tagged sum's envelope or payload.
type MalformedVariantError struct {
	Sum string
	Tag string // empty if the envelope itself could not be parsed
	Err error
}

func (e *MalformedVariantError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("wire: malformed %s envelope: %v", e.Sum, e.Err)
	}
	return fmt.Sprintf("wire: malformed %s/%s payload: %v", e.Sum, e.Tag, e.Err)
}

func (e *MalformedVariantError) Unwrap() error { return e.Err }

// decodeVariant decodes a canonical ["tag", payload] JSON array into the
// concrete type registered under that tag, dispatching through registry.
// T is the sum's marker interface (Request, Result, SignedBlockVariant, ...).
func decodeVariant[T any](sum string, data []byte, registry map[string]func() T) (T, error) {
	var zero T
	var arr [2]json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return zero, &MalformedVariantError{Sum: sum, Err: err}
	}
	var tag string
	if err := json.Unmarshal(arr[0], &tag); err != nil {
		return zero, &MalformedVariantError{Sum: sum, Err: err}
	}
	ctor, ok := registry[tag]
	if !ok {
		return zero, &UnknownVariantError{Sum: sum, Tag: tag}
	}
	v := ctor()
	if err := json.Unmarshal(arr[1], v); err != nil {
		return zero, &MalformedVariantError{Sum: sum, Tag: tag, Err: err}
	}
	return v, nil
}

// encodeTagged marshals payload and wraps it with tag into the canonical
// ["tag", payload] two-element array form.
func encodeTagged(tag string, payload interface{}) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %q payload: %w", tag, err)
	}
	t, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}
	return json.Marshal([2]json.RawMessage{t, p})
}
