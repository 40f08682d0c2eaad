package wire

import (
	"encoding/json"
	"fmt"
)

// TransactionHeader carries a transaction's expiration/reference-block/
// resource-budget fields (shipper_types.rs: TransactionHeader).
type TransactionHeader struct {
	Expiration       string `json:"expiration"`
	RefBlockNum      uint16 `json:"ref_block_num"`
	RefBlockPrefix   uint32 `json:"ref_block_prefix"`
	MaxNetUsageWords uint32 `json:"max_net_usage_words"`
	MaxCPUUsageMS    uint8  `json:"max_cpu_usage_ms"`
	DelaySec         uint32 `json:"delay_sec"`
}

// Transaction is a full, unpacked transaction body.
type Transaction struct {
	TransactionHeader
	ContextFreeActions    []Action    `json:"context_free_actions"`
	Actions               []Action    `json:"actions"`
	TransactionExtensions []Extension `json:"transaction_extensions"`
}

// DecodeTransaction parses the canonical JSON text for the "transaction"
// schema type, as produced by the codec when unpacking a packed_trx.
func DecodeTransaction(data []byte) (*Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("wire: decode transaction: %w", err)
	}
	return &t, nil
}

// ContextFreeSegmentVariant is the sum of context-free segment encodings
// carried by prunable_data_partial (shipper_types.rs: ContextFreeSegmentType).
type ContextFreeSegmentVariant interface {
	isContextFreeSegment()
}

// SegmentSignature is a context-free segment present as a signature (the
// segment's hash was pruned, its signature kept).
type SegmentSignature struct {
	Signature string `json:"-"`
}

func (*SegmentSignature) isContextFreeSegment() {}

func (s SegmentSignature) MarshalJSON() ([]byte, error) {
	return encodeTagged("signature", s.Signature)
}

func (s *SegmentSignature) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.Signature)
}

// SegmentBytes is a context-free segment present as its raw bytes (hex).
type SegmentBytes struct {
	Bytes string `json:"-"`
}

func (*SegmentBytes) isContextFreeSegment() {}

func (s SegmentBytes) MarshalJSON() ([]byte, error) {
	return encodeTagged("bytes", s.Bytes)
}

func (s *SegmentBytes) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.Bytes)
}

var contextFreeSegmentRegistry = map[string]func() ContextFreeSegmentVariant{
	"signature": func() ContextFreeSegmentVariant { return &SegmentSignature{} },
	"bytes":     func() ContextFreeSegmentVariant { return &SegmentBytes{} },
}

// DecodeContextFreeSegment decodes one tagged context-free segment.
func DecodeContextFreeSegment(data []byte) (ContextFreeSegmentVariant, error) {
	return decodeVariant("ContextFreeSegment", data, contextFreeSegmentRegistry)
}

// PrunableDataVariant is the sum of prunable-data encodings carried by a v1
// packed transaction (shipper_types.rs: PrunableData enum).
type PrunableDataVariant interface {
	isPrunableData()
}

// PrunableDataFullLegacy keeps the full legacy context-free data alongside
// signatures.
type PrunableDataFullLegacy struct {
	Signatures            []string `json:"signatures"`
	PackedContextFreeData string   `json:"packed_context_free_data"`
}

func (*PrunableDataFullLegacy) isPrunableData() {}

// PrunableDataNone records only the digest of the pruned data.
type PrunableDataNone struct {
	PrunableDigest string `json:"prunable_digest"`
}

func (*PrunableDataNone) isPrunableData() {}

// PrunableDataPartial keeps signatures plus a mix of pruned/unpruned
// context-free segments.
type PrunableDataPartial struct {
	Signatures           []string                    `json:"signatures"`
	ContextFreeSegments  []ContextFreeSegmentVariant `json:"context_free_segments"`
}

func (*PrunableDataPartial) isPrunableData() {}

// MarshalJSON handles the nested tagged-union slice by hand since Go cannot
// unmarshal directly into an interface slice.
func (p PrunableDataPartial) MarshalJSON() ([]byte, error) {
	type alias struct {
		Signatures          []string          `json:"signatures"`
		ContextFreeSegments []json.RawMessage `json:"context_free_segments"`
	}
	segs := make([]json.RawMessage, len(p.ContextFreeSegments))
	for i, s := range p.ContextFreeSegments {
		b, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		segs[i] = b
	}
	return json.Marshal(alias{Signatures: p.Signatures, ContextFreeSegments: segs})
}

func (p *PrunableDataPartial) UnmarshalJSON(data []byte) error {
	type alias struct {
		Signatures          []string          `json:"signatures"`
		ContextFreeSegments []json.RawMessage `json:"context_free_segments"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.Signatures = a.Signatures
	p.ContextFreeSegments = make([]ContextFreeSegmentVariant, len(a.ContextFreeSegments))
	for i, raw := range a.ContextFreeSegments {
		seg, err := DecodeContextFreeSegment(raw)
		if err != nil {
			return err
		}
		p.ContextFreeSegments[i] = seg
	}
	return nil
}

// PrunableDataFull keeps signatures and all context-free segments as raw
// hex strings (nothing pruned).
type PrunableDataFull struct {
	Signatures          []string `json:"signatures"`
	ContextFreeSegments []string `json:"context_free_segments"`
}

func (*PrunableDataFull) isPrunableData() {}

var prunableDataRegistry = map[string]func() PrunableDataVariant{
	"prunable_data_full_legacy": func() PrunableDataVariant { return &PrunableDataFullLegacy{} },
	"prunable_data_none":        func() PrunableDataVariant { return &PrunableDataNone{} },
	"prunable_data_partial":     func() PrunableDataVariant { return &PrunableDataPartial{} },
	"prunable_data_full":        func() PrunableDataVariant { return &PrunableDataFull{} },
}

// DecodePrunableData decodes one tagged prunable_data value.
func DecodePrunableData(data []byte) (PrunableDataVariant, error) {
	return decodeVariant("PrunableData", data, prunableDataRegistry)
}

// EncodePrunableData renders v as a canonical ["tag", payload] JSON array.
func EncodePrunableData(v PrunableDataVariant) ([]byte, error) {
	switch p := v.(type) {
	case *PrunableDataFullLegacy:
		return encodeTagged("prunable_data_full_legacy", p)
	case *PrunableDataNone:
		return encodeTagged("prunable_data_none", p)
	case *PrunableDataPartial:
		return encodeTagged("prunable_data_partial", p)
	case *PrunableDataFull:
		return encodeTagged("prunable_data_full", p)
	default:
		return nil, fmt.Errorf("wire: unknown prunable data type %T", v)
	}
}

// TransactionID is the degenerate transaction-variant form: only the id is
// known, the transaction body was not requested or was pruned away.
type TransactionID struct {
	TransactionID string `json:"transaction_id"`
}

// PackedTransactionV0 is the legacy packed transaction shape. Compression
// is the raw u8 wire code (0=none, 1=zlib); see enrich.InflateIfCompressed
// for the dispatch spec.md §4.3 Rule 4 names.
type PackedTransactionV0 struct {
	Signatures             []string `json:"signatures"`
	Compression            uint8    `json:"compression"`
	PackedContextFreeData  string   `json:"packed_context_free_data"`
	PackedTrx              string   `json:"packed_trx"`
}

// TransactionVariantV0 is the sum backing v0 transaction receipts: either
// just the id, or the id plus its packed transaction. Both the
// "packed_transaction" and "packed_transaction_v0" wire spellings decode to
// this type (spec.md §9); re-encoding always emits "packed_transaction_v0".
type TransactionVariantV0 struct {
	TransactionID string                `json:"transaction_id"`
	Packed        *PackedTransactionV0  `json:"-"`
}

func (*TransactionVariantV0) isTransactionV0() {}

// TransactionV0Variant is the marker interface for the V0 transaction sum.
type TransactionV0Variant interface {
	isTransactionV0()
}

func (t TransactionVariantV0) MarshalJSON() ([]byte, error) {
	if t.Packed == nil {
		return encodeTagged("transaction_id", TransactionID{TransactionID: t.TransactionID})
	}
	type payload struct {
		TransactionID string              `json:"transaction_id"`
		PackedTrx     PackedTransactionV0 `json:"packed_trx"`
	}
	return encodeTagged("packed_transaction_v0", payload{TransactionID: t.TransactionID, PackedTrx: *t.Packed})
}

func (t *TransactionVariantV0) UnmarshalJSON(data []byte) error {
	var arr [2]json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return &MalformedVariantError{Sum: "TransactionVariantV0", Err: err}
	}
	var tag string
	if err := json.Unmarshal(arr[0], &tag); err != nil {
		return &MalformedVariantError{Sum: "TransactionVariantV0", Err: err}
	}
	switch tag {
	case "transaction_id":
		var id TransactionID
		if err := json.Unmarshal(arr[1], &id); err != nil {
			return &MalformedVariantError{Sum: "TransactionVariantV0", Tag: tag, Err: err}
		}
		t.TransactionID = id.TransactionID
		t.Packed = nil
		return nil
	case "packed_transaction", "packed_transaction_v0":
		var payload struct {
			TransactionID string               `json:"transaction_id"`
			PackedTrx     PackedTransactionV0  `json:"packed_trx"`
		}
		if err := json.Unmarshal(arr[1], &payload); err != nil {
			return &MalformedVariantError{Sum: "TransactionVariantV0", Tag: tag, Err: err}
		}
		t.TransactionID = payload.TransactionID
		packed := payload.PackedTrx
		t.Packed = &packed
		return nil
	default:
		return &UnknownVariantError{Sum: "TransactionVariantV0", Tag: tag}
	}
}

// PackedTransactionV1 is the v1 packed transaction shape, carrying
// prunable_data instead of a flat signatures/context-free-data pair.
// Compression is the raw u8 wire code (0=none, 1=zlib); see
// enrich.InflateIfCompressed for the dispatch spec.md §4.3 Rule 4 names.
type PackedTransactionV1 struct {
	Compression   uint8               `json:"compression"`
	PrunableData  PrunableDataVariant `json:"-"`
	PackedTrx     string              `json:"packed_trx"`
}

func (p PackedTransactionV1) MarshalJSON() ([]byte, error) {
	prunable, err := EncodePrunableData(p.PrunableData)
	if err != nil {
		return nil, err
	}
	type alias struct {
		Compression  uint8           `json:"compression"`
		PrunableData json.RawMessage `json:"prunable_data"`
		PackedTrx    string          `json:"packed_trx"`
	}
	return json.Marshal(alias{Compression: p.Compression, PrunableData: prunable, PackedTrx: p.PackedTrx})
}

func (p *PackedTransactionV1) UnmarshalJSON(data []byte) error {
	type alias struct {
		Compression  uint8           `json:"compression"`
		PrunableData json.RawMessage `json:"prunable_data"`
		PackedTrx    string          `json:"packed_trx"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	prunable, err := DecodePrunableData(a.PrunableData)
	if err != nil {
		return err
	}
	p.Compression = a.Compression
	p.PrunableData = prunable
	p.PackedTrx = a.PackedTrx
	return nil
}

// TransactionVariantV1 is the v1 analog of TransactionVariantV0.
type TransactionVariantV1 struct {
	TransactionID string
	Packed        *PackedTransactionV1
}

func (t TransactionVariantV1) MarshalJSON() ([]byte, error) {
	if t.Packed == nil {
		return encodeTagged("transaction_id", TransactionID{TransactionID: t.TransactionID})
	}
	type payload struct {
		TransactionID string               `json:"transaction_id"`
		PackedTrx     PackedTransactionV1  `json:"packed_trx"`
	}
	return encodeTagged("packed_transaction_v1", payload{TransactionID: t.TransactionID, PackedTrx: *t.Packed})
}

func (t *TransactionVariantV1) UnmarshalJSON(data []byte) error {
	var arr [2]json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return &MalformedVariantError{Sum: "TransactionVariantV1", Err: err}
	}
	var tag string
	if err := json.Unmarshal(arr[0], &tag); err != nil {
		return &MalformedVariantError{Sum: "TransactionVariantV1", Err: err}
	}
	switch tag {
	case "transaction_id":
		var id TransactionID
		if err := json.Unmarshal(arr[1], &id); err != nil {
			return &MalformedVariantError{Sum: "TransactionVariantV1", Tag: tag, Err: err}
		}
		t.TransactionID = id.TransactionID
		t.Packed = nil
		return nil
	case "packed_transaction_v1":
		var payload struct {
			TransactionID string               `json:"transaction_id"`
			PackedTrx     PackedTransactionV1  `json:"packed_trx"`
		}
		if err := json.Unmarshal(arr[1], &payload); err != nil {
			return &MalformedVariantError{Sum: "TransactionVariantV1", Tag: tag, Err: err}
		}
		t.TransactionID = payload.TransactionID
		packed := payload.PackedTrx
		t.Packed = &packed
		return nil
	default:
		return &UnknownVariantError{Sum: "TransactionVariantV1", Tag: tag}
	}
}
