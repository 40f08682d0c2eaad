// Package enrich implements the Result Enricher (RE): it takes a raw
// wire.Result fresh off the session's ingress loop and lazily decodes its
// hex sub-payloads (traces, deltas, a v0 block) into typed values, using
// the codec to turn each sub-payload's hex bytes into canonical JSON and
// internal/wire to parse that JSON into the typed sum. Decode failures are
// non-fatal and degrade to a DecodeWarning rather than aborting the whole
// result: one bad row or packed transaction costs only that item, while
// the traces (or deltas) payload is decoded as one array, so a failure
// there leaves that whole list empty with a single warning.
package enrich

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"io"

	"eos-shipper/internal/codec"
	"eos-shipper/internal/wire"
)

// DecodeWarning records a non-fatal failure to decode one sub-payload
// (a single trace, row, or the block itself) within an otherwise-usable
// result.
type DecodeWarning struct {
	Context string // e.g. "traces", "deltas[1].rows[0]", "transactions[2]", "block"
	Err     error
}

func (w DecodeWarning) Error() string {
	return fmt.Sprintf("enrich: %s: %v", w.Context, w.Err)
}

func (w DecodeWarning) Unwrap() error { return w.Err }

// RichRow is a table delta row with its data decoded to a typed wire.RowType
// rather than left as a hex string.
type RichRow struct {
	Present bool
	Data    wire.RowType
}

// RichTableDelta is a table_delta_v0 with every present row decoded.
type RichTableDelta struct {
	Name string
	Rows []RichRow
}

// RichResult is the enriched form of a wire.Result: the status branch
// passes through unchanged, and the blocks branches carry decoded
// block/traces/deltas alongside any warnings accumulated while decoding
// them.
type RichResult struct {
	Status *wire.StatusResultV0

	Head             wire.BlockPosition
	LastIrreversible wire.BlockPosition
	ThisBlock        *wire.BlockPosition
	PrevBlock        *wire.BlockPosition
	Block            *wire.SignedBlockV0 // set for a signed_block_v0 (from either result version)
	BlockV1          *wire.SignedBlockV1 // set instead of Block for a signed_block_v1
	Traces           []wire.TraceVariant
	Deltas           []RichTableDelta

	// Transactions holds the unpacked body for each entry in Block's (or
	// BlockV1's) Transactions receipts, aligned by index. A nil entry
	// means the receipt only carried a transaction_id (spec.md §4.3 Rule
	// 4); a failed unpack degrades to a nil entry plus a Warnings entry
	// rather than failing the whole result (spec.md §8 invariant 3).
	Transactions []*wire.Transaction

	Warnings []DecodeWarning
}

// IsBlocksResult reports whether this RichResult originated from a
// get_blocks_result_v0/v1 (as opposed to a status result).
func (r *RichResult) IsBlocksResult() bool { return r.Status == nil }

// Enrich decodes raw into a RichResult using c to translate hex
// sub-payloads into canonical JSON. contract names the schema contract
// bound to c (normally the same contract the session bound the codec
// with).
func Enrich(c *codec.Codec, contract string, raw wire.Result) (*RichResult, error) {
	switch v := raw.(type) {
	case *wire.StatusResultV0:
		return &RichResult{Status: v}, nil
	case *wire.BlocksResultV0:
		return enrichV0(c, contract, v)
	case *wire.BlocksResultV1:
		return enrichV1(c, contract, v)
	default:
		return nil, fmt.Errorf("enrich: unknown result type %T", raw)
	}
}

func enrichV0(c *codec.Codec, contract string, v *wire.BlocksResultV0) (*RichResult, error) {
	rr := &RichResult{
		Head:             v.Head,
		LastIrreversible: v.LastIrreversible,
		ThisBlock:        v.ThisBlock,
		PrevBlock:        v.PrevBlock,
	}

	if v.Block != nil {
		block, warn := decodeBlockV0(c, contract, *v.Block)
		if warn != nil {
			rr.Warnings = append(rr.Warnings, *warn)
		} else {
			rr.Block = block
			trxs, warnings := decodeTransactionsV0(c, contract, block.Transactions)
			rr.Transactions = trxs
			rr.Warnings = append(rr.Warnings, warnings...)
		}
	}
	if v.Traces != nil {
		traces, warnings := decodeTraces(c, contract, *v.Traces)
		rr.Traces = traces
		rr.Warnings = append(rr.Warnings, warnings...)
	}
	if v.Deltas != nil {
		deltas, warnings := decodeDeltas(c, contract, *v.Deltas)
		rr.Deltas = deltas
		rr.Warnings = append(rr.Warnings, warnings...)
	}
	return rr, nil
}

func enrichV1(c *codec.Codec, contract string, v *wire.BlocksResultV1) (*RichResult, error) {
	rr := &RichResult{
		Head:             v.Head,
		LastIrreversible: v.LastIrreversible,
		ThisBlock:        v.ThisBlock,
		PrevBlock:        v.PrevBlock,
	}
	if v.Block != nil {
		switch b := v.Block.Value.(type) {
		case *wire.SignedBlockV0:
			rr.Block = b
			trxs, warnings := decodeTransactionsV0(c, contract, b.Transactions)
			rr.Transactions = trxs
			rr.Warnings = append(rr.Warnings, warnings...)
		case *wire.SignedBlockV1:
			rr.BlockV1 = b
			trxs, warnings := decodeTransactionsV1(c, contract, b.Transactions)
			rr.Transactions = trxs
			rr.Warnings = append(rr.Warnings, warnings...)
		default:
			rr.Warnings = append(rr.Warnings, DecodeWarning{Context: "block", Err: fmt.Errorf("unknown signed block type %T", b)})
		}
	}
	if v.Traces != nil {
		traces, warnings := decodeTraces(c, contract, *v.Traces)
		rr.Traces = traces
		rr.Warnings = append(rr.Warnings, warnings...)
	}
	if v.Deltas != nil {
		deltas, warnings := decodeDeltas(c, contract, *v.Deltas)
		rr.Deltas = deltas
		rr.Warnings = append(rr.Warnings, warnings...)
	}
	return rr, nil
}

func decodeBlockV0(c *codec.Codec, contract, blockHex string) (*wire.SignedBlockV0, *DecodeWarning) {
	raw, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, &DecodeWarning{Context: "block", Err: err}
	}
	jsonText, err := c.Decode(contract, "signed_block", raw)
	if err != nil {
		return nil, &DecodeWarning{Context: "block", Err: err}
	}
	block, err := wire.DecodeSignedBlockV0Bytes(jsonText)
	if err != nil {
		return nil, &DecodeWarning{Context: "block", Err: err}
	}
	return block, nil
}

// decodeTransactionsV0 unpacks the Transaction body for each v0 receipt,
// aligned by index with receipts. A receipt carrying only a transaction_id
// (Trx.Packed == nil) produces a nil entry, not a warning: that is the
// expected shape when traces/block data were fetched without transactions
// requiring a full unpack (spec.md §4.3 Rule 4).
func decodeTransactionsV0(c *codec.Codec, contract string, receipts []wire.TransactionReceiptV0) ([]*wire.Transaction, []DecodeWarning) {
	if len(receipts) == 0 {
		return nil, nil
	}
	out := make([]*wire.Transaction, len(receipts))
	var warnings []DecodeWarning
	for i, receipt := range receipts {
		if receipt.Trx == nil || receipt.Trx.Packed == nil {
			continue
		}
		trx, err := decodePackedTransaction(c, contract, receipt.Trx.Packed.Compression, receipt.Trx.Packed.PackedTrx)
		if err != nil {
			warnings = append(warnings, DecodeWarning{Context: fmt.Sprintf("transactions[%d]", i), Err: err})
			continue
		}
		out[i] = trx
	}
	return out, warnings
}

// decodeTransactionsV1 is decodeTransactionsV0's analog for v1 receipts,
// whose packed transaction carries prunable_data instead of a flat
// signatures/context-free-data pair; packed_trx and compression sit at the
// same place in both shapes.
func decodeTransactionsV1(c *codec.Codec, contract string, receipts []wire.TransactionReceiptV1) ([]*wire.Transaction, []DecodeWarning) {
	if len(receipts) == 0 {
		return nil, nil
	}
	out := make([]*wire.Transaction, len(receipts))
	var warnings []DecodeWarning
	for i, receipt := range receipts {
		if receipt.Trx == nil || receipt.Trx.Packed == nil {
			continue
		}
		trx, err := decodePackedTransaction(c, contract, receipt.Trx.Packed.Compression, receipt.Trx.Packed.PackedTrx)
		if err != nil {
			warnings = append(warnings, DecodeWarning{Context: fmt.Sprintf("transactions[%d]", i), Err: err})
			continue
		}
		out[i] = trx
	}
	return out, warnings
}

// decodePackedTransaction inflates (if compressed) and ABI-decodes a single
// packed_trx hex string into its Transaction body.
func decodePackedTransaction(c *codec.Codec, contract string, compression uint8, packedTrxHex string) (*wire.Transaction, error) {
	packed, err := hex.DecodeString(packedTrxHex)
	if err != nil {
		return nil, err
	}
	raw, err := InflateIfCompressed(compression, packed)
	if err != nil {
		return nil, err
	}
	jsonText, err := c.Decode(contract, "transaction", raw)
	if err != nil {
		return nil, err
	}
	return wire.DecodeTransaction(jsonText)
}

func decodeTraces(c *codec.Codec, contract, tracesHex string) ([]wire.TraceVariant, []DecodeWarning) {
	raw, err := hex.DecodeString(tracesHex)
	if err != nil {
		return nil, []DecodeWarning{{Context: "traces", Err: err}}
	}
	jsonText, err := c.Decode(contract, "transaction_trace[]", raw)
	if err != nil {
		return nil, []DecodeWarning{{Context: "traces", Err: err}}
	}
	traces, err := wire.DecodeTraces(jsonText)
	if err != nil {
		return nil, []DecodeWarning{{Context: "traces", Err: err}}
	}
	return traces, nil
}

func decodeDeltas(c *codec.Codec, contract, deltasHex string) ([]RichTableDelta, []DecodeWarning) {
	raw, err := hex.DecodeString(deltasHex)
	if err != nil {
		return nil, []DecodeWarning{{Context: "deltas", Err: err}}
	}
	jsonText, err := c.Decode(contract, "table_delta[]", raw)
	if err != nil {
		return nil, []DecodeWarning{{Context: "deltas", Err: err}}
	}
	rawDeltas, err := wire.DecodeTableDeltas(jsonText)
	if err != nil {
		return nil, []DecodeWarning{{Context: "deltas", Err: err}}
	}

	var out []RichTableDelta
	var warnings []DecodeWarning
	for i, d := range rawDeltas {
		v0, ok := d.(*wire.TableDeltaV0)
		if !ok {
			warnings = append(warnings, DecodeWarning{Context: fmt.Sprintf("deltas[%d]", i), Err: fmt.Errorf("unknown table delta type %T", d)})
			continue
		}
		rich := RichTableDelta{Name: v0.Name}
		for j, row := range v0.Rows {
			if !row.Present {
				rich.Rows = append(rich.Rows, RichRow{Present: false})
				continue
			}
			rowBytes, err := hex.DecodeString(row.Data)
			if err != nil {
				warnings = append(warnings, DecodeWarning{Context: fmt.Sprintf("deltas[%d].rows[%d]", i, j), Err: err})
				rich.Rows = append(rich.Rows, RichRow{Present: true, Data: &wire.Other{Tag: v0.Name, JSON: nil}})
				continue
			}
			rowJSON, err := c.Decode(contract, v0.Name, rowBytes)
			if err != nil {
				warnings = append(warnings, DecodeWarning{Context: fmt.Sprintf("deltas[%d].rows[%d]", i, j), Err: err})
				rich.Rows = append(rich.Rows, RichRow{Present: true, Data: &wire.Other{Tag: v0.Name, JSON: nil}})
				continue
			}
			rowType, err := wire.DecodeTableRow(v0.Name, rowJSON)
			if err != nil {
				warnings = append(warnings, DecodeWarning{Context: fmt.Sprintf("deltas[%d].rows[%d]", i, j), Err: err})
				rich.Rows = append(rich.Rows, RichRow{Present: true, Data: &wire.Other{Tag: v0.Name, JSON: rowJSON}})
				continue
			}
			rich.Rows = append(rich.Rows, RichRow{Present: true, Data: rowType})
		}
		out = append(out, rich)
	}
	return out, warnings
}

// InflateIfCompressed decompresses packedTrx if compression is the zlib
// wire code, returning it unchanged for the none code. compression is the
// raw u8 from PackedTransactionV0/V1.Compression (0=none, 1=zlib; spec.md's
// Key Records table), grounded on the same packed-transaction handling the
// original implementation leaves to its caller.
func InflateIfCompressed(compression uint8, packedTrx []byte) ([]byte, error) {
	switch compression {
	case 0:
		return packedTrx, nil
	case 1:
		r, err := zlib.NewReader(bytes.NewReader(packedTrx))
		if err != nil {
			return nil, fmt.Errorf("enrich: zlib reader: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("enrich: zlib inflate: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("enrich: unknown compression code %d", compression)
	}
}
