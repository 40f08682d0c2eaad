package wire

import "fmt"

// Result is the sum of messages a state-history server may send to a
// consumer (shipper_types.rs: ShipResults enum).
type Result interface {
	isResult()
}

// StatusResultV0 answers a StatusRequestV0: the server's current head,
// last-irreversible, and available trace/chain-state ranges.
type StatusResultV0 struct {
	Head                 BlockPosition `json:"head"`
	LastIrreversible     BlockPosition `json:"last_irreversible"`
	TraceBeginBlock      uint32        `json:"trace_begin_block"`
	TraceEndBlock        uint32        `json:"trace_end_block"`
	ChainStateBeginBlock uint32        `json:"chain_state_begin_block"`
	ChainStateEndBlock   uint32        `json:"chain_state_end_block"`
	ChainID              *string       `json:"chain_id,omitempty"`
}

func (*StatusResultV0) isResult() {}

// BlocksResultV0 is a single streamed block result in the legacy format:
// block/traces/deltas are left as hex strings for lazy decoding (see
// internal/enrich).
type BlocksResultV0 struct {
	Head             BlockPosition  `json:"head"`
	LastIrreversible BlockPosition  `json:"last_irreversible"`
	ThisBlock        *BlockPosition `json:"this_block,omitempty"`
	PrevBlock        *BlockPosition `json:"prev_block,omitempty"`
	Block            *string        `json:"block,omitempty"`
	Traces           *string        `json:"traces,omitempty"`
	Deltas           *string        `json:"deltas,omitempty"`
}

func (*BlocksResultV0) isResult() {}

// BlocksResultV1 is the v1 streamed block result: block is already a typed
// SignedBlock, traces/deltas remain hex strings for lazy decoding.
type BlocksResultV1 struct {
	Head             BlockPosition  `json:"head"`
	LastIrreversible BlockPosition  `json:"last_irreversible"`
	ThisBlock        *BlockPosition `json:"this_block,omitempty"`
	PrevBlock        *BlockPosition `json:"prev_block,omitempty"`
	Block            *SignedBlock   `json:"block,omitempty"`
	Traces           *string        `json:"traces,omitempty"`
	Deltas           *string        `json:"deltas,omitempty"`
}

func (*BlocksResultV1) isResult() {}

var resultRegistry = map[string]func() Result{
	"get_status_result_v0": func() Result { return &StatusResultV0{} },
	"get_blocks_result_v0": func() Result { return &BlocksResultV0{} },
	"get_blocks_result_v1": func() Result { return &BlocksResultV1{} },
}

// EncodeResult renders r as a canonical ["tag", payload] JSON array. Used
// by producers (e.g. cmd/ship-serv); the consumer session only decodes.
func EncodeResult(r Result) ([]byte, error) {
	switch v := r.(type) {
	case *StatusResultV0:
		return encodeTagged("get_status_result_v0", v)
	case *BlocksResultV0:
		return encodeTagged("get_blocks_result_v0", v)
	case *BlocksResultV1:
		return encodeTagged("get_blocks_result_v1", v)
	default:
		return nil, fmt.Errorf("wire: unknown result type %T", r)
	}
}

// DecodeResult parses a canonical ["tag", payload] JSON array into a
// Result.
func DecodeResult(data []byte) (Result, error) {
	return decodeVariant("Result", data, resultRegistry)
}
