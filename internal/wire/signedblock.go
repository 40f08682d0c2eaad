package wire

import (
	"encoding/json"
	"fmt"
)

// BlockHeader is the common header shared by all block header versions
// (shipper_types.rs: BlockHeader).
type BlockHeader struct {
	Timestamp         string            `json:"timestamp"`
	Producer          string            `json:"producer"`
	Confirmed         uint16            `json:"confirmed"`
	Previous          string            `json:"previous"`
	TransactionMroot  string            `json:"transaction_mroot"`
	ActionMroot       string            `json:"action_mroot"`
	ScheduleVersion   uint32            `json:"schedule_version"`
	NewProducers      *ProducerSchedule `json:"new_producers,omitempty"`
	HeaderExtensions  []Extension       `json:"header_extensions"`
}

// SignedBlockHeader adds the block-producing signature to BlockHeader. The
// original schema flattens BlockHeader's fields directly into this struct;
// BlockHeader is embedded here, and encoding/json promotes an embedded
// struct's fields into the enclosing object, which gives the same flat wire
// shape (SignedBlockV0/V1 embed SignedBlockHeader the same way).
type SignedBlockHeader struct {
	BlockHeader
	ProducerSignature string `json:"producer_signature"`
}

// TransactionReceiptV0 pairs a transaction's wire-level receipt header with
// either its id or the packed transaction itself.
type TransactionReceiptV0 struct {
	Status        string                `json:"status"`
	CPUUsageUS    uint32                `json:"cpu_usage_us"`
	NetUsageWords uint32                `json:"net_usage_words"`
	Trx           *TransactionVariantV0 `json:"trx"`
}

// TransactionReceiptV1 is the v1 receipt, carrying a TransactionVariantV1.
type TransactionReceiptV1 struct {
	Status        string                `json:"status"`
	CPUUsageUS    uint32                `json:"cpu_usage_us"`
	NetUsageWords uint32                `json:"net_usage_words"`
	Trx           *TransactionVariantV1 `json:"trx"`
}

// SignedBlockV0 is a complete legacy-format signed block.
type SignedBlockV0 struct {
	SignedBlockHeader
	Transactions     []TransactionReceiptV0 `json:"transactions"`
	BlockExtensions  []Extension            `json:"block_extensions"`
}

func (*SignedBlockV0) isSignedBlock() {}

// SignedBlockV1 additionally carries the prune_state byte and v1-format
// transaction receipts (supporting pruned/prunable transaction data).
type SignedBlockV1 struct {
	SignedBlockHeader
	PruneState       uint8                   `json:"prune_state"`
	Transactions     []TransactionReceiptV1  `json:"transactions"`
	BlockExtensions  []Extension             `json:"block_extensions"`
}

func (*SignedBlockV1) isSignedBlock() {}

// SignedBlockVariant is the sum of block formats (shipper_types.rs:
// SignedBlock enum).
type SignedBlockVariant interface {
	isSignedBlock()
}

var signedBlockRegistry = map[string]func() SignedBlockVariant{
	"signed_block_v0": func() SignedBlockVariant { return &SignedBlockV0{} },
	"signed_block_v1": func() SignedBlockVariant { return &SignedBlockV1{} },
}

// SignedBlock wraps SignedBlockVariant so it can be embedded as a struct
// field (e.g. in GetBlocksResultV1) while still marshaling/unmarshaling as
// the canonical ["tag", payload] array.
type SignedBlock struct {
	Value SignedBlockVariant
}

func (s SignedBlock) MarshalJSON() ([]byte, error) {
	switch v := s.Value.(type) {
	case *SignedBlockV0:
		return encodeTagged("signed_block_v0", v)
	case *SignedBlockV1:
		return encodeTagged("signed_block_v1", v)
	default:
		return nil, fmt.Errorf("wire: unknown signed block type %T", s.Value)
	}
}

func (s *SignedBlock) UnmarshalJSON(data []byte) error {
	v, err := decodeVariant("SignedBlock", data, signedBlockRegistry)
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}

// DecodeSignedBlockV0Bytes parses a bare (untagged) signed_block_v0 JSON
// object, as produced by the SC's "signed_block" type decode used on the
// get_blocks_result_v0 hex path (shipper_types.rs's convert_block_v0).
func DecodeSignedBlockV0Bytes(data []byte) (*SignedBlockV0, error) {
	var b SignedBlockV0
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("wire: decode signed_block_v0: %w", err)
	}
	return &b, nil
}
