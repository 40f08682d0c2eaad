package wire

import (
	"encoding/hex"
	"fmt"
)

// BlockPosition identifies a block by number and id, as used throughout the
// status and blocks results (shipper_types.rs: BlockPosition).
type BlockPosition struct {
	BlockNum uint32 `json:"block_num"`
	BlockID  string `json:"block_id"`
}

// BlockNumFromID extracts the block number encoded as the last 4 bytes
// (8 hex characters) of an EOSIO block id, mirroring ship-serv.rs's
// gen_block_id convention of stamping the block number, big-endian, into
// the id's trailing bytes.
func BlockNumFromID(id string) (uint32, error) {
	if len(id) != 64 {
		return 0, fmt.Errorf("wire: block id %q must be 64 hex characters, got %d", id, len(id))
	}
	raw, err := hex.DecodeString(id[56:])
	if err != nil {
		return 0, fmt.Errorf("wire: block id %q: %w", id, err)
	}
	return uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]), nil
}

// GenBlockID synthesizes a block id for blockNum in the same shape
// ship-serv.rs's gen_block_id produces: a fixed 56-hex-character prefix
// followed by the block number as 8 big-endian hex digits.
func GenBlockID(blockNum uint32) string {
	const prefix = "00a7a475a5fce4a49cc43d7131e1a86efeeac498703e38319aad0759"
	return fmt.Sprintf("%s%08x", prefix, blockNum)
}

// Extension is a generic (type, data) extension slot used by block headers,
// transactions, and signed blocks.
type Extension struct {
	Type uint16 `json:"type"`
	Data string `json:"data"`
}

// PermissionLevel names an actor/permission pair used in action
// authorization lists.
type PermissionLevel struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// Action is a single contract action: account+name identify the handler,
// authorization lists who signed for it, data is the ABI-encoded payload
// as a hex string.
type Action struct {
	Account       string            `json:"account"`
	Name          string            `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          string            `json:"data"`
}

// AccountDelta records a change in an account's RAM usage attributable to a
// transaction.
type AccountDelta struct {
	Account string `json:"account"`
	Delta   int64  `json:"delta"`
}

// AccountAuthSequence records the per-account sequence number consumed by
// an action's authorization check.
type AccountAuthSequence struct {
	Account  string `json:"account"`
	Sequence uint64 `json:"sequence"`
}

// ProducerKey pairs a producer name with its block-signing key.
type ProducerKey struct {
	ProducerName  string `json:"producer_name"`
	BlockSigningKey string `json:"block_signing_key"`
}

// ProducerSchedule is the active or pending producer schedule embedded in a
// block header when the schedule changes.
type ProducerSchedule struct {
	Version   uint32        `json:"version"`
	Producers []ProducerKey `json:"producers"`
}
