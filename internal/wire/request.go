package wire

import "fmt"

// Request is the sum of messages a consumer may send to a state-history
// server (shipper_types.rs: ShipRequests).
type Request interface {
	isRequest()
}

// StatusRequestV0 asks for the server's current head/irreversible/trace and
// chain-state ranges. It carries no fields.
type StatusRequestV0 struct{}

func (*StatusRequestV0) isRequest() {}

// BlocksRequestV0 opens (or re-ranges) the result stream.
type BlocksRequestV0 struct {
	StartBlockNum       uint32          `json:"start_block_num"`
	EndBlockNum         uint32          `json:"end_block_num"`
	MaxMessagesInFlight uint32          `json:"max_messages_in_flight"`
	HavePositions       []BlockPosition `json:"have_positions"`
	IrreversibleOnly    bool            `json:"irreversible_only"`
	FetchBlock          bool            `json:"fetch_block"`
	FetchTraces         bool            `json:"fetch_traces"`
	FetchDeltas         bool            `json:"fetch_deltas"`
}

func (*BlocksRequestV0) isRequest() {}

// BlocksACKRequestV0 acknowledges processing of numMessages results,
// extending the server's flight window by that many messages.
type BlocksACKRequestV0 struct {
	NumMessages uint32 `json:"num_messages"`
}

func (*BlocksACKRequestV0) isRequest() {}

// Quit is a client-only sentinel instructing the session to close the
// outbound half of the connection. It is never serialized onto the wire
// (spec.md §3, §9) and is therefore excluded from the request registry and
// rejected by EncodeRequest.
type Quit struct{}

func (*Quit) isRequest() {}

var requestRegistry = map[string]func() Request{
	"get_status_request_v0":     func() Request { return &StatusRequestV0{} },
	"get_blocks_request_v0":     func() Request { return &BlocksRequestV0{} },
	"get_blocks_ack_request_v0": func() Request { return &BlocksACKRequestV0{} },
}

// EncodeRequest renders r as a canonical ["tag", payload] JSON array.
// Quit cannot be encoded; attempting to do so is a programmer error.
func EncodeRequest(r Request) ([]byte, error) {
	switch v := r.(type) {
	case *StatusRequestV0:
		return encodeTagged("get_status_request_v0", v)
	case *BlocksRequestV0:
		return encodeTagged("get_blocks_request_v0", v)
	case *BlocksACKRequestV0:
		return encodeTagged("get_blocks_ack_request_v0", v)
	case *Quit:
		return nil, fmt.Errorf("wire: quit is a client-only sentinel and must not be encoded")
	default:
		return nil, fmt.Errorf("wire: unknown request type %T", r)
	}
}

// DecodeRequest parses a canonical ["tag", payload] JSON array into a
// Request. Used by producers (e.g. cmd/ship-serv) that must understand
// incoming requests; never by the consumer session, which only sends them.
func DecodeRequest(data []byte) (Request, error) {
	return decodeVariant("Request", data, requestRegistry)
}
