package wire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"status", &StatusRequestV0{}},
		{"blocks", &BlocksRequestV0{
			StartBlockNum:       10,
			EndBlockNum:         20,
			MaxMessagesInFlight: 5,
			HavePositions:       []BlockPosition{{BlockNum: 9, BlockID: GenBlockID(9)}},
			FetchBlock:          true,
			FetchTraces:         true,
			FetchDeltas:         true,
		}},
		{"ack", &BlocksACKRequestV0{NumMessages: 3}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			encoded, err := EncodeRequest(tt.req)
			if err != nil {
				t.Fatalf("EncodeRequest: %v", err)
			}
			decoded, err := DecodeRequest(encoded)
			if err != nil {
				t.Fatalf("DecodeRequest: %v", err)
			}
			reencoded, err := EncodeRequest(decoded)
			if err != nil {
				t.Fatalf("re-EncodeRequest: %v", err)
			}
			if string(reencoded) != string(encoded) {
				t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", reencoded, encoded)
			}
		})
	}
}

func TestEncodeRequestRejectsQuit(t *testing.T) {
	if _, err := EncodeRequest(&Quit{}); err == nil {
		t.Fatal("expected EncodeRequest(Quit) to fail, got nil error")
	}
}

func TestDecodeRequestUnknownTag(t *testing.T) {
	data, _ := json.Marshal([2]interface{}{"get_nonsense_request_v9", map[string]any{}})
	_, err := DecodeRequest(data)
	if err == nil {
		t.Fatal("expected error for unknown discriminator")
	}
	var uv *UnknownVariantError
	if !errors.As(err, &uv) {
		t.Fatalf("expected *UnknownVariantError, got %T: %v", err, err)
	}
	if uv.Tag != "get_nonsense_request_v9" {
		t.Fatalf("unexpected tag: %q", uv.Tag)
	}
}

func TestBlocksRequestV0WireShape(t *testing.T) {
	req := &BlocksRequestV0{StartBlockNum: 1, EndBlockNum: 2}
	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	var arr [2]json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	var tag string
	if err := json.Unmarshal(arr[0], &tag); err != nil {
		t.Fatalf("unmarshal tag: %v", err)
	}
	if tag != "get_blocks_request_v0" {
		t.Fatalf("tag = %q, want get_blocks_request_v0", tag)
	}
}
