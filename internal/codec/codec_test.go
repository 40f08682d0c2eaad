package codec

import (
	"errors"
	"testing"
)

const sampleSchema = `{"version":"eosio::abi/1.1","types":[]}`

func TestCodecEncodeDecodeRoundTrip(t *testing.T) {
	c, err := New(NewReferenceEngine(), "eosio", sampleSchema)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Destroy()

	payload := []byte(`{"head":{"block_num":1,"block_id":"aa"}}`)
	wire, err := c.Encode("eosio", "get_status_result_v0", payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := c.Decode("eosio", "get_status_result_v0", wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Fatalf("round trip mismatch: got %s, want %s", decoded, payload)
	}
}

func TestNewRejectsEmptySchema(t *testing.T) {
	if _, err := New(NewReferenceEngine(), "eosio", "   "); err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestNewRejectsMalformedSchema(t *testing.T) {
	if _, err := New(NewReferenceEngine(), "eosio", "{not json"); err == nil {
		t.Fatal("expected error for malformed schema")
	}
}

func TestCodecRejectsContractMismatch(t *testing.T) {
	c, err := New(NewReferenceEngine(), "eosio", sampleSchema)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Destroy()

	if _, err := c.Encode("otheraccnt", "x", []byte("{}")); err == nil {
		t.Fatal("expected error for contract mismatch")
	}
}

func TestCodecDestroyIsIdempotentAndBlocksFurtherUse(t *testing.T) {
	c, err := New(NewReferenceEngine(), "eosio", sampleSchema)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Destroy()
	c.Destroy() // must not panic

	_, err = c.Encode("eosio", "x", []byte("{}"))
	if err == nil {
		t.Fatal("expected error using a destroyed codec")
	}
	var ce *CodecError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CodecError, got %T", err)
	}
}
