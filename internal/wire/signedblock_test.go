package wire

import "testing"

func TestSignedBlockV0FieldsFlattenIntoWireObject(t *testing.T) {
	block := &SignedBlockV0{
		SignedBlockHeader: SignedBlockHeader{
			BlockHeader: BlockHeader{
				Timestamp: "2018-06-01T12:00:00.000",
				Producer:  "ship_serv",
			},
			ProducerSignature: "SIG_K1_dummy",
		},
	}
	sb := &SignedBlock{Value: block}
	data, err := sb.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	var decoded SignedBlock
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	v0, ok := decoded.Value.(*SignedBlockV0)
	if !ok {
		t.Fatalf("decoded type = %T, want *SignedBlockV0", decoded.Value)
	}
	if v0.Producer != "ship_serv" || v0.ProducerSignature != "SIG_K1_dummy" {
		t.Fatalf("header fields did not flatten correctly: %+v", v0)
	}
}

func TestDecodeSignedBlockV0BytesBare(t *testing.T) {
	data := []byte(`{"timestamp":"2018-06-01T12:00:00.000","producer":"ship_serv","confirmed":0,"previous":"","transaction_mroot":"","action_mroot":"","schedule_version":0,"new_producers":null,"header_extensions":[],"producer_signature":"SIG_K1_dummy","transactions":[],"block_extensions":[]}`)
	b, err := DecodeSignedBlockV0Bytes(data)
	if err != nil {
		t.Fatalf("DecodeSignedBlockV0Bytes: %v", err)
	}
	if b.Producer != "ship_serv" {
		t.Fatalf("Producer = %q, want ship_serv", b.Producer)
	}
}
