package enrich

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"encoding/json"
	"testing"

	"eos-shipper/internal/codec"
	"eos-shipper/internal/wire"
)

func newTestCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New(codec.NewReferenceEngine(), "eosio", `{"version":"eosio::abi/1.1"}`)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}
	t.Cleanup(c.Destroy)
	return c
}

func TestEnrichStatusResultPassesThrough(t *testing.T) {
	c := newTestCodec(t)
	status := &wire.StatusResultV0{Head: wire.BlockPosition{BlockNum: 10}}
	rr, err := Enrich(c, "eosio", status)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if rr.Status != status {
		t.Fatal("expected status to pass through unchanged")
	}
	if rr.IsBlocksResult() {
		t.Fatal("IsBlocksResult should be false for a status result")
	}
}

func TestEnrichBlocksResultV0DecodesTraces(t *testing.T) {
	c := newTestCodec(t)

	tracesJSON := []byte(`[["transaction_trace_v0",{"id":"aa","status":"executed","cpu_usage_us":0,"net_usage_words":0,"elapsed":0,"net_usage":0,"scheduled":false,"action_traces":[],"account_ram_delta":null,"except":null,"error_code":null}]]`)
	tracesHex := hex.EncodeToString(tracesJSON)

	res := &wire.BlocksResultV0{
		Head:   wire.BlockPosition{BlockNum: 1, BlockID: wire.GenBlockID(1)},
		Traces: &tracesHex,
	}
	rr, err := Enrich(c, "eosio", res)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(rr.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", rr.Warnings)
	}
	if len(rr.Traces) != 1 {
		t.Fatalf("len(Traces) = %d, want 1", len(rr.Traces))
	}
}

func TestEnrichBlocksResultDegradesOnBadHex(t *testing.T) {
	c := newTestCodec(t)
	bad := "not-hex-at-all"
	res := &wire.BlocksResultV0{
		Head:   wire.BlockPosition{BlockNum: 1, BlockID: wire.GenBlockID(1)},
		Traces: &bad,
	}
	rr, err := Enrich(c, "eosio", res)
	if err != nil {
		t.Fatalf("Enrich should not hard-fail on a bad traces payload: %v", err)
	}
	if len(rr.Warnings) == 0 {
		t.Fatal("expected a decode warning for malformed hex")
	}
}

func TestEnrichDeltasUnknownRowFallsBackToOther(t *testing.T) {
	c := newTestCodec(t)

	rowJSON := `{"some":"future-shape"}`
	deltasJSON := []byte(`[["table_delta_v0",{"name":"a_brand_new_row_kind","rows":[{"present":true,"data":"` + hex.EncodeToString([]byte(rowJSON)) + `"}]}]]`)
	deltasHex := hex.EncodeToString(deltasJSON)

	res := &wire.BlocksResultV0{
		Head:   wire.BlockPosition{BlockNum: 1, BlockID: wire.GenBlockID(1)},
		Deltas: &deltasHex,
	}
	rr, err := Enrich(c, "eosio", res)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(rr.Warnings) != 0 {
		t.Fatalf("unknown row kinds should not produce warnings, got: %v", rr.Warnings)
	}
	if len(rr.Deltas) != 1 || len(rr.Deltas[0].Rows) != 1 {
		t.Fatalf("unexpected deltas: %+v", rr.Deltas)
	}
	other, ok := rr.Deltas[0].Rows[0].Data.(*wire.Other)
	if !ok {
		t.Fatalf("row data type = %T, want *wire.Other", rr.Deltas[0].Rows[0].Data)
	}
	if other.Tag != "a_brand_new_row_kind" {
		t.Fatalf("Other.Tag = %q", other.Tag)
	}
}

func TestInflateIfCompressedNone(t *testing.T) {
	data := []byte("raw packed trx bytes")
	out, err := InflateIfCompressed(0, data)
	if err != nil {
		t.Fatalf("InflateIfCompressed: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("expected passthrough for compression=0")
	}
}

func TestInflateIfCompressedZlib(t *testing.T) {
	want := []byte("raw packed trx bytes, compressed this time")
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(want); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	got, err := InflateIfCompressed(1, buf.Bytes())
	if err != nil {
		t.Fatalf("InflateIfCompressed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInflateIfCompressedUnknownScheme(t *testing.T) {
	if _, err := InflateIfCompressed(2, []byte("x")); err == nil {
		t.Fatal("expected error for unknown compression code")
	}
}

func TestEnrichBlockV0DecodesTransactions(t *testing.T) {
	c := newTestCodec(t)

	trxJSON := []byte(`{"expiration":"2020-01-01T00:00:00","ref_block_num":1,"ref_block_prefix":1,"max_net_usage_words":0,"max_cpu_usage_ms":0,"delay_sec":0,"context_free_actions":[],"actions":[{"account":"eosio.token","name":"transfer","authorization":[],"data":"aa"}],"transaction_extensions":[]}`)
	packedHex := hex.EncodeToString(trxJSON)

	receiptsJSON := []byte(`[` +
		`{"status":"executed","cpu_usage_us":0,"net_usage_words":0,"trx":["transaction_id",{"transaction_id":"deadbeef"}]},` +
		`{"status":"executed","cpu_usage_us":0,"net_usage_words":0,"trx":["packed_transaction_v0",{"transaction_id":"cafe","packed_trx":{"signatures":[],"compression":0,"packed_context_free_data":"","packed_trx":"` + packedHex + `"}}]}` +
		`]`)

	var receipts []wire.TransactionReceiptV0
	if err := json.Unmarshal(receiptsJSON, &receipts); err != nil {
		t.Fatalf("unmarshal receipts fixture: %v", err)
	}

	trxs, warnings := decodeTransactionsV0(c, "eosio", receipts)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(trxs) != 2 {
		t.Fatalf("len(trxs) = %d, want 2", len(trxs))
	}
	if trxs[0] != nil {
		t.Fatalf("transaction_id-only receipt should decode to nil, got %+v", trxs[0])
	}
	if trxs[1] == nil || len(trxs[1].Actions) != 1 || trxs[1].Actions[0].Account != "eosio.token" {
		t.Fatalf("unexpected packed transaction decode: %+v", trxs[1])
	}
}

func TestEnrichBlockV0TransactionsBadCompressionWarnsNotFails(t *testing.T) {
	c := newTestCodec(t)
	receipts := []wire.TransactionReceiptV0{
		{
			Status: "executed",
			Trx: &wire.TransactionVariantV0{
				TransactionID: "cafe",
				Packed:        &wire.PackedTransactionV0{Compression: 9, PackedTrx: "aa"},
			},
		},
	}
	trxs, warnings := decodeTransactionsV0(c, "eosio", receipts)
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %d: %v", len(warnings), warnings)
	}
	if len(trxs) != 1 || trxs[0] != nil {
		t.Fatalf("expected a nil entry alongside the warning, got %+v", trxs)
	}
}
