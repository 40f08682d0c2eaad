package wire

import "testing"

func TestDecodeTableRowKnownType(t *testing.T) {
	data := []byte(`["contract_row_v0",{"code":"eosio.token","scope":"alice","table":"accounts","primary_key":0,"payer":"alice","value":"aa"}]`)
	row, err := DecodeTableRow("contract_row", data)
	if err != nil {
		t.Fatalf("DecodeTableRow: %v", err)
	}
	cr, ok := row.(*ContractRowV0)
	if !ok {
		t.Fatalf("row type = %T, want *ContractRowV0", row)
	}
	if cr.Code != "eosio.token" || cr.Scope != "alice" {
		t.Fatalf("unexpected row: %+v", cr)
	}
	if row.RowTypeName() != "contract_row" {
		t.Fatalf("RowTypeName() = %q, want contract_row", row.RowTypeName())
	}
}

func TestDecodeTableRowUnknownTypeFallsBackToOther(t *testing.T) {
	data := []byte(`{"anything":"goes"}`)
	row, err := DecodeTableRow("some_future_row_kind", data)
	if err != nil {
		t.Fatalf("DecodeTableRow should not error on unknown row kinds: %v", err)
	}
	other, ok := row.(*Other)
	if !ok {
		t.Fatalf("row type = %T, want *Other", row)
	}
	if other.RowTypeName() != "some_future_row_kind" {
		t.Fatalf("RowTypeName() = %q, want some_future_row_kind", other.RowTypeName())
	}
}

func TestDecodeTableRowWrongTagErrors(t *testing.T) {
	data := []byte(`["contract_table_v0",{"code":"eosio.token","scope":"alice","table":"accounts","payer":"alice"}]`)
	if _, err := DecodeTableRow("contract_row", data); err == nil {
		t.Fatal("DecodeTableRow should reject a payload tagged for a different row type")
	}
}

func TestDecodeTableDeltasArray(t *testing.T) {
	data := []byte(`[["table_delta_v0",{"name":"contract_row","rows":[{"present":true,"data":"aa"}]}]]`)
	deltas, err := DecodeTableDeltas(data)
	if err != nil {
		t.Fatalf("DecodeTableDeltas: %v", err)
	}
	if len(deltas) != 1 {
		t.Fatalf("len(deltas) = %d, want 1", len(deltas))
	}
	d, ok := deltas[0].(*TableDeltaV0)
	if !ok {
		t.Fatalf("delta type = %T, want *TableDeltaV0", deltas[0])
	}
	if d.Name != "contract_row" || len(d.Rows) != 1 || !d.Rows[0].Present {
		t.Fatalf("unexpected delta: %+v", d)
	}
}
