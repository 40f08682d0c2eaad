package wire

import "testing"

func TestGenBlockIDAndBlockNumFromIDRoundTrip(t *testing.T) {
	for _, n := range []uint32{0, 1, 8, 10, 150, 1 << 20} {
		id := GenBlockID(n)
		if len(id) != 64 {
			t.Fatalf("GenBlockID(%d) length = %d, want 64", n, len(id))
		}
		got, err := BlockNumFromID(id)
		if err != nil {
			t.Fatalf("BlockNumFromID(%q): %v", id, err)
		}
		if got != n {
			t.Fatalf("BlockNumFromID(GenBlockID(%d)) = %d", n, got)
		}
	}
}

func TestBlockNumFromIDRejectsWrongLength(t *testing.T) {
	if _, err := BlockNumFromID("ab"); err == nil {
		t.Fatal("expected error for too-short block id")
	}
}
