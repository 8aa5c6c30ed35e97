package mathx

import "testing"

func TestClampAndAbsDiff(t *testing.T) {
	if Clamp(20, 0, 15) != 15 || Clamp(-1, 0, 15) != 0 || Clamp(7, 15, 0) != 7 {
		t.Fatalf("Clamp failed")
	}
	if AbsDiff(uint32(3), 10) != 7 || AbsDiff(uint32(10), 3) != 7 {
		t.Fatalf("AbsDiff failed")
	}
}

func TestDivHelpers(t *testing.T) {
	if CeilDiv[uint32](10, 4) != 3 || CeilDiv[uint32](8, 4) != 2 || CeilDiv[uint32](1, 0) != 0 {
		t.Fatalf("CeilDiv failed")
	}
	if RoundDiv[uint64](16_000_000, 150_000) != 107 {
		t.Fatalf("RoundDiv failed")
	}
	if PerMille(99_000, 100_000) != 10 {
		t.Fatalf("PerMille failed")
	}
}
