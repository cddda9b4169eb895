package hpack

import "testing"

func TestDynamicTableAddAndGet(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)

	idx := dt.AddEntry("custom-key", "custom-header")
	if idx != StaticTableSize+1 {
		t.Fatalf("AddEntry returned %d, want %d", idx, StaticTableSize+1)
	}

	hf, ok := dt.GetEntry(idx)
	if !ok || hf.Name != "custom-key" || hf.Value != "custom-header" {
		t.Fatalf("GetEntry(%d) = (%+v, %v), want (custom-key/custom-header, true)", idx, hf, ok)
	}
}

// TestDynamicTableIndicesShiftOnInsert exercises the RFC 7541 C.2.4/C.3
// property that older entries' indices grow as newer entries are inserted,
// without any entry ever being physically moved.
func TestDynamicTableIndicesShiftOnInsert(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)

	firstIdx := dt.AddEntry("custom-key", "custom-header")
	if firstIdx != StaticTableSize+1 {
		t.Fatalf("first AddEntry = %d, want %d", firstIdx, StaticTableSize+1)
	}

	secondIdx := dt.AddEntry("cache-control", "no-cache")
	if secondIdx != StaticTableSize+1 {
		t.Fatalf("second AddEntry = %d, want %d", secondIdx, StaticTableSize+1)
	}

	// The first entry inserted is now the older one: its combined index
	// grew by one.
	hf, ok := dt.GetEntry(StaticTableSize + 2)
	if !ok || hf.Name != "custom-key" {
		t.Fatalf("GetEntry(%d) = (%+v, %v), want custom-key entry", StaticTableSize+2, hf, ok)
	}
}

func TestDynamicTableEvictsOldestOnOverflow(t *testing.T) {
	entrySize := HeaderField{Name: "custom-key", Value: "custom-header"}.Size()
	dt := NewDynamicTable(entrySize) // room for exactly one entry

	dt.AddEntry("custom-key", "custom-header")
	dt.AddEntry("second-key", "second-header")

	if dt.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", dt.Len())
	}
	idx, ok := dt.Find("second-key", "second-header")
	if !ok {
		t.Fatalf("Find(second-key) not found after eviction")
	}
	if _, ok := dt.GetEntry(idx + 1); ok {
		t.Fatalf("evicted entry still reachable at index %d", idx+1)
	}
}

func TestDynamicTableEntryLargerThanMaxClearsTable(t *testing.T) {
	dt := NewDynamicTable(64)
	dt.AddEntry("a", "b")
	if dt.Len() != 1 {
		t.Fatalf("setup: Len() = %d, want 1", dt.Len())
	}

	idx := dt.AddEntry("this-name-is-long-enough-to-blow-the-budget", "and-so-is-this-value-here")
	if idx != 0 {
		t.Errorf("AddEntry(oversize) = %d, want 0", idx)
	}
	if dt.Len() != 0 {
		t.Errorf("Len() after oversize insert = %d, want 0 (table cleared)", dt.Len())
	}
}

func TestDynamicTableUpdateSizeEvicts(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)
	dt.AddEntry("custom-key", "custom-header")
	dt.AddEntry("cache-control", "no-cache")

	if err := dt.UpdateSize(0); err != nil {
		t.Fatalf("UpdateSize(0) error: %v", err)
	}
	if dt.Len() != 0 || dt.CurrentSize() != 0 {
		t.Fatalf("after UpdateSize(0): Len()=%d CurrentSize()=%d, want 0, 0", dt.Len(), dt.CurrentSize())
	}
}

func TestDynamicTableUpdateSizeRejectsAboveProtocolMax(t *testing.T) {
	dt := NewDynamicTable(100)
	if err := dt.UpdateSize(200); err == nil {
		t.Fatalf("UpdateSize(200) with protocolMax=100: got nil error")
	}
}

func TestDynamicTableSetProtocolMaxShrinksLiveCapacity(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)
	dt.AddEntry("custom-key", "custom-header")

	dt.SetProtocolMax(0)
	if dt.MaxSize() != 0 {
		t.Errorf("MaxSize() after SetProtocolMax(0) = %d, want 0", dt.MaxSize())
	}
	if dt.Len() != 0 {
		t.Errorf("Len() after SetProtocolMax(0) = %d, want 0", dt.Len())
	}

	if err := dt.UpdateSize(4096); err == nil {
		t.Errorf("UpdateSize(4096) after ceiling narrowed to 0: got nil error, want ErrTableSizeTooLarge")
	}
}

func TestDynamicTableFindPrefersValueMatch(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)
	dt.AddEntry("x-custom", "one")
	dt.AddEntry("x-custom", "two")

	idx, exact := dt.Find("x-custom", "one")
	if !exact {
		t.Fatalf("Find(x-custom, one) exact = false, want true")
	}
	hf, _ := dt.GetEntry(idx)
	if hf.Value != "one" {
		t.Errorf("Find(x-custom, one) resolved to value %q, want %q", hf.Value, "one")
	}
}

func TestDynamicTableFindNameReturnsNewest(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)
	dt.AddEntry("x-custom", "one")
	dt.AddEntry("x-custom", "two")

	idx := dt.FindName("x-custom")
	hf, _ := dt.GetEntry(idx)
	if hf.Value != "two" {
		t.Errorf("FindName(x-custom) resolved to value %q, want %q (newest)", hf.Value, "two")
	}
}

func TestDynamicTableFindNameNoMatch(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)
	if idx := dt.FindName("nonexistent"); idx != 0 {
		t.Errorf("FindName(nonexistent) = %d, want 0", idx)
	}
}

func TestDynamicTableReset(t *testing.T) {
	dt := NewDynamicTable(DefaultTableSize)
	dt.AddEntry("a", "b")
	dt.AddEntry("c", "d")
	dt.Reset()

	if dt.Len() != 0 || dt.CurrentSize() != 0 {
		t.Fatalf("after Reset: Len()=%d CurrentSize()=%d, want 0, 0", dt.Len(), dt.CurrentSize())
	}
	if _, ok := dt.Find("a", "b"); ok {
		t.Errorf("Find after Reset still finds evicted entry")
	}
}
