package hpack

import "testing"

func TestStreamDecoderSingleChunk(t *testing.T) {
	enc := NewEncoder(DefaultTableSize)
	block := enc.EncodeHeaders([]HeaderField{
		{":method", "GET"},
		{":path", "/"},
	}, true, false, nil)

	sd := NewStreamDecoder(NewDecoder(DefaultTableSize, 0))
	var got []HeaderField
	needed, err := sd.Feed(block, true, func(name, value string) {
		got = append(got, HeaderField{Name: name, Value: value})
	})
	if err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	if needed != 0 {
		t.Errorf("Feed returned needed=%d, want 0", needed)
	}
	assertHeaders(t, got, []HeaderField{{":method", "GET"}, {":path", "/"}})
	if sd.PendingDataSize() != 0 {
		t.Errorf("PendingDataSize() = %d, want 0", sd.PendingDataSize())
	}
}

// TestStreamDecoderSplitAcrossChunks feeds one encoded header field one
// byte at a time, checking that every prefix short of the full
// representation is held rather than reported or errored fatally.
func TestStreamDecoderSplitAcrossChunks(t *testing.T) {
	enc := NewEncoder(DefaultTableSize)
	block := enc.EncodeHeaderAndCacheNew("x-split-header", "x-split-value", false, nil)

	sd := NewStreamDecoder(NewDecoder(DefaultTableSize, 0))
	var got []HeaderField

	for i := 0; i < len(block); i++ {
		last := i == len(block)-1
		_, err := sd.Feed(block[i:i+1], last, func(name, value string) {
			got = append(got, HeaderField{Name: name, Value: value})
		})
		if err != nil {
			t.Fatalf("Feed(byte %d) error: %v", i, err)
		}
	}

	assertHeaders(t, got, []HeaderField{{"x-split-header", "x-split-value"}})
}

func TestStreamDecoderMultipleFieldsAcrossChunks(t *testing.T) {
	enc := NewEncoder(DefaultTableSize)
	block := enc.EncodeHeaders([]HeaderField{
		{":method", "POST"},
		{"content-type", "application/json"},
		{"x-trace-id", "deadbeef"},
	}, true, true, nil)

	mid := len(block) / 2
	sd := NewStreamDecoder(NewDecoder(DefaultTableSize, 0))
	var got []HeaderField
	visit := func(name, value string) {
		got = append(got, HeaderField{Name: name, Value: value})
	}

	if _, err := sd.Feed(block[:mid], false, visit); err != nil {
		t.Fatalf("Feed(first half) error: %v", err)
	}
	if _, err := sd.Feed(block[mid:], true, visit); err != nil {
		t.Fatalf("Feed(second half) error: %v", err)
	}

	assertHeaders(t, got, []HeaderField{
		{":method", "POST"},
		{"content-type", "application/json"},
		{"x-trace-id", "deadbeef"},
	})
}

func TestStreamDecoderLastTrueWithIncompleteDataErrors(t *testing.T) {
	enc := NewEncoder(DefaultTableSize)
	block := enc.EncodeHeaderAndCacheNew("x-name", "x-value", false, nil)

	sd := NewStreamDecoder(NewDecoder(DefaultTableSize, 0))
	_, err := sd.Feed(block[:len(block)-1], true, nil)
	if err == nil {
		t.Fatalf("Feed(truncated, last=true) returned nil error, want IncompleteDataError")
	}
}

// TestStreamDecoderSizeUpdateAtStartOfEachBlock feeds two independent
// header blocks through one long-lived StreamDecoder, each beginning with
// a dynamic table size update, mirroring how a real caller reuses a single
// StreamDecoder across every header block on an HTTP/2 stream. A block that
// produced a real header field must not make the following block's
// legitimate leading size update look misplaced.
func TestStreamDecoderSizeUpdateAtStartOfEachBlock(t *testing.T) {
	enc := NewEncoder(DefaultTableSize)
	sd := NewStreamDecoder(NewDecoder(DefaultTableSize, 0))

	block1, err := enc.EncodeDynamicTableSizeUpdate(2048, nil)
	if err != nil {
		t.Fatalf("EncodeDynamicTableSizeUpdate error: %v", err)
	}
	block1 = enc.EncodeHeaders([]HeaderField{{":method", "GET"}}, true, false, block1)

	var got []HeaderField
	visit := func(name, value string) {
		got = append(got, HeaderField{Name: name, Value: value})
	}
	if _, err := sd.Feed(block1, true, visit); err != nil {
		t.Fatalf("Feed(block1) error: %v", err)
	}

	block2, err := enc.EncodeDynamicTableSizeUpdate(1024, nil)
	if err != nil {
		t.Fatalf("EncodeDynamicTableSizeUpdate error: %v", err)
	}
	block2 = enc.EncodeHeaders([]HeaderField{{":method", "POST"}}, true, false, block2)

	if _, err := sd.Feed(block2, true, visit); err != nil {
		t.Fatalf("Feed(block2) error: %v, want nil (leading size update in a later block must not be rejected)", err)
	}

	assertHeaders(t, got, []HeaderField{{":method", "GET"}, {":method", "POST"}})
}

func TestStreamDecoderClearDropsPendingBytes(t *testing.T) {
	sd := NewStreamDecoder(NewDecoder(DefaultTableSize, 0))
	sd.Feed([]byte{0x40}, false, nil)
	if sd.PendingDataSize() == 0 {
		t.Fatalf("setup: expected pending bytes after partial feed")
	}
	sd.Clear()
	if sd.PendingDataSize() != 0 {
		t.Errorf("PendingDataSize() after Clear() = %d, want 0", sd.PendingDataSize())
	}
}
