package hpack

// StreamDecoder wraps a Decoder so header blocks can be fed in arbitrary
// byte chunks — e.g. as HTTP/2 CONTINUATION frames arrive off the wire —
// without the caller having to reassemble a whole block first.
type StreamDecoder struct {
	dec  *Decoder
	tail []byte

	// sawHeader tracks the block-start-only size-update rule across Feed
	// calls, since a block can span many chunks.
	sawHeader bool
}

// NewStreamDecoder wraps dec. dec must not be used directly while wrapped,
// since StreamDecoder may roll back a partially-applied representation by
// re-decoding from a saved offset.
func NewStreamDecoder(dec *Decoder) *StreamDecoder {
	return &StreamDecoder{dec: dec}
}

// PendingDataSize returns the number of bytes currently held because they
// did not yet form a complete representation.
func (s *StreamDecoder) PendingDataSize() int {
	return len(s.tail)
}

// Clear drops any held partial state.
func (s *StreamDecoder) Clear() {
	s.tail = nil
	s.sawHeader = false
}

// Feed appends chunk to any held tail and decodes as many complete
// representations as possible, calling visit(name, value) for each header
// field. If decoding runs out of input mid-representation, the unparsed
// suffix (starting at the beginning of that representation, not wherever
// the partial decode gave up) is retained for the next Feed call, and the
// IncompleteDataError's byte hint is returned. If last is true and input
// is still incomplete at end of chunk, the error is returned instead of
// being retained, since no more data is coming.
//
// Returns 0 once every held byte has been consumed into a complete
// representation.
func (s *StreamDecoder) Feed(chunk []byte, last bool, visit func(name, value string)) (neededHint int, err error) {
	var buf []byte
	if len(s.tail) == 0 {
		buf = chunk
	} else {
		buf = append(s.tail, chunk...)
	}
	s.tail = nil

	var out HeaderView
	for len(buf) > 0 {
		isSizeUpdate := buf[0]&0xe0 == 0x20
		if isSizeUpdate && s.sawHeader {
			return 0, protoErr("StreamDecoder.Feed", ErrMisplacedSizeUpdate)
		}

		rest, decErr := s.dec.DecodeHeader(buf, &out)
		if decErr != nil {
			if incomplete, ok := decErr.(*IncompleteDataError); ok {
				if last {
					return 0, decErr
				}
				// Retain the whole unparsed representation, not the
				// remainder decodeInteger/decodeStringInto happened to
				// leave behind: buf itself is already positioned at the
				// start of the representation that ran short, since
				// DecodeHeader never advances buf on error.
				s.tail = append([]byte(nil), buf...)
				return incomplete.Required, nil
			}
			return 0, decErr
		}

		buf = rest
		if !out.Absent {
			s.sawHeader = true
			if visit != nil {
				visit(out.Name, out.Value)
			}
		}
	}

	// buf fully drained. On the last chunk the block that was in progress
	// is complete, so the block-start-only size-update rule resets for
	// whatever block comes next on this stream; otherwise the block goes on
	// in the next chunk and keeps its state.
	if last {
		s.sawHeader = false
	}
	return 0, nil
}
