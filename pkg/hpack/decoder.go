package hpack

import "strings"

// Decoder reconstructs header fields from HPACK-coded header blocks and
// owns the dynamic table it keeps synchronized with the peer's encoder.
type Decoder struct {
	Dyntab *DynamicTable

	maxStringLen int
	name         decodedString
	value        decodedString
}

// defaultMaxStringLength bounds a single decoded literal when the caller
// passes 0 to NewDecoder, mirroring the teacher decoder's 16MB guard
// against a peer claiming an absurd literal length.
const defaultMaxStringLength = 16 * 1024 * 1024

// NewDecoder creates a decoder whose dynamic table starts at maxDynamicSize.
// maxStringLength bounds any single decoded name or value; 0 selects
// defaultMaxStringLength.
func NewDecoder(maxDynamicSize uint32, maxStringLength int) *Decoder {
	if maxStringLength == 0 {
		maxStringLength = defaultMaxStringLength
	}
	return &Decoder{Dyntab: NewDynamicTable(maxDynamicSize), maxStringLen: maxStringLength}
}

// getByIndex resolves a combined-address-space index to (name, value),
// returning a ProtocolError if index is 0 or exceeds the combined table
// size.
func (d *Decoder) getByIndex(index uint32) (HeaderField, error) {
	if index == 0 {
		return HeaderField{}, protoErr("decodeHeader", ErrInvalidIndex)
	}
	if index <= StaticTableSize {
		return staticGetEntry(index), nil
	}
	hf, ok := d.Dyntab.GetEntry(index)
	if !ok {
		return HeaderField{}, protoErr("decodeHeader", ErrIndexOutOfRange)
	}
	return hf, nil
}

// DecodeHeader decodes exactly one field representation from the start of
// in, writing the result to out and returning the unconsumed remainder of
// in. When the representation was a dynamic table size update, out.Absent
// is set and out.Name/out.Value are cleared; there is no header to report,
// but Dyntab has already been resized.
func (d *Decoder) DecodeHeader(in []byte, out *HeaderView) (rest []byte, err error) {
	if len(in) == 0 {
		return in, incompleteErr("DecodeHeader", 1)
	}

	switch {
	case in[0]&0x80 != 0:
		return d.decodeFullyIndexed(in, out)
	case in[0]&0x40 != 0:
		return d.decodeIncrementalIndexing(in, out)
	case in[0]&0x20 != 0:
		return d.decodeSizeUpdate(in, out)
	case in[0]&0x10 != 0:
		return d.decodeLiteral(in, out, 4, true)
	case in[0]&0xf0 == 0:
		return d.decodeLiteral(in, out, 4, false)
	default:
		return in, protoErr("DecodeHeader", ErrMalformedRepresentation)
	}
}

func (d *Decoder) decodeFullyIndexed(in []byte, out *HeaderView) ([]byte, error) {
	index, n, err := decodeInteger(in, 7)
	if err != nil {
		return in, err
	}
	entry, err := d.getByIndex(uint32(index))
	if err != nil {
		return in, err
	}
	// The only way to reach an uncached (empty) value is through the
	// static table: in the dynamic table an empty value is itself a
	// cached header, so a name-only static slot referenced as fully
	// indexed is malformed.
	if index < StaticTableSize+1 && entry.Value == "" {
		return in, protoErr("DecodeHeader", ErrEmptyStaticValue)
	}
	*out = HeaderView{Name: entry.Name, Value: entry.Value}
	return in[n:], nil
}

func (d *Decoder) decodeIncrementalIndexing(in []byte, out *HeaderView) ([]byte, error) {
	rest, err := d.decodeLiteralImpl(in, out, 6)
	if err != nil {
		return in, err
	}
	// The table outlives this call, so it gets its own copies rather than
	// views into in or the decoder's scratch buffers.
	out.Name = strings.Clone(out.Name)
	out.Value = strings.Clone(out.Value)
	d.Dyntab.AddEntry(out.Name, out.Value)
	return rest, nil
}

func (d *Decoder) decodeLiteral(in []byte, out *HeaderView, prefixBits uint8, neverIndexed bool) ([]byte, error) {
	_ = neverIndexed // semantic marker only: never-indexed and without-indexing decode identically
	return d.decodeLiteralImpl(in, out, prefixBits)
}

func (d *Decoder) decodeLiteralImpl(in []byte, out *HeaderView, prefixBits uint8) ([]byte, error) {
	nameIndex, n, err := decodeInteger(in, prefixBits)
	if err != nil {
		return in, err
	}
	rest := in[n:]

	var name string
	if nameIndex == 0 {
		consumed, err := decodeStringInto(&d.name, rest, d.maxStringLen)
		if err != nil {
			return in, err
		}
		name = d.name.String()
		rest = rest[consumed:]
	} else {
		entry, err := d.getByIndex(uint32(nameIndex))
		if err != nil {
			return in, err
		}
		name = entry.Name
	}

	consumed, err := decodeStringInto(&d.value, rest, d.maxStringLen)
	if err != nil {
		return in, err
	}
	rest = rest[consumed:]

	*out = HeaderView{Name: name, Value: d.value.String()}
	return rest, nil
}

func (d *Decoder) decodeSizeUpdate(in []byte, out *HeaderView) ([]byte, error) {
	newMax, n, err := decodeInteger(in, 5)
	if err != nil {
		return in, err
	}
	if err := d.Dyntab.UpdateSize(uint32(newMax)); err != nil {
		return in, err
	}
	*out = HeaderView{Absent: true}
	return in[n:], nil
}

// DecodeBlock decodes every representation in in, calling visit(name,
// value) for each header field (size updates are applied to Dyntab but not
// reported). Size updates are only accepted before the first header field
// of the block, per RFC 7541 §4.2.
func (d *Decoder) DecodeBlock(in []byte, visit func(name, value string)) error {
	return d.decodeBlock(in, visit)
}

// IgnoreBlock decodes every representation in in the same way DecodeBlock
// does, applying dynamic table mutations, but does not report any headers.
// Used when a caller must keep its table synchronized with a block it does
// not otherwise care about (e.g. a request the caller is rejecting).
func (d *Decoder) IgnoreBlock(in []byte) error {
	return d.decodeBlock(in, nil)
}

func (d *Decoder) decodeBlock(in []byte, visit func(name, value string)) error {
	var out HeaderView
	sawHeader := false
	for len(in) > 0 {
		isSizeUpdate := in[0]&0xe0 == 0x20
		if isSizeUpdate && sawHeader {
			return protoErr("DecodeBlock", ErrMisplacedSizeUpdate)
		}

		rest, err := d.DecodeHeader(in, &out)
		if err != nil {
			return err
		}
		in = rest

		if !out.Absent {
			sawHeader = true
			if visit != nil {
				visit(out.Name, out.Value)
			}
		}
	}
	return nil
}

// DecodeResponseStatus decodes a single :status header field, taking a
// fast path for the seven statuses that live in the static table, and
// returns the parsed status code plus the unconsumed remainder of in.
func (d *Decoder) DecodeResponseStatus(in []byte) (status int, rest []byte, err error) {
	if len(in) == 0 {
		return 0, in, incompleteErr("DecodeResponseStatus", 1)
	}

	if in[0]&0x80 != 0 {
		index, n, err := decodeInteger(in, 7)
		if err == nil {
			if code, ok := staticStatusCode(uint32(index)); ok {
				return code, in[n:], nil
			}
		}
	}

	var out HeaderView
	rest, err = d.DecodeHeader(in, &out)
	if err != nil {
		return 0, in, err
	}
	if out.Name != ":status" || len(out.Value) != 3 {
		return 0, in, protoErr("DecodeResponseStatus", ErrInvalidStatus)
	}
	code := 0
	for i := 0; i < 3; i++ {
		c := out.Value[i]
		if c < '0' || c > '9' {
			return 0, in, protoErr("DecodeResponseStatus", ErrInvalidStatus)
		}
		code = code*10 + int(c-'0')
	}
	return code, rest, nil
}

func staticStatusCode(index uint32) (int, bool) {
	switch index {
	case idxStatus200:
		return 200, true
	case idxStatus204:
		return 204, true
	case idxStatus206:
		return 206, true
	case idxStatus304:
		return 304, true
	case idxStatus400:
		return 400, true
	case idxStatus404:
		return 404, true
	case idxStatus500:
		return 500, true
	default:
		return 0, false
	}
}
