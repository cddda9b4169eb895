package hpack

import "strconv"

// Encoder emits HPACK-coded header blocks and owns the dynamic table it
// keeps synchronized with the peer's decoder.
type Encoder struct {
	Dyntab *DynamicTable
}

// NewEncoder creates an encoder whose dynamic table starts at maxDynamicSize
// (both live capacity and protocol ceiling). Pass hpack.DefaultTableSize
// for the HTTP/2 default of 4096.
func NewEncoder(maxDynamicSize uint32) *Encoder {
	return &Encoder{Dyntab: NewDynamicTable(maxDynamicSize)}
}

// EncodeHeaderFullyIndexed emits a fully indexed field (RFC 7541 §6.1):
// both name and value come from index, which must be a valid combined
// address-space index (1..Dyntab.CurrentMaxIndex()).
func (e *Encoder) EncodeHeaderFullyIndexed(index uint32, out []byte) []byte {
	return appendInteger(out, uint64(index), 7, 0x80)
}

// EncodeHeaderAndCache emits a literal with incremental indexing (RFC 7541
// §6.2.1) using an already-indexed name, and inserts (name, value) into
// the dynamic table. nameIndex must resolve to a name in the static or
// dynamic table.
func (e *Encoder) EncodeHeaderAndCache(nameIndex uint32, value string, huffman bool, out []byte) []byte {
	name := e.resolveName(nameIndex)
	out = appendInteger(out, uint64(nameIndex), 6, 0x40)
	e.Dyntab.AddEntry(name, value)
	return appendString(out, value, huffman)
}

// EncodeHeaderAndCacheNew emits a literal with incremental indexing using a
// brand-new name (RFC 7541 §6.2.1, index 0 form) and inserts (name, value)
// into the dynamic table.
func (e *Encoder) EncodeHeaderAndCacheNew(name, value string, huffman bool, out []byte) []byte {
	out = append(out, 0x40)
	out = appendString(out, name, huffman)
	e.Dyntab.AddEntry(name, value)
	return appendString(out, value, huffman)
}

// EncodeWithCache emits a fully indexed field if (name, value) is already
// cached in the dynamic table, otherwise falls back to
// EncodeHeaderAndCache(New). Repeated calls with the same pair become
// cheap after the first.
func (e *Encoder) EncodeWithCache(name, value string, huffman bool, out []byte) []byte {
	if idx, ok := e.Dyntab.Find(name, value); ok {
		return e.EncodeHeaderFullyIndexed(idx, out)
	}
	if idx, ok := e.staticOrDynamicName(name); ok {
		return e.EncodeHeaderAndCache(idx, value, huffman, out)
	}
	return e.EncodeHeaderAndCacheNew(name, value, huffman, out)
}

// EncodeHeaderWithoutIndexing emits a literal without indexing (RFC 7541
// §6.2.2) referencing an indexed name.
func (e *Encoder) EncodeHeaderWithoutIndexing(nameIndex uint32, value string, huffman bool, out []byte) []byte {
	out = appendInteger(out, uint64(nameIndex), 4, 0x00)
	return appendString(out, value, huffman)
}

// EncodeHeaderWithoutIndexingNew emits a literal without indexing with a
// brand-new name.
func (e *Encoder) EncodeHeaderWithoutIndexingNew(name, value string, huffman bool, out []byte) []byte {
	out = append(out, 0x00)
	out = appendString(out, name, huffman)
	return appendString(out, value, huffman)
}

// EncodeHeaderNeverIndexed emits a literal never indexed (RFC 7541 §6.2.3):
// like without-indexing, but the field must not be stored by any proxy.
func (e *Encoder) EncodeHeaderNeverIndexed(nameIndex uint32, value string, huffman bool, out []byte) []byte {
	out = appendInteger(out, uint64(nameIndex), 4, 0x10)
	return appendString(out, value, huffman)
}

// EncodeHeaderNeverIndexedNew is EncodeHeaderNeverIndexed with a brand-new
// name.
func (e *Encoder) EncodeHeaderNeverIndexedNew(name, value string, huffman bool, out []byte) []byte {
	out = append(out, 0x10)
	out = appendString(out, name, huffman)
	return appendString(out, value, huffman)
}

// EncodeDynamicTableSizeUpdate emits a dynamic table size update (RFC 7541
// §6.3) and applies it to Dyntab.
func (e *Encoder) EncodeDynamicTableSizeUpdate(newMax uint32, out []byte) ([]byte, error) {
	out = appendInteger(out, uint64(newMax), 5, 0x20)
	if err := e.Dyntab.UpdateSize(newMax); err != nil {
		return out, err
	}
	return out, nil
}

// Encode picks the smallest-output representation for (name, value),
// giving the static table priority over the dynamic table whenever both
// hold a match (RFC 7541 encoders MUST NOT surprise the peer with a
// choice that looks smaller but isn't universally safe). When cache is
// true and only a name (not the full pair) is indexed, the header is
// additionally inserted into the dynamic table via incremental indexing;
// otherwise it is sent without indexing. huffman selects Huffman string
// coding for any literal octets this call emits.
func (e *Encoder) Encode(name, value string, cache, huffman bool, out []byte) []byte {
	staticIdx, staticExact := staticFind(name, value)
	if staticExact {
		return e.EncodeHeaderFullyIndexed(staticIdx, out)
	}

	dynIdx, dynExact := e.Dyntab.Find(name, value)
	if dynExact {
		return e.EncodeHeaderFullyIndexed(dynIdx, out)
	}

	if staticIdx != 0 {
		return e.encodeLiteralIndexedName(staticIdx, name, value, cache, huffman, out)
	}
	if dynIdx != 0 {
		return e.encodeLiteralIndexedName(dynIdx, name, value, cache, huffman, out)
	}

	if cache {
		return e.EncodeHeaderAndCacheNew(name, value, huffman, out)
	}
	return e.EncodeHeaderWithoutIndexingNew(name, value, huffman, out)
}

func (e *Encoder) encodeLiteralIndexedName(nameIndex uint32, name, value string, cache, huffman bool, out []byte) []byte {
	if cache {
		out = appendInteger(out, uint64(nameIndex), 6, 0x40)
		e.Dyntab.AddEntry(name, value)
		return appendString(out, value, huffman)
	}
	return e.EncodeHeaderWithoutIndexing(nameIndex, value, huffman, out)
}

// EncodeHeaders encodes headers in order, applying the same (cache,
// huffman) selection to each via Encode.
func (e *Encoder) EncodeHeaders(headers []HeaderField, cache, huffman bool, out []byte) []byte {
	for _, h := range headers {
		out = e.Encode(h.Name, h.Value, cache, huffman, out)
	}
	return out
}

// EncodeStatus is a fast path for :status: the seven common codes go out
// as a single fully-indexed byte; anything else is encoded as a literal
// :status value and cached (a server is likely to repeat an unusual
// status, e.g. 429, across a connection).
func (e *Encoder) EncodeStatus(code int, out []byte) []byte {
	switch code {
	case 200:
		return e.EncodeHeaderFullyIndexed(idxStatus200, out)
	case 204:
		return e.EncodeHeaderFullyIndexed(idxStatus204, out)
	case 206:
		return e.EncodeHeaderFullyIndexed(idxStatus206, out)
	case 304:
		return e.EncodeHeaderFullyIndexed(idxStatus304, out)
	case 400:
		return e.EncodeHeaderFullyIndexed(idxStatus400, out)
	case 404:
		return e.EncodeHeaderFullyIndexed(idxStatus404, out)
	case 500:
		return e.EncodeHeaderFullyIndexed(idxStatus500, out)
	default:
		return e.EncodeWithCache(":status", strconv.Itoa(code), false, out)
	}
}

// resolveName looks up nameIndex's name in the static or dynamic table.
func (e *Encoder) resolveName(nameIndex uint32) string {
	if nameIndex >= 1 && nameIndex <= StaticTableSize {
		return staticTable[nameIndex].Name
	}
	if hf, ok := e.Dyntab.GetEntry(nameIndex); ok {
		return hf.Name
	}
	return ""
}

// staticOrDynamicName returns the static or dynamic index for name if
// either table already has it, static preferred.
func (e *Encoder) staticOrDynamicName(name string) (uint32, bool) {
	if idx, ok := staticNameIndex[name]; ok {
		return idx, true
	}
	if idx := e.Dyntab.FindName(name); idx != 0 {
		return idx, true
	}
	return 0, false
}
