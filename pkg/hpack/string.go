package hpack

import "github.com/valyala/bytebufferpool"

// decodedString is the decoder's view onto one decoded literal. A raw
// (non-Huffman) literal aliases the caller's input slice directly; a
// Huffman-coded literal owns a pooled scratch buffer that is reused for the
// next Huffman value and returned to the pool when this decodedString is
// next set to a raw literal or reset.
type decodedString struct {
	view  []byte
	owned *bytebufferpool.ByteBuffer
}

func (d *decodedString) reset() {
	if d.owned != nil {
		bytebufferpool.Put(d.owned)
		d.owned = nil
	}
	d.view = nil
}

func (d *decodedString) setView(b []byte) {
	if d.owned != nil {
		bytebufferpool.Put(d.owned)
		d.owned = nil
	}
	d.view = b
}

func (d *decodedString) setHuffman(coded []byte) error {
	if d.owned == nil {
		d.owned = bytebufferpool.Get()
	}
	d.owned.Reset()
	decoded, err := huffmanDecode(d.owned.B, coded)
	if err != nil {
		return err
	}
	d.owned.B = decoded
	d.view = nil
	return nil
}

func (d *decodedString) String() string {
	if d.owned != nil {
		return bytesToString(d.owned.B)
	}
	return bytesToString(d.view)
}

// appendString encodes s as an RFC 7541 §5.2 string literal (H-bit +
// length prefix + payload) and appends it to out. When huffman is true the
// payload is Huffman-coded regardless of whether that shrinks s; callers
// decide the tradeoff (see Encoder, which exposes an explicit Huffman
// flag rather than guessing).
func appendString(out []byte, s string, huffman bool) []byte {
	if !huffman {
		out = appendInteger(out, uint64(len(s)), 7, 0x00)
		return append(out, s...)
	}
	out = appendInteger(out, uint64(huffmanEncodedLen(s)), 7, 0x80)
	return appendHuffman(out, s)
}

// decodeStringInto decodes one RFC 7541 §5.2 string literal from the start
// of in into dst, returning the number of input bytes consumed. maxLen
// bounds the claimed octet length (0 means unbounded), guarding against a
// peer claiming an absurd literal length before any allocation happens.
func decodeStringInto(dst *decodedString, in []byte, maxLen int) (consumed int, err error) {
	if len(in) == 0 {
		return 0, incompleteErr("decodeString", 1)
	}

	huffman := in[0]&0x80 != 0
	length, n, err := decodeInteger(in, 7)
	if err != nil {
		return 0, err
	}
	if maxLen > 0 && length > uint64(maxLen) {
		return 0, protoErr("decodeString", ErrStringTooLong)
	}

	rest := in[n:]
	if uint64(len(rest)) < length {
		return 0, incompleteErr("decodeString", int(length)-len(rest))
	}

	payload := rest[:length]
	if huffman {
		if err := dst.setHuffman(payload); err != nil {
			return 0, err
		}
	} else {
		dst.setView(payload)
	}

	return n + int(length), nil
}
