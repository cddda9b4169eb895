package hpack

// StaticTableSize is the number of entries in the RFC 7541 Appendix A
// static table. Valid indices are 1..StaticTableSize.
const StaticTableSize = 61

// staticTable holds the RFC 7541 Appendix A entries. Index 0 is unused so
// the array can be indexed directly by the wire index.
var staticTable = [StaticTableSize + 1]HeaderField{
	{},
	{":authority", ""},
	{":method", "GET"},
	{":method", "POST"},
	{":path", "/"},
	{":path", "/index.html"},
	{":scheme", "http"},
	{":scheme", "https"},
	{":status", "200"},
	{":status", "204"},
	{":status", "206"},
	{":status", "304"},
	{":status", "400"},
	{":status", "404"},
	{":status", "500"},
	{"accept-charset", ""},
	{"accept-encoding", "gzip, deflate"},
	{"accept-language", ""},
	{"accept-ranges", ""},
	{"accept", ""},
	{"access-control-allow-origin", ""},
	{"age", ""},
	{"allow", ""},
	{"authorization", ""},
	{"cache-control", ""},
	{"content-disposition", ""},
	{"content-encoding", ""},
	{"content-language", ""},
	{"content-length", ""},
	{"content-location", ""},
	{"content-range", ""},
	{"content-type", ""},
	{"cookie", ""},
	{"date", ""},
	{"etag", ""},
	{"expect", ""},
	{"expires", ""},
	{"from", ""},
	{"host", ""},
	{"if-match", ""},
	{"if-modified-since", ""},
	{"if-none-match", ""},
	{"if-range", ""},
	{"if-unmodified-since", ""},
	{"last-modified", ""},
	{"link", ""},
	{"location", ""},
	{"max-forwards", ""},
	{"proxy-authenticate", ""},
	{"proxy-authorization", ""},
	{"range", ""},
	{"referer", ""},
	{"refresh", ""},
	{"retry-after", ""},
	{"server", ""},
	{"set-cookie", ""},
	{"strict-transport-security", ""},
	{"transfer-encoding", ""},
	{"user-agent", ""},
	{"vary", ""},
	{"via", ""},
	{"www-authenticate", ""},
}

// Named indices for the multi-valued status/method/scheme/path groups,
// used by Encoder.EncodeStatus and by static-table convenience lookups.
const (
	idxAuthority      = 1
	idxMethodGET      = 2
	idxMethodPOST     = 3
	idxPath           = 4
	idxPathIndexHTML  = 5
	idxSchemeHTTP     = 6
	idxSchemeHTTPS    = 7
	idxStatus200      = 8
	idxStatus204      = 9
	idxStatus206      = 10
	idxStatus304      = 11
	idxStatus400      = 12
	idxStatus404      = 13
	idxStatus500      = 14
)

// staticNameIndex maps a header name to the lowest static index carrying
// it. staticExactIndex maps "name\x00value" to the exact index.
var (
	staticNameIndex  map[string]uint32
	staticExactIndex map[string]uint32
	staticValueIndex map[string]uint32
)

func init() {
	staticNameIndex = make(map[string]uint32, StaticTableSize)
	staticExactIndex = make(map[string]uint32, StaticTableSize)
	staticValueIndex = make(map[string]uint32, 16)

	for i := 1; i <= StaticTableSize; i++ {
		entry := staticTable[i]
		if _, ok := staticNameIndex[entry.Name]; !ok {
			staticNameIndex[entry.Name] = uint32(i)
		}
		if entry.Value != "" {
			staticExactIndex[entry.Name+"\x00"+entry.Value] = uint32(i)
			if _, ok := staticValueIndex[entry.Value]; !ok {
				staticValueIndex[entry.Value] = uint32(i)
			}
		}
	}
}

// staticGetEntry returns the entry at index (1..StaticTableSize). The
// caller must range-check first: index 0 returns the unused empty slot and
// an index above StaticTableSize panics. Every call site here has already
// validated the index against StaticTableSize.
func staticGetEntry(index uint32) HeaderField {
	return staticTable[index]
}

// staticFind returns the lowest static index whose name matches, and
// whether that index also carries value, following the group-scan rule of
// RFC 7541 Appendix A: same-name entries are contiguous.
func staticFind(name, value string) (nameIndex uint32, valueIndexed bool) {
	if value != "" {
		if idx, ok := staticExactIndex[name+"\x00"+value]; ok {
			return idx, true
		}
	}
	idx, ok := staticNameIndex[name]
	if !ok {
		return 0, false
	}
	return idx, false
}

// staticFindByValue resolves value against the small set of static entries
// that carry a canonical value (:method, :path, :scheme, :status,
// accept-encoding),
// returning 0 if none matches.
func staticFindByValue(value string) uint32 {
	return staticValueIndex[value]
}

// staticFindIndexed mirrors staticFind but starts from a known static name
// index rather than a name string — used when the caller already resolved
// a name to its static index and now wants to check whether value is also
// indexed under one of that name's group entries.
func staticFindIndexed(nameIndex uint32, value string) (resolvedIndex uint32, valueIndexed bool) {
	if nameIndex == 0 || nameIndex > StaticTableSize {
		return 0, false
	}
	switch nameIndex {
	case idxMethodGET, idxMethodPOST:
		if value == "GET" || value == "POST" {
			return staticFindByValue(value), true
		}
	case idxPath, idxPathIndexHTML:
		if value == "/" || value == "/index.html" {
			return staticFindByValue(value), true
		}
	case idxSchemeHTTP, idxSchemeHTTPS:
		if value == "http" || value == "https" {
			return staticFindByValue(value), true
		}
	case idxStatus200, idxStatus204, idxStatus206, idxStatus304, idxStatus400, idxStatus404, idxStatus500:
		switch value {
		case "200", "204", "206", "304", "400", "404", "500":
			return staticFindByValue(value), true
		}
	}
	if value != "" && staticTable[nameIndex].Value == value {
		return nameIndex, true
	}
	return nameIndex, false
}
