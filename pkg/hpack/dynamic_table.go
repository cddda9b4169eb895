package hpack

// dynamicEntry is one FIFO slot. insertedAt is the table's insertCount at
// the moment this entry was added, which is all that is needed to compute
// its current logical index without rewriting anything on eviction: index
// = StaticTableSize + 1 + (insertCount - insertedAt).
type dynamicEntry struct {
	name       string
	value      string
	insertedAt uint64
}

func (e *dynamicEntry) size() uint32 {
	return uint32(len(e.name) + len(e.value) + 32)
}

// DynamicTable is the RFC 7541 §2.3.2 sliding-window FIFO. Entries are
// appended at the newest end and evicted from the oldest end; a name-keyed
// secondary index gives expected O(1) find(name, value) lookups. Indices
// in the combined address space start at StaticTableSize+1 (62, the newest
// entry); GetEntry/Find and the other lookups here take and return those
// combined indices directly.
type DynamicTable struct {
	entries []*dynamicEntry // oldest at [0], newest at the end
	byName  map[string][]*dynamicEntry // newest-first per name

	currentSize  uint32
	maxSize      uint32
	protocolMax  uint32
	insertCount  uint64
}

// NewDynamicTable creates a table whose live capacity and protocol ceiling
// both start at maxSize, matching HTTP/2's convention that the initial
// SETTINGS value is also the working size until renegotiated.
func NewDynamicTable(maxSize uint32) *DynamicTable {
	return &DynamicTable{
		byName:      make(map[string][]*dynamicEntry),
		maxSize:     maxSize,
		protocolMax: maxSize,
	}
}

// CurrentSize returns the sum of all live entries' Size().
func (t *DynamicTable) CurrentSize() uint32 { return t.currentSize }

// MaxSize returns the table's current live capacity.
func (t *DynamicTable) MaxSize() uint32 { return t.maxSize }

// ProtocolMax returns the hard ceiling imposed by the surrounding protocol.
func (t *DynamicTable) ProtocolMax() uint32 { return t.protocolMax }

// Len returns the number of live entries.
func (t *DynamicTable) Len() int { return len(t.entries) }

// CurrentMaxIndex returns the combined-address-space index of the oldest
// entry (the highest valid index), or StaticTableSize if the table is empty (meaning "no dynamic
// entries exist", matching original_source's current_max_index()).
func (t *DynamicTable) CurrentMaxIndex() uint32 {
	return StaticTableSize + uint32(len(t.entries))
}

// AddEntry inserts (name, value), evicting oldest entries as needed to fit,
// and returns the newest combined-address-space index (StaticTableSize+1).
// If the entry alone is larger than MaxSize, the whole table is cleared
// per RFC 7541 §4.4 and 0 is returned.
func (t *DynamicTable) AddEntry(name, value string) uint32 {
	e := &dynamicEntry{name: name, value: value}
	sz := e.size()

	if sz > t.maxSize {
		t.Reset()
		return 0
	}

	t.evictUntilFits(t.maxSize - sz)

	t.insertCount++
	e.insertedAt = t.insertCount
	t.entries = append(t.entries, e)
	t.byName[name] = append([]*dynamicEntry{e}, t.byName[name]...)
	t.currentSize += sz
	return StaticTableSize + 1
}

// UpdateSize evicts oldest entries until CurrentSize <= newMax, then sets
// MaxSize to newMax. It returns a ProtocolError wrapping
// ErrTableSizeTooLarge if newMax exceeds ProtocolMax.
func (t *DynamicTable) UpdateSize(newMax uint32) error {
	if newMax > t.protocolMax {
		return protoErr("UpdateSize", ErrTableSizeTooLarge)
	}
	t.evictUntilFits(newMax)
	t.maxSize = newMax
	return nil
}

// SetProtocolMax updates the hard ceiling. If the new ceiling sits below
// the table's current live capacity, the table is shrunk to match.
func (t *DynamicTable) SetProtocolMax(limit uint32) {
	t.protocolMax = limit
	if limit < t.maxSize {
		// The ceiling can only ever narrow the table, so this cannot fail
		// the >protocolMax check inside UpdateSize.
		_ = t.UpdateSize(limit)
	}
}

// indexOf returns e's current combined-address-space index.
func (t *DynamicTable) indexOf(e *dynamicEntry) uint32 {
	return StaticTableSize + 1 + uint32(t.insertCount-e.insertedAt)
}

// GetEntry returns the entry at combined-address-space index
// StaticTableSize+1..CurrentMaxIndex(). The caller must not retain the
// result across a subsequent AddEntry/Reset.
func (t *DynamicTable) GetEntry(index uint32) (HeaderField, bool) {
	if index <= StaticTableSize || index > t.CurrentMaxIndex() {
		return HeaderField{}, false
	}
	// index StaticTableSize+1 is newest -> last element of entries.
	offset := index - StaticTableSize - 1
	e := t.entries[len(t.entries)-1-int(offset)]
	return HeaderField{Name: e.name, Value: e.value}, true
}

// Find searches the dynamic table for (name, value), returning the
// combined-address-space index of a name match (the newest one, ties
// resolved in favor of a value match if any name-matching entry also has
// the right value) and whether that index carries the exact value too.
func (t *DynamicTable) Find(name, value string) (index uint32, valueIndexed bool) {
	candidates := t.byName[name]
	if len(candidates) == 0 {
		return 0, false
	}
	for _, e := range candidates {
		if e.value == value {
			return t.indexOf(e), true
		}
	}
	// No value match: report the newest (first, since byName is
	// newest-first) name match.
	return t.indexOf(candidates[0]), false
}

// FindName returns the combined-address-space index of the newest entry
// carrying name, or 0 if none exists.
func (t *DynamicTable) FindName(name string) uint32 {
	candidates := t.byName[name]
	if len(candidates) == 0 {
		return 0
	}
	return t.indexOf(candidates[0])
}

// FindByIndex resolves nameIndex (which may be a static or dynamic
// combined-address-space index) to a name, then behaves like Find. It is
// the dynamic-table half of the encoder's "resolve name index, then check
// whether the peer would also recognize this value" path.
func (t *DynamicTable) FindByIndex(nameIndex uint32, value string) (index uint32, valueIndexed bool) {
	var name string
	if nameIndex >= 1 && nameIndex <= StaticTableSize {
		name = staticTable[nameIndex].Name
	} else if hf, ok := t.GetEntry(nameIndex); ok {
		name = hf.Name
	} else {
		return 0, false
	}
	return t.Find(name, value)
}

// Reset discards every entry.
func (t *DynamicTable) Reset() {
	t.entries = t.entries[:0]
	for k := range t.byName {
		delete(t.byName, k)
	}
	t.currentSize = 0
}

func (t *DynamicTable) evictUntilFits(bytes uint32) {
	i := 0
	for t.currentSize > bytes && i < len(t.entries) {
		e := t.entries[i]
		t.currentSize -= e.size()
		t.removeFromNameIndex(e)
		i++
	}
	t.entries = t.entries[i:]
}

func (t *DynamicTable) removeFromNameIndex(e *dynamicEntry) {
	list := t.byName[e.name]
	for i, cand := range list {
		if cand == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(t.byName, e.name)
	} else {
		t.byName[e.name] = list
	}
}
