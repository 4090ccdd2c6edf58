package dal

// Deduplicator remembers every identity emitted during one pass.
// Identities are only ever added; nothing is forgotten until the pass ends
type Deduplicator struct {
	emitted map[RowIdentity]struct{}
}

// NewDeduplicator returns an empty set
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{emitted: make(map[RowIdentity]struct{})}
}

// Seen reports whether id was already emitted
func (d *Deduplicator) Seen(id RowIdentity) bool {
	_, ok := d.emitted[id]
	return ok
}

// Mark records id as emitted
func (d *Deduplicator) Mark(id RowIdentity) { d.emitted[id] = struct{}{} }

// Len is the number of distinct rows emitted so far
func (d *Deduplicator) Len() int { return len(d.emitted) }
