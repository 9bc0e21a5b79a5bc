package entity

// Index is the in-memory entity graph: every entity, indexed by kind and
// id, plus the insertion order every deterministic downstream component
// relies on.
type Index struct {
	byKind map[Kind]map[string]*Entity
	order  []*Entity // insertion order == lexicographic path order
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	idx := &Index{byKind: make(map[Kind]map[string]*Entity, len(Kinds))}
	for _, k := range Kinds {
		idx.byKind[k] = make(map[string]*Entity)
	}
	return idx
}

// Insert adds e to the index under (e.Kind, e.ID). If an entity with the
// same (kind, id) already exists, Get returns e from then on, while All,
// OfKind and Len still include both entities — duplicate ids within a type
// are allowed at index build time and surfaced later by the schema
// validator as an id/filename mismatch on one of the files.
func (idx *Index) Insert(e *Entity) {
	idx.byKind[e.Kind][e.ID] = e
	idx.order = append(idx.order, e)
}

// Get looks up an entity by kind and id.
func (idx *Index) Get(kind Kind, id string) (*Entity, bool) {
	e, ok := idx.byKind[kind][id]
	return e, ok
}

// All returns every entity in insertion order.
func (idx *Index) All() []*Entity {
	return idx.order
}

// OfKind returns every entity of a given kind, in insertion order.
func (idx *Index) OfKind(kind Kind) []*Entity {
	var out []*Entity
	for _, e := range idx.order {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the total number of indexed entities.
func (idx *Index) Len() int {
	return len(idx.order)
}
