package creds

// Multi concatenates several iterators, draining them in declaration order.
// Its size is the sum of its children's sizes.
type Multi struct {
	iters  []Iterator
	cur    int
	size   uint64
}

// NewMulti builds a Multi over the given children, in the order they will be
// drained.
func NewMulti(iters ...Iterator) *Multi {
	var size uint64
	for _, it := range iters {
		size += it.SearchSpaceSize()
	}
	return &Multi{iters: iters, size: size}
}

func (m *Multi) SearchSpaceSize() uint64 { return m.size }

// Next drains the current child iterator before advancing to the next one,
// skipping past exhausted children until one yields a value or all are
// drained.
func (m *Multi) Next() (string, bool) {
	for m.cur < len(m.iters) {
		v, ok := m.iters[m.cur].Next()
		if ok {
			return v, true
		}
		m.cur++
	}
	return "", false
}

// Clone deep-clones every child so the parent Cartesian-product loop can
// re-scan the union from the start.
func (m *Multi) Clone() Iterator {
	clones := make([]Iterator, len(m.iters))
	for i, it := range m.iters {
		clones[i] = it.Clone()
	}
	return NewMulti(clones...)
}
