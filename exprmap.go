package rewrite

// ExprMap is a map keyed by structural equivalence. Keys iterate in
// insertion order.
type ExprMap[V any] struct {
	buckets map[uint64][]int
	keys    []Expr
	vals    []V
	dead    []bool
	live    int
}

func NewExprMap[V any]() *ExprMap[V] {
	return &ExprMap[V]{buckets: map[uint64][]int{}}
}

func (m *ExprMap[V]) find(k Expr) int {
	for _, i := range m.buckets[k.Hash()] {
		if !m.dead[i] && Equivalent(m.keys[i], k) {
			return i
		}
	}
	return -1
}

func (m *ExprMap[V]) Get(k Expr) (V, bool) {
	if i := m.find(k); i >= 0 {
		return m.vals[i], true
	}
	var zero V
	return zero, false
}

// Put stores v under k, keeping the position of an existing key.
func (m *ExprMap[V]) Put(k Expr, v V) {
	if i := m.find(k); i >= 0 {
		m.vals[i] = v
		return
	}
	h := k.Hash()
	m.buckets[h] = append(m.buckets[h], len(m.keys))
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
	m.dead = append(m.dead, false)
	m.live++
}

func (m *ExprMap[V]) Delete(k Expr) bool {
	i := m.find(k)
	if i < 0 {
		return false
	}
	m.dead[i] = true
	var zero V
	m.vals[i] = zero
	m.live--
	return true
}

func (m *ExprMap[V]) Len() int { return m.live }

// Keys returns the live keys in insertion order.
func (m *ExprMap[V]) Keys() []Expr {
	out := make([]Expr, 0, m.live)
	for i, k := range m.keys {
		if !m.dead[i] {
			out = append(out, k)
		}
	}
	return out
}

// Range calls f for each entry in insertion order until f returns false.
func (m *ExprMap[V]) Range(f func(k Expr, v V) bool) {
	for i, k := range m.keys {
		if !m.dead[i] && !f(k, m.vals[i]) {
			return
		}
	}
}
