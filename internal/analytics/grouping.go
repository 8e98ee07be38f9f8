package analytics

// OrderedGroups maps group keys to accumulators and remembers the order in
// which keys were first seen. Iteration always follows that order.
type OrderedGroups[V any] struct {
	keys  []string
	items []V
	index map[string]int
}

// NewOrderedGroups creates an empty grouping
func NewOrderedGroups[V any]() *OrderedGroups[V] {
	return &OrderedGroups[V]{index: make(map[string]int)}
}

// Upsert returns the accumulator for key, creating it with init on first
// encounter. The pointer is only valid until the next Upsert.
func (g *OrderedGroups[V]) Upsert(key string, init func() V) *V {
	if i, ok := g.index[key]; ok {
		return &g.items[i]
	}
	g.index[key] = len(g.items)
	g.keys = append(g.keys, key)
	g.items = append(g.items, init())
	return &g.items[len(g.items)-1]
}

// Len returns the number of groups
func (g *OrderedGroups[V]) Len() int {
	return len(g.keys)
}

// Keys returns the group keys in first-seen order
func (g *OrderedGroups[V]) Keys() []string {
	keys := make([]string, len(g.keys))
	copy(keys, g.keys)
	return keys
}

// Each calls fn for every group in first-seen order
func (g *OrderedGroups[V]) Each(fn func(key string, acc *V)) {
	for i, key := range g.keys {
		fn(key, &g.items[i])
	}
}
