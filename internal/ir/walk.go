package ir

// Walk visits v and every value reachable from it in pre-order:
// object members in source order, then array elements in index order.
// Scalars are visited but have no children.
func Walk(v Value, visit func(Value)) {
	visit(v)
	switch val := v.(type) {
	case Object:
		for _, m := range val {
			Walk(m.Value, visit)
		}
	case Array:
		for _, elem := range val {
			Walk(elem, visit)
		}
	}
}
