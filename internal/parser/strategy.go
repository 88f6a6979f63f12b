package parser

// strategy is one way of recovering a field. Strategies for a field are
// tried in order and the first one that reports ok wins.
type strategy[T any] struct {
	name string
	run  func(pc *pageContext) (T, bool)
}

func firstOf[T any](pc *pageContext, strategies []strategy[T]) (T, string, bool) {
	for _, s := range strategies {
		if v, ok := s.run(pc); ok {
			return v, s.name, true
		}
	}
	var zero T
	return zero, "", false
}
