package router

// Decorator wraps a raw message handler.
type Decorator[E Environment] func(HandlerFunc[string, E]) HandlerFunc[string, E]

// Chain applies the decorators in inverse order so that d1, d2, d3 results in d1(d2(d3(h))).
func Chain[E Environment](h HandlerFunc[string, E], ds ...Decorator[E]) HandlerFunc[string, E] {
	for i := len(ds) - 1; i >= 0; i-- {
		h = ds[i](h)
	}
	return h
}
