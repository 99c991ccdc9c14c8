package stage

// Registry records runtime dependencies without touching the file system.
// Entries are keyed by destination: re-registering a destination replaces
// its source but keeps the original position.
type Registry struct {
	order []string
	index map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]string)}
}

// Stage implements Sink.
func (r *Registry) Stage(p Pair) error {
	r.Add(p.Destination, p.Source)
	return nil
}

// Add registers src to be staged at dst.
func (r *Registry) Add(dst, src string) {
	if _, ok := r.index[dst]; !ok {
		r.order = append(r.order, dst)
	}
	r.index[dst] = src
}

// Lookup returns the source registered for dst.
func (r *Registry) Lookup(dst string) (string, bool) {
	src, ok := r.index[dst]
	return src, ok
}

// Len returns the number of registered destinations.
func (r *Registry) Len() int {
	return len(r.order)
}

// Pairs returns the registrations in first-insertion order.
func (r *Registry) Pairs() []Pair {
	pairs := make([]Pair, 0, len(r.order))
	for _, dst := range r.order {
		pairs = append(pairs, Pair{Destination: dst, Source: r.index[dst]})
	}
	return pairs
}
