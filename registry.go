package mind

import "sync"

// ClientFactory resolves a PathwaySpec into a concrete PathwayClient. The
// core never constructs vendor HTTP clients itself (spec §1, §9 "Global
// ChatConfig singleton ... collapses to a pure Resolver"); a Mind is
// configured with a ClientFactory that performs that resolution, or callers
// supply a pre-built PathwayClient directly on the spec.
type ClientFactory func(spec PathwaySpec) (PathwayClient, error)

// registry owns the ordered bag of Pathways and the optional master pointer.
// Reads during dispatch take a snapshot under mu; per-pathway mutable fields
// are updated independently under the Pathway's own mutex (spec §5).
type registry struct {
	factory ClientFactory

	mu       sync.Mutex
	pathways []*Pathway
	byName   map[string]*Pathway
	master   *Pathway

	cursor      int
	cursorSetOn int // size of the tied-best set the cursor was last reset against
}

func newRegistry(factory ClientFactory) *registry {
	return &registry{
		factory: factory,
		byName:  make(map[string]*Pathway),
	}
}

// add resolves spec into a Pathway and appends it to the pool (spec §4.1
// add_pathway). Returns an error if the name is already taken or the client
// factory fails.
func (r *registry) add(spec PathwaySpec) (*Pathway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[spec.Name]; exists {
		return nil, &DuplicatePathwayError{Name: spec.Name}
	}

	client := spec.Client
	if client == nil {
		if r.factory == nil {
			return nil, &NoClientFactoryError{Name: spec.Name}
		}
		c, err := r.factory(spec)
		if err != nil {
			return nil, err
		}
		client = c
	}

	p := newPathway(spec, client)
	r.pathways = append(r.pathways, p)
	r.byName[p.Name] = p
	return p, nil
}

// configure updates a Pathway's tier and specializations in place, under the
// registry mutex (spec §4.1 configure, DESIGN NOTES "updates performed
// in-place under the registry mutex").
func (r *registry) configure(name string, tier Tier, specs []Specialization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byName[name]
	if !ok {
		return &UnknownPathwayError{Name: name}
	}
	p.Tier = tier
	if len(specs) > 0 {
		p.Specializations = specs
	}
	return nil
}

// setMaster designates the named pathway as master. Passing "" clears it.
func (r *registry) setMaster(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		r.master = nil
		return nil
	}
	p, ok := r.byName[name]
	if !ok {
		return &UnknownPathwayError{Name: name}
	}
	r.master = p
	return nil
}

// setFirstAsMaster designates the first-added pathway as master.
func (r *registry) setFirstAsMaster() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pathways) > 0 {
		r.master = r.pathways[0]
	}
}

// getMaster returns the current master, or nil.
func (r *registry) getMaster() *Pathway {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.master
}

// snapshot returns the current pathway list (spec §6 pathways read-only
// property). Callers must not mutate the returned slice's Pathway pointers'
// identity fields; health fields are safe to read via Pathway.Snapshot().
func (r *registry) snapshot() []*Pathway {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pathway, len(r.pathways))
	copy(out, r.pathways)
	return out
}

// healthyPathways returns all pathways whose breaker is not Open.
func (r *registry) healthyPathways() []*Pathway {
	all := r.snapshot()
	out := make([]*Pathway, 0, len(all))
	for _, p := range all {
		if p.IsHealthy() {
			out = append(out, p)
		}
	}
	return out
}

func (r *registry) byNameLookup(name string) (*Pathway, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byName[name]
	return p, ok
}

// next selects the healthy, non-excluded candidate maximizing
// weight*activation_rate. Pathways tied for the best score are taken in
// insertion order via an internal round-robin cursor that resets whenever
// the size of that tied set changes (spec §4.1). Falls back to any
// not-yet-tried pathway regardless of health when no healthy candidate
// exists.
func (r *registry) next(exclude map[string]struct{}) *Pathway {
	candidates := r.candidateSet(r.healthyPathways(), exclude)
	if len(candidates) == 0 {
		candidates = r.candidateSet(r.snapshot(), exclude)
	}
	if len(candidates) == 0 {
		return nil
	}

	best := bestByScore(candidates)
	if len(best) == 1 {
		return best[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursorSetOn != len(best) {
		r.cursor = 0
		r.cursorSetOn = len(best)
	}
	chosen := best[r.cursor%len(best)]
	r.cursor++
	return chosen
}

func (r *registry) candidateSet(pool []*Pathway, exclude map[string]struct{}) []*Pathway {
	out := make([]*Pathway, 0, len(pool))
	for _, p := range pool {
		if _, skip := exclude[p.Name]; skip {
			continue
		}
		out = append(out, p)
	}
	return out
}

// bestByScore returns every candidate tied for the maximum weight*activation_rate.
func bestByScore(candidates []*Pathway) []*Pathway {
	var best []*Pathway
	var bestScore float64
	for i, p := range candidates {
		s := p.score()
		if i == 0 || s > bestScore {
			bestScore = s
			best = []*Pathway{p}
		} else if s == bestScore {
			best = append(best, p)
		}
	}
	return best
}
