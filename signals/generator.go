package signals

import "github.com/rustyeddy/signaltrader/indicators"

// Generator remembers the previous snapshot between evaluation cycles.
type Generator struct {
	params  Params
	prev    indicators.Snapshot
	hasPrev bool
}

func NewGenerator(p Params) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Generator{params: p}, nil
}

func (g *Generator) Params() Params { return g.params }

// Next evaluates curr against the retained snapshot and then retains curr.
// The first call only primes the generator.
func (g *Generator) Next(curr indicators.Snapshot) (Signal, bool) {
	defer func() {
		g.prev = curr
		g.hasPrev = true
	}()
	if !g.hasPrev {
		return Signal{}, false
	}
	return Evaluate(g.prev, curr, g.params)
}

// Reset forgets the retained snapshot.
func (g *Generator) Reset() {
	g.prev = indicators.Snapshot{}
	g.hasPrev = false
}
