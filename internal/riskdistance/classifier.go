package riskdistance

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// State of a Classifier.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// LoadFunc returns the current reference population in a stable order.
type LoadFunc func(ctx context.Context) ([]Vector, error)

// Classifier owns the model built from the reference population. Rebuilds are
// serialized; readers always see a complete snapshot, possibly a stale one.
type Classifier struct {
	load LoadFunc

	rebuildMu sync.Mutex
	model     atomic.Pointer[Model]
}

func NewClassifier(load LoadFunc) *Classifier {
	return &Classifier{load: load}
}

func (c *Classifier) State() State {
	if c.model.Load() != nil {
		return StateReady
	}
	return StateUninitialized
}

// Snapshot returns the current model or nil when uninitialized.
func (c *Classifier) Snapshot() *Model {
	return c.model.Load()
}

// Rebuild reloads the population and swaps in a new model. A population below
// MinPopulation moves the classifier back to uninitialized. A load failure
// leaves the current snapshot in place.
func (c *Classifier) Rebuild(ctx context.Context) (*Model, error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	return c.rebuildLocked(ctx)
}

func (c *Classifier) rebuildLocked(ctx context.Context) (*Model, error) {
	population, err := c.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference population: %w", err)
	}

	m, err := Build(population)
	if err != nil {
		c.model.Store(nil)
		return nil, err
	}
	c.model.Store(m)
	return m, nil
}

// Ensure returns the current model, building it first if there is none.
func (c *Classifier) Ensure(ctx context.Context) (*Model, error) {
	if m := c.model.Load(); m != nil {
		return m, nil
	}

	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	if m := c.model.Load(); m != nil {
		return m, nil
	}
	return c.rebuildLocked(ctx)
}

// Classify scores v against the current model, building it lazily.
func (c *Classifier) Classify(ctx context.Context, v Vector) (Result, error) {
	m, err := c.Ensure(ctx)
	if err != nil {
		return Result{}, err
	}
	return m.Classify(v), nil
}
