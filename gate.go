package trafficlight

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Gate waits for a phase and runs its action, Count times or forever when
// Count is zero.
//
// Gates on the same light share its queue: a transition received by one
// gate is not seen by the others.
type Gate struct {
	name    string
	waitFor Phase
	count   int
	action  Action
}

// NewGate builds a gate from cfg, filling the same defaults as LoadConfig.
func NewGate(cfg *GateConfig) (*Gate, error) {
	c := *cfg
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	action, err := NewAction(&c)
	if err != nil {
		return nil, fmt.Errorf("gate %s: %w", c.Name, err)
	}
	return &Gate{
		name:    c.Name,
		waitFor: c.WaitFor,
		count:   c.Count,
		action:  action,
	}, nil
}

func (g *Gate) Name() string {
	return g.name
}

// Run returns nil when ctx is cancelled while waiting. Action errors do not
// stop the gate; they are joined and returned at the end.
func (g *Gate) Run(ctx context.Context, light *TrafficLight) error {
	var errs error
	for i := 0; g.count == 0 || i < g.count; i++ {
		logger.Debug("gate waiting", "gate", g.name, "wait_for", g.waitFor)
		if err := light.WaitForPhaseContext(ctx, g.waitFor); err != nil {
			return errs
		}
		state := &State{
			Gate:         g.name,
			Activation:   i,
			ActivationID: uuid.NewString(),
			Phase:        g.waitFor,
		}
		actx := context.WithValue(ctx, stateKey, state)
		newLoggerFromContext(actx).Info("gate opened", "action", g.action.Name())
		if err := g.action.Run(actx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("gate %s activation %d failed: %w", g.name, i, err))
		}
	}
	return errs
}
