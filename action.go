package trafficlight

import (
	"context"
	"errors"
)

// Action is what a gate runs each time its phase arrives.
type Action interface {
	Name() string
	Run(ctx context.Context) error
}

func NewAction(cfg *GateConfig) (Action, error) {
	switch {
	case cfg.Command != nil:
		return NewCommandAction(cfg)
	case cfg.HTTP != nil:
		return NewHTTPAction(cfg)
	case cfg.TCP != nil:
		return NewTCPAction(cfg)
	default:
		return nil, errors.New("no action configured")
	}
}
