package trafficlight

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Host owns one traffic light and the gates that consume its transitions.
type Host struct {
	Config *Config

	light *TrafficLight
	gates []*Gate
}

// Run loads the config named by cli and runs a Host until it finishes or ctx
// is cancelled.
func Run(ctx context.Context, cli *CLI) error {
	if cli.Debug {
		logLevel.Set(slog.LevelDebug)
	}
	cfg, err := LoadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	h, err := NewHost(cfg)
	if err != nil {
		return err
	}
	return h.Run(ctx)
}

// NewHost validates cfg and builds the light and its gates.
func NewHost(cfg *Config) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	light, err := NewTrafficLight(cfg.Light, nil)
	if err != nil {
		return nil, err
	}
	h := &Host{
		Config: cfg,
		light:  light,
	}
	for _, c := range cfg.Gates {
		gate, err := NewGate(c)
		if err != nil {
			return nil, err
		}
		h.gates = append(h.gates, gate)
	}
	return h, nil
}

func (h *Host) Light() *TrafficLight {
	return h.light
}

// Run starts the light and all gates. It returns when every gate has
// finished its activations or ctx is cancelled. With no gates it runs until
// ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("traffic light starting",
		"phase", h.light.CurrentPhase(),
		"min_dwell", h.Config.Light.MinDwell,
		"max_dwell", h.Config.Light.MaxDwell,
		"gates", len(h.gates),
	)
	h.light.Simulate(ctx)
	go h.monitor(ctx)

	if len(h.gates) == 0 {
		<-ctx.Done()
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, g := range h.gates {
		wg.Add(1)
		go func(g *Gate) {
			defer wg.Done()
			if err := g.Run(ctx, h.light); err != nil {
				mu.Lock()
				errs = errors.Join(errs, err)
				mu.Unlock()
			}
		}(g)
	}
	wg.Wait()
	return errs
}

// monitor reports phase changes observed through CurrentPhase every poll
// interval, the way a renderer would.
func (h *Host) monitor(ctx context.Context) {
	ticker := time.NewTicker(h.light.PollInterval())
	defer ticker.Stop()
	last := h.light.CurrentPhase()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if p := h.light.CurrentPhase(); p != last {
			logger.Info("phase changed", "from", last, "to", p)
			last = p
		}
	}
}
