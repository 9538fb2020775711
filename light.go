package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

const (
	DefaultMinDwell     = 4 * time.Second
	DefaultMaxDwell     = 6 * time.Second
	DefaultPollInterval = time.Millisecond
)

var ErrInvalidDwell = errors.New("invalid dwell")

// PhaseQueue carries phase transitions from the cycling goroutine to waiters.
type PhaseQueue interface {
	Send(Phase)
	Receive() Phase
	ReceiveContext(ctx context.Context) (Phase, error)
}

type LightConfig struct {
	InitialPhase Phase         `yaml:"initial_phase"`
	MinDwell     time.Duration `yaml:"min_dwell"`
	MaxDwell     time.Duration `yaml:"max_dwell"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Seed         int64         `yaml:"seed"`
}

func (c *LightConfig) setDefaults() {
	if c.InitialPhase == "" {
		c.InitialPhase = PhaseRed
	}
	if c.MinDwell == 0 {
		c.MinDwell = DefaultMinDwell
	}
	if c.MaxDwell == 0 {
		c.MaxDwell = DefaultMaxDwell
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}

func (c *LightConfig) validate() error {
	if _, err := ParsePhase(string(c.InitialPhase)); err != nil {
		return err
	}
	if c.MinDwell <= 0 || c.MaxDwell < c.MinDwell {
		return fmt.Errorf("%w: min_dwell %s and max_dwell %s must satisfy 0 < min <= max", ErrInvalidDwell, c.MinDwell, c.MaxDwell)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval %s must be positive", ErrInvalidDwell, c.PollInterval)
	}
	return nil
}

// TrafficLight toggles between red and green on a random dwell and hands
// every transition to its queue. Use NewTrafficLight to create one.
//
// CurrentPhase is the source of truth for the phase; the queue only
// notifies waiters. A value taken from the queue by one waiter is not seen
// by any other.
type TrafficLight struct {
	config  LightConfig
	current atomic.Value
	queue   PhaseQueue
}

// NewTrafficLight creates a light from cfg. A nil cfg uses the defaults and
// a nil queue gets a fresh MessageQueue.
func NewTrafficLight(cfg *LightConfig, queue PhaseQueue) (*TrafficLight, error) {
	c := LightConfig{}
	if cfg != nil {
		c = *cfg
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	if queue == nil {
		queue = NewMessageQueue[Phase]()
	}
	l := &TrafficLight{
		config: c,
		queue:  queue,
	}
	l.current.Store(c.InitialPhase)
	return l, nil
}

// CurrentPhase returns the last committed phase without blocking. A light
// not built by NewTrafficLight reports red.
func (l *TrafficLight) CurrentPhase() Phase {
	if p, ok := l.current.Load().(Phase); ok {
		return p
	}
	return PhaseRed
}

// PollInterval returns how often the cycling goroutine samples the clock.
func (l *TrafficLight) PollInterval() time.Duration {
	return l.config.PollInterval
}

// Simulate starts cycling through phases in a new goroutine and returns
// immediately. The goroutine runs until ctx is done.
//
// Calling Simulate more than once starts another independent producer.
func (l *TrafficLight) Simulate(ctx context.Context) {
	go l.cycleThroughPhases(ctx, l.newRand())
}

// WaitForPhase blocks until a transition to target is received. Transitions
// to the other phase are discarded.
func (l *TrafficLight) WaitForPhase(target Phase) {
	for {
		if l.queue.Receive() == target {
			return
		}
	}
}

// WaitForPhaseContext is like WaitForPhase but returns ctx.Err() once ctx is
// done.
func (l *TrafficLight) WaitForPhaseContext(ctx context.Context, target Phase) error {
	for {
		p, err := l.queue.ReceiveContext(ctx)
		if err != nil {
			return err
		}
		if p == target {
			return nil
		}
	}
}

func (l *TrafficLight) cycleThroughPhases(ctx context.Context, rnd *rand.Rand) {
	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	dwell := l.drawDwell(rnd)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("traffic light stopped", "phase", l.CurrentPhase())
			return
		case <-ticker.C:
		}
		elapsed := time.Since(last)
		if elapsed <= dwell {
			continue
		}
		next := l.CurrentPhase().Next()
		l.current.Store(next)
		last = time.Now()
		logger.Debug("phase toggled", "phase", next, "elapsed", elapsed, "dwell", dwell)
		dwell = l.drawDwell(rnd)
		l.queue.Send(next)
	}
}

// drawDwell returns a duration uniformly distributed over [MinDwell, MaxDwell].
func (l *TrafficLight) drawDwell(rnd *rand.Rand) time.Duration {
	span := int64(l.config.MaxDwell - l.config.MinDwell)
	return l.config.MinDwell + time.Duration(rnd.Int63n(span+1))
}

func (l *TrafficLight) newRand() *rand.Rand {
	seed := l.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
