package trafficlight

import (
	"errors"
	"fmt"
	"strings"
)

type Phase string

const (
	PhaseRed   Phase = "red"
	PhaseGreen Phase = "green"
)

var ErrInvalidPhase = errors.New("invalid phase")

// ParsePhase parses "red" or "green" case-insensitively.
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(strings.ToLower(strings.TrimSpace(s))); p {
	case PhaseRed, PhaseGreen:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q must be red or green", ErrInvalidPhase, s)
	}
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p == PhaseGreen {
		return PhaseRed
	}
	return PhaseGreen
}

func (p Phase) String() string {
	return string(p)
}

func (p *Phase) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParsePhase(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
