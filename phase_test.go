package trafficlight_test

import (
	"testing"

	"github.com/fujiwara/trafficlight"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in      string
		want    trafficlight.Phase
		wantErr bool
	}{
		{in: "red", want: trafficlight.PhaseRed},
		{in: "green", want: trafficlight.PhaseGreen},
		{in: " GREEN ", want: trafficlight.PhaseGreen},
		{in: "Red", want: trafficlight.PhaseRed},
		{in: "yellow", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := trafficlight.ParsePhase(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, trafficlight.ErrInvalidPhase, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPhaseNext(t *testing.T) {
	assert.Equal(t, trafficlight.PhaseGreen, trafficlight.PhaseRed.Next())
	assert.Equal(t, trafficlight.PhaseRed, trafficlight.PhaseGreen.Next())
	assert.Equal(t, trafficlight.PhaseRed, trafficlight.PhaseRed.Next().Next())
}

func TestPhaseUnmarshalYAML(t *testing.T) {
	var v struct {
		Phase trafficlight.Phase `yaml:"phase"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("phase: Green\n"), &v))
	assert.Equal(t, trafficlight.PhaseGreen, v.Phase)

	assert.Error(t, yaml.Unmarshal([]byte("phase: blue\n"), &v))
}
