package trafficlight

type stateKeyType string

const (
	stateKey stateKeyType = "state"
)

// State describes one activation of a gate. It travels in the context
// passed to actions.
type State struct {
	Gate         string
	Activation   int
	ActivationID string
	Phase        Phase
}
