package trafficlight

import "context"

var NewExpectCodeFunc = newExpectCodeFunc

func ContextWithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, stateKey, s)
}
