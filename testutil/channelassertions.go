package testutil

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertReceive verifies that a channel returns a value before the given context closes, and writes into
// into out, which should be a pointer to the value type
func AssertReceive(ctx context.Context, t *testing.T, channel interface{}, out interface{}, errorMessage string) {
	t.Helper()
	chanValue := reflect.ValueOf(channel)
	outValue := reflect.ValueOf(out)
	require.Equal(t, chanValue.Kind(), reflect.Chan, "passes a channel to read from")
	require.Contains(t, []reflect.ChanDir{reflect.BothDir, reflect.RecvDir}, chanValue.Type().ChanDir(), "passes a receiving channel")
	require.Equal(t, outValue.Kind(), reflect.Ptr, "passes a pointer for out value")
	require.True(t, chanValue.Type().Elem().AssignableTo(outValue.Elem().Type()), "out value is correct type")
	chosen, recv, recvOk := reflect.Select([]reflect.SelectCase{
		{
			Dir:  reflect.SelectRecv,
			Chan: chanValue,
		},
		{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(ctx.Done()),
		},
	})
	require.Equal(t, chosen, 0, errorMessage)
	require.True(t, recvOk, errorMessage)
	outValue.Elem().Set(recv)
}

// AssertDoesReceive verifies that a channel returns some value before the given context closes
func AssertDoesReceive(ctx context.Context, t *testing.T, channel interface{}, errorMessage string) {
	t.Helper()
	chanValue := reflect.ValueOf(channel)
	require.Equal(t, chanValue.Kind(), reflect.Chan, "passes a channel to read from")
	require.Contains(t, []reflect.ChanDir{reflect.BothDir, reflect.RecvDir}, chanValue.Type().ChanDir(), "passes a receiving channel")
	chosen, _, _ := reflect.Select([]reflect.SelectCase{
		{
			Dir:  reflect.SelectRecv,
			Chan: chanValue,
		},
		{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(ctx.Done()),
		},
	})
	require.Equal(t, chosen, 0, errorMessage)
}

// AssertChannelEmpty verifies that a channel has no value currently
func AssertChannelEmpty(t *testing.T, channel interface{}, errorMessage string) {
	t.Helper()
	chanValue := reflect.ValueOf(channel)
	require.Equal(t, chanValue.Kind(), reflect.Chan, "did not pass channel to read from")
	require.Contains(t, []reflect.ChanDir{reflect.BothDir, reflect.RecvDir}, chanValue.Type().ChanDir(), "did not pass a receiving channel")
	chosen, _, _ := reflect.Select([]reflect.SelectCase{
		{
			Dir:  reflect.SelectRecv,
			Chan: chanValue,
		},
		{
			Dir: reflect.SelectDefault,
		},
	})
	require.NotEqual(t, chosen, 0, errorMessage)
}
