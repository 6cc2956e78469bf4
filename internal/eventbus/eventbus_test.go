package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{ N int }

func TestEmitByType(t *testing.T) {
	b := New()
	var pings, pongs []int
	On(b, func(_ context.Context, e ping) { pings = append(pings, e.N) })
	On(b, func(_ context.Context, e pong) { pongs = append(pongs, e.N) })

	Emit(b, context.Background(), ping{N: 1})
	Emit(b, context.Background(), pong{N: 2})
	Emit(b, context.Background(), ping{N: 3})

	require.Equal(t, []int{1, 3}, pings)
	require.Equal(t, []int{2}, pongs)
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	b := New()
	var got []string
	subscribe := func(tag string) func() {
		// Same closure literal for both handlers.
		return On(b, func(_ context.Context, _ ping) { got = append(got, tag) })
	}
	unA := subscribe("a")
	subscribe("b")

	unA()
	unA()
	Emit(b, context.Background(), ping{})
	require.Equal(t, []string{"b"}, got)
}

func TestGlobalBus(t *testing.T) {
	Use(nil)
	Publish(context.Background(), ping{N: 1}) // no bus installed
	require.NotPanics(t, func() { Subscribe(func(context.Context, ping) {})() })

	Use(New())
	t.Cleanup(func() { Use(nil) })
	var n int
	unsub := Subscribe(func(_ context.Context, e ping) { n += e.N })
	Publish(context.Background(), ping{N: 2})
	unsub()
	Publish(context.Background(), ping{N: 5})
	require.Equal(t, 2, n)
}
