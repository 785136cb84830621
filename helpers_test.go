package goadsym

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrpasztoradam/goadsym/internal/fixture"
	"github.com/mrpasztoradam/goadsym/internal/plcsim"
	"github.com/mrpasztoradam/goadsym/internal/symbols"
)

// houseClient connects a client to a fresh simulated house device.
func houseClient(t *testing.T, opts ...Option) (*Client, *plcsim.Device) {
	t.Helper()

	dev, err := fixture.House().Device()
	require.NoError(t, err)

	c, err := New(context.Background(), dev, opts...)
	require.NoError(t, err)
	return c, dev
}

// houseTarget resolves path in the house directory for codec tests.
func houseTarget(t *testing.T, path string) (*codec, *symbols.Symbol, *symbols.DataType) {
	t.Helper()

	dir, err := fixture.House().Directory()
	require.NoError(t, err)

	sym, dt, err := dir.Resolve(path)
	require.NoError(t, err)
	return newCodec(dir, DefaultExcludedTypePrefixes), sym, dt
}

func ints16(values ...int16) []Variable {
	out := make([]Variable, len(values))
	for i, v := range values {
		out[i] = I16(v)
	}
	return out
}

// zeroArray is a decoded array of n zero INTs starting at 0.
func zeroArray(n int) Array {
	return Array{Start: StartAt(0), Elements: ints16(make([]int16, n)...)}
}
