package fulfillmentservice

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuhnIDGenerator(t *testing.T) {
	g := NewLuhnIDGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, err := g.NewOrderID()
		require.NoError(t, err)
		assert.Len(t, id, 20)
		assert.True(t, IsOrderID(id), id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestLuhnIDGenerator_ZeroPadded(t *testing.T) {
	g := &LuhnIDGenerator{random: bytes.NewReader(make([]byte, 64))}

	id, err := g.NewOrderID()

	require.NoError(t, err)
	assert.Equal(t, "00000000000000000000", id)
}

func TestLuhnIDGenerator_ReaderFailure(t *testing.T) {
	g := &LuhnIDGenerator{random: bytes.NewReader(nil)}

	_, err := g.NewOrderID()

	assert.Error(t, err)
}

func TestIsOrderID(t *testing.T) {
	assert.False(t, IsOrderID("79927398713"))
	assert.False(t, IsOrderID("00000000000000000001"))
	assert.False(t, IsOrderID("abc"))
}
