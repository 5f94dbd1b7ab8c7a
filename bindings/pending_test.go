package bindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingTableShrink(t *testing.T) {
	tbl := newPendingTable()
	for i := uint64(1); i <= 100; i++ {
		tbl.Set(i, pendingRequest{ordinal: uint32(i)})
	}
	assert.Equal(t, 100, tbl.peak)

	for i := uint64(1); i <= 80; i++ {
		p, ok := tbl.Take(i)
		assert.True(t, ok)
		assert.Equal(t, uint32(i), p.ordinal)
	}
	// rebuilt once, when 24 of 100 were left
	assert.Equal(t, 20, tbl.Len())
	assert.Equal(t, 24, tbl.peak)

	_, ok := tbl.Take(1)
	assert.False(t, ok)
	assert.True(t, tbl.Has(100))

	assert.Len(t, tbl.Drain(), 20)
	assert.Zero(t, tbl.Len())
}
