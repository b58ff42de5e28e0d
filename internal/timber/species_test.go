package timber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := Parse(" oak ")
	require.NoError(t, err)
	assert.Equal(t, Oak, s)

	_, err = Parse("balsa")
	assert.ErrorContains(t, err, "unknown wood species")
}

func TestMass(t *testing.T) {
	// 0.1 x 0.1 x 2.2 post
	assert.InDelta(t, 9.9, Mass(Spruce, 0.022), 1e-9)
	assert.InDelta(t, 15.18, Mass(Oak, 0.022), 1e-9)
	assert.InDelta(t, Mass(Default, 1), Mass("TEAK", 1), 1e-9)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"FIR", "OAK", "PINE", "SPRUCE"}, Names())
}
