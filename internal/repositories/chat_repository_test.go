package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedPairNormalizes(t *testing.T) {
	a, b := orderedPair(7, 3)
	assert.Equal(t, int64(3), a)
	assert.Equal(t, int64(7), b)

	a, b = orderedPair(3, 7)
	assert.Equal(t, int64(3), a)
	assert.Equal(t, int64(7), b)
}
