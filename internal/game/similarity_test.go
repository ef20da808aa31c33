package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("abbey road", "abbey road"))
}

func TestSimilarity_BothEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestSimilarity_OneEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "abc"))
}

func TestSimilarity_KnownRatios(t *testing.T) {
	// "abb" + "y road" match: 2*9/19
	assert.InDelta(t, 18.0/19.0, Similarity("abby road", "abbey road"), 1e-9)
	// "nevermin" match: 2*8/18
	assert.InDelta(t, 16.0/18.0, Similarity("nevermind", "nevermine"), 1e-9)
	assert.Less(t, Similarity("thriller", "nevermind"), 0.5)
}

func TestSimilarity_Symmetric(t *testing.T) {
	assert.InDelta(t, Similarity("kid a", "kid b"), Similarity("kid b", "kid a"), 1e-9)
}

func TestSimilarity_CountsRunesNotBytes(t *testing.T) {
	// "s1" and "r" match, the accented rune does not: 2*3/8
	assert.InDelta(t, 2.0*3.0/8.0, Similarity("rós1", "ros1"), 1e-9)
}
