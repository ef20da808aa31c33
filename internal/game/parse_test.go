package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1969", 1969},
		{"1969-09-26", 1969},
		{"", 0},
		{"unknown", 0},
		{"19", 19},
		{"19x9", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseYear(tt.in), tt.in)
	}
}

func TestDecade(t *testing.T) {
	assert.Equal(t, 1970, Decade(1971))
	assert.Equal(t, 1970, Decade(1978))
	assert.Equal(t, 1960, Decade(1969))
	assert.Equal(t, 2020, Decade(2020))
	assert.Equal(t, 0, Decade(0))
	assert.Equal(t, -10, Decade(-1))
}
