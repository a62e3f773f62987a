package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

func newColors() *Normalizer[color] {
	return NewNormalizer("color", map[string]color{
		"Red":  "red",
		"blue": "blue",
	}, "blue")
}

func TestNormalize(t *testing.T) {
	n := newColors()
	assert.Equal(t, color("red"), n.Normalize("  RED "))
	assert.Equal(t, color("blue"), n.Normalize("green"))
	assert.Equal(t, []string{"blue", "red"}, n.ValidKeys())
}

func TestParse(t *testing.T) {
	n := newColors()

	v, err := n.Parse("Red")
	require.NoError(t, err)
	assert.Equal(t, color("red"), v)

	v, err = n.Parse("")
	require.NoError(t, err)
	assert.Equal(t, color("blue"), v)

	_, err = n.Parse("green")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid color "green", valid options: blue, red`)
}
