package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsListMarkers(t *testing.T) {
	in := "- first point\n* second point\n1. third point"
	out := Normalize(in)
	assert.NotContains(t, out, "- ")
	assert.NotContains(t, out, "* ")
	assert.NotContains(t, out, "1.")
}

func TestNormalizeExpandsEG(t *testing.T) {
	out := Normalize("Bring ID, e.g. a passport.")
	assert.Contains(t, out, "for example")
}

func TestNormalizeRemovesDecorativeGlyphs(t *testing.T) {
	out := Normalize("**Important** - please hold `the line`.")
	assert.NotContains(t, out, "*")
	assert.NotContains(t, out, "`")
	assert.NotContains(t, out, "-")
}

func TestNormalizeTruncatesToThreeSentences(t *testing.T) {
	in := "One. Two. Three. Four. Five."
	out := Normalize(in)
	assert.Equal(t, "One. Two. Three.", out)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	in := "- Hello e.g. world.  Extra   spaces. More text. Even more."
	once := Normalize(in)
	twice := Normalize(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	out := Normalize("hello   world\n\nfoo")
	assert.NotContains(t, out, "  ")
	assert.NotContains(t, out, "\n")
}
