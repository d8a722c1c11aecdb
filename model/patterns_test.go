package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp(t *testing.T) {
	g := CreateEmptyGrid(5, 5)
	stamped := Stamp(g, Blinker, 2, 1)

	assert.Zero(t, g.CountLiving(), "stamp must copy")
	assert.True(t, stamped.Equal(gridOf(
		".....",
		".....",
		".###.",
		".....",
		".....",
	)))
}

func TestStampClipsAtEdges(t *testing.T) {
	stamped := Stamp(CreateEmptyGrid(3, 3), Block, 2, 2)
	assert.True(t, stamped.Equal(gridOf("...", "...", "..#")))

	stamped = Stamp(CreateEmptyGrid(3, 3), Glider, -1, -1)
	assert.True(t, stamped.Equal(gridOf(".#.", "##.", "...")))
}

func TestStampCentered(t *testing.T) {
	stamped := StampCentered(CreateEmptyGrid(4, 4), Block)
	assert.True(t, stamped.Equal(gridOf("....", ".##.", ".##.", "....")))
}

func TestParsePattern(t *testing.T) {
	src := `!Name: Glider
! a small spaceship
.O
..O
OOO

`
	p, err := ParsePattern(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "Glider", p.Name)
	assert.True(t, p.Cells.Equal(Glider.Cells))
	assert.NoError(t, Validate(p.Cells))
}

func TestParsePatternAcceptsStars(t *testing.T) {
	p, err := ParsePattern(strings.NewReader("**\n**\n"))
	require.NoError(t, err)
	assert.True(t, p.Cells.Equal(Block.Cells))
}

func TestParsePatternErrors(t *testing.T) {
	_, err := ParsePattern(strings.NewReader(".O\n.x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2 column 2")

	_, err = ParsePattern(strings.NewReader("!Name: nothing\n\n"))
	require.Error(t, err)
}
