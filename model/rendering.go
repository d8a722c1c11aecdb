package model

import (
	"bufio"
	"io"
)

const (
	gridPosBlock = "██"
	gridPosEmpty = "  "

	ansiClearHome = "\x1b[H\x1b[2J"
)

// TextRenderer draws a grid as rows of text
type TextRenderer struct {
	Alive string
	Dead  string
}

// NewTextRenderer returns a renderer using block glyphs for living cells
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{Alive: gridPosBlock, Dead: gridPosEmpty}
}

// Render writes the grid to w, one line per row
func (r *TextRenderer) Render(w io.Writer, g Grid) error {
	bw := bufio.NewWriter(w)
	for _, row := range g {
		for _, alive := range row {
			if alive {
				bw.WriteString(r.Alive)
			} else {
				bw.WriteString(r.Dead)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Clear moves the cursor home and clears the terminal screen
func (r *TextRenderer) Clear(w io.Writer) error {
	_, err := io.WriteString(w, ansiClearHome)
	return err
}
