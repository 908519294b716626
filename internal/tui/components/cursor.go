package components

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Cursor tracks a highlighted row and the scroll window of a list whose
// contents are owned elsewhere. The list length is passed on every call
// because the backing collection can change between renders.
type Cursor struct {
	pos        int
	offset     int
	maxVisible int
	keys       ListKeyMap
}

// NewCursor creates a cursor with the default list keys
func NewCursor() Cursor {
	return Cursor{keys: DefaultListKeyMap()}
}

// Pos returns the highlighted row
func (c Cursor) Pos() int { return c.pos }

// SetHeight sets how many rows fit on screen
func (c *Cursor) SetHeight(rows int) {
	c.maxVisible = max(rows, 1)
	c.ensureVisible()
}

// Reset moves to the first row
func (c *Cursor) Reset() {
	c.pos = 0
	c.offset = 0
}

// Clamp keeps the cursor inside a list of n rows
func (c *Cursor) Clamp(n int) {
	if n <= 0 {
		c.Reset()
		return
	}
	if c.pos >= n {
		c.pos = n - 1
	}
	if c.pos < 0 {
		c.pos = 0
	}
	c.ensureVisible()
}

// HandleKey moves the cursor for navigation keys and reports whether the
// key was consumed.
func (c *Cursor) HandleKey(msg tea.KeyMsg, n int) bool {
	half := max(c.maxVisible/2, 1)
	switch {
	case key.Matches(msg, c.keys.Up):
		c.pos--
	case key.Matches(msg, c.keys.Down):
		c.pos++
	case key.Matches(msg, c.keys.Home):
		c.pos = 0
	case key.Matches(msg, c.keys.End):
		c.pos = n - 1
	case key.Matches(msg, c.keys.HalfUp):
		c.pos -= half
	case key.Matches(msg, c.keys.HalfDown):
		c.pos += half
	case key.Matches(msg, c.keys.PageUp):
		c.pos -= c.maxVisible
	case key.Matches(msg, c.keys.PageDown):
		c.pos += c.maxVisible
	default:
		return false
	}
	c.Clamp(n)
	return true
}

// Window returns the [start, end) rows to render for a list of n rows
func (c Cursor) Window(n int) (int, int) {
	start := min(c.offset, max(n-1, 0))
	end := min(start+max(c.maxVisible, 1), n)
	return start, end
}

func (c *Cursor) ensureVisible() {
	// Don't adjust offset if size hasn't been set yet
	if c.maxVisible <= 0 {
		return
	}
	if c.pos < c.offset {
		c.offset = c.pos
	}
	if c.pos >= c.offset+c.maxVisible {
		c.offset = c.pos - c.maxVisible + 1
	}
}
