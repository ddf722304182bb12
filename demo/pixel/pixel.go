// Package pixel models the single RGB status pixel the demo controllers drive.
package pixel

import (
	"fmt"
	"io"
	"sync"
)

// Color is an RGB triple as written to the pixel
type Color struct {
	R, G, B uint8
}

var (
	Off    = Color{}
	Green  = Color{0, 10, 0}
	Yellow = Color{10, 10, 0}
	Red    = Color{10, 0, 0}
	Blue   = Color{0, 0, 10}
)

func (c Color) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Light is the output a state drives
type Light interface {
	Set(c Color)
}

// Terminal writes every color change as a line to w
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Set(c Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "pixel %s\n", c)
}

// Recorder keeps every color it was set to
type Recorder struct {
	mu     sync.Mutex
	colors []Color
}

func (r *Recorder) Set(c Color) {
	r.mu.Lock()
	r.colors = append(r.colors, c)
	r.mu.Unlock()
}

// Colors returns a copy of the recorded colors
func (r *Recorder) Colors() []Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Color(nil), r.colors...)
}

// Last returns the most recent color, or Off when nothing was set
func (r *Recorder) Last() Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.colors) == 0 {
		return Off
	}
	return r.colors[len(r.colors)-1]
}
