package main

import (
	"fmt"
	"io"
	"strings"
)

// streamRenderer prints a streaming reply as it grows. The display normally
// only gains text, but it shrinks the moment a directive tag completes and
// is stripped; then the line is blanked and redrawn so the partial tag never
// lingers on screen.
type streamRenderer struct {
	out      io.Writer
	paint    func(string) string
	rendered string
}

func newStreamRenderer(out io.Writer, paint func(string) string) *streamRenderer {
	return &streamRenderer{out: out, paint: paint}
}

func (r *streamRenderer) fragment(display string) {
	if strings.HasPrefix(display, r.rendered) {
		fmt.Fprint(r.out, r.paint(display[len(r.rendered):]))
	} else {
		fmt.Fprint(r.out, "\r"+strings.Repeat(" ", len(r.rendered))+"\r")
		fmt.Fprint(r.out, r.paint(display))
	}
	r.rendered = display
}

// settle reconciles the line with the final message text and ends it.
func (r *streamRenderer) settle(final string) {
	if final != r.rendered {
		r.fragment(final)
	}
	fmt.Fprintln(r.out)
}
