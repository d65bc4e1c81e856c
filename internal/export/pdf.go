// internal/export/pdf.go
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"flipbook/internal/frame"
)

const (
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 600

	pageMargin = 24.0
)

// Options controls how frames are laid out in the PDF
type Options struct {
	// CanvasWidth and CanvasHeight are the drawing surface size in the same
	// units as the line coordinates
	CanvasWidth  float64
	CanvasHeight float64
	Title        string
	FrameNumbers bool
}

func (o Options) withDefaults() Options {
	if o.CanvasWidth <= 0 {
		o.CanvasWidth = DefaultCanvasWidth
	}
	if o.CanvasHeight <= 0 {
		o.CanvasHeight = DefaultCanvasHeight
	}
	return o
}

// PDF renders one page per frame, scaling the canvas to fit an A4 landscape
// page
func PDF(w io.Writer, frames []*frame.Frame, opts Options) error {
	opts = opts.withDefaults()

	p := gofpdf.New("L", "pt", "A4", "")
	if opts.Title != "" {
		p.SetTitle(opts.Title, true)
	}
	p.SetCreator("flipbook", true)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	pageW, pageH := p.GetPageSize()
	scale := min((pageW-2*pageMargin)/opts.CanvasWidth, (pageH-2*pageMargin)/opts.CanvasHeight)
	originX := (pageW - opts.CanvasWidth*scale) / 2
	originY := (pageH - opts.CanvasHeight*scale) / 2

	for i, f := range frames {
		p.AddPage()

		p.SetDrawColor(200, 200, 200)
		p.SetLineWidth(0.5)
		p.Rect(originX, originY, opts.CanvasWidth*scale, opts.CanvasHeight*scale, "D")

		for _, line := range f.Lines {
			r, g, b := parseColor(line.Color)
			p.SetDrawColor(r, g, b)
			p.SetFillColor(r, g, b)
			width := max(line.LineWidth*scale, 0.1)
			p.SetLineWidth(width)

			if len(line.Position) == 1 {
				pt := line.Position[0]
				p.Circle(originX+pt.X*scale, originY+pt.Y*scale, width/2, "F")
				continue
			}
			for j := 1; j < len(line.Position); j++ {
				from, to := line.Position[j-1], line.Position[j]
				p.Line(originX+from.X*scale, originY+from.Y*scale, originX+to.X*scale, originY+to.Y*scale)
			}
		}

		if opts.FrameNumbers {
			p.SetFont("Helvetica", "", 10)
			p.SetTextColor(120, 120, 120)
			p.Text(originX, pageH-pageMargin/2, fmt.Sprintf("%d / %d", i+1, len(frames)))
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// parseColor reads #rrggbb or #rgb, falling back to black
func parseColor(c frame.Color) (int, int, int) {
	s := strings.TrimPrefix(string(c), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
