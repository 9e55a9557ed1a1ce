package export

import (
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"CoCanvas/internal/state"
)

// CSS pixels to millimetres on the page.
const pxToMM = 0.2

// WritePDF renders the stroke log to a single-page landscape PDF, in
// log order so overlaps match the on-screen result.
func WritePDF(path string, strokes []state.Stroke) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")

	for _, s := range strokes {
		r, g, b := hexRGB(s.Color)
		pdf.SetDrawColor(r, g, b)
		pdf.SetFillColor(r, g, b) // dot strokes render as filled circles
		pdf.SetLineWidth(s.Width * pxToMM)
		pts := s.Points
		if len(pts) == 1 {
			pdf.Circle(pts[0].X*pxToMM, pts[0].Y*pxToMM, s.Width*pxToMM/2, "F")
			continue
		}
		for i := 1; i < len(pts); i++ {
			pdf.Line(
				pts[i-1].X*pxToMM, pts[i-1].Y*pxToMM,
				pts[i].X*pxToMM, pts[i].Y*pxToMM,
			)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

// hexRGB parses "#rrggbb" (or "rrggbb"); anything unparsable renders
// black, matching the on-screen fallback.
func hexRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
