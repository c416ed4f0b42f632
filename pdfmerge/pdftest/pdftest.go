// Package pdftest builds small PDF documents for tests.
//
// Each page is sized by its width in points so that page order in a merged
// document can be read back through the page dimensions.
package pdftest

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PageHeight is the height in points of every generated page.
const PageHeight = 800.0

// Document returns a PDF with one page per width.
func Document(widths ...float64) ([]byte, error) {
	if len(widths) == 0 {
		return nil, fmt.Errorf("pdftest: at least one page width required")
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: widths[0], Ht: PageHeight},
	})
	pdf.SetFont("Helvetica", "", 12)
	for i, w := range widths {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: PageHeight})
		pdf.Text(20, 40, fmt.Sprintf("page %d (%.0fpt)", i+1, w))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdftest: render: %w", err)
	}
	return buf.Bytes(), nil
}

// MustDocument is Document for fixtures that cannot fail.
func MustDocument(widths ...float64) []byte {
	b, err := Document(widths...)
	if err != nil {
		panic(err)
	}
	return b
}
