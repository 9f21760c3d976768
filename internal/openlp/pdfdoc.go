// Copyright 2025 Seth Burkart
//
// PDF presentation documents

package openlp

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// PDFOpener loads PDF presentations and reports their real page counts.
type PDFOpener struct{}

// Enabled reports whether presentation support is available. PDF parsing is
// in-process, so it always is.
func (PDFOpener) Enabled() bool { return true }

// Open loads the PDF at path. Documents that parse but report zero pages
// are normalized to a single page, matching how the host treats unreadable
// page metadata.
func (PDFOpener) Open(path string) (PresentationDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF %s: %w", path, err)
	}
	pages := reader.NumPage()
	if pages < 1 {
		pages = 1
	}
	return &pdfDocument{path: path, file: f, pages: pages}, nil
}

type pdfDocument struct {
	path  string
	file  *os.File
	pages int
}

func (d *pdfDocument) PageCount() int { return d.pages }

func (d *pdfDocument) Path() string { return d.path }

func (d *pdfDocument) Close() error { return d.file.Close() }

var _ PresentationOpener = PDFOpener{}
