// Copyright 2025 Seth Burkart
//
// In-process deck fallback: extracts slide text straight from the zip
// container and renders a plain text-only PDF. Used when LibreOffice is not
// installed; output is readable but unstyled.

package conversion

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DeckFallback converts zip-based decks (.pptx, .ppsx) without external
// tools. Binary legacy formats (.ppt, .pps) need LibreOffice.
type DeckFallback struct{}

func (DeckFallback) Name() string { return "deck-fallback" }

func (DeckFallback) Available() bool { return true }

func (DeckFallback) Convert(ctx context.Context, src, outDir string) (string, error) {
	switch strings.ToLower(filepath.Ext(src)) {
	case ".pptx", ".ppsx":
	default:
		return "", fmt.Errorf("fallback cannot read %s files, LibreOffice is required", filepath.Ext(src))
	}

	slides, err := extractDeckText(src)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pages := make([][]string, len(slides))
	for i, lines := range slides {
		pages[i] = append([]string{fmt.Sprintf("Slide %d", i+1)}, lines...)
	}
	if len(pages) == 0 {
		pages = [][]string{{"Slide 1", "No text content found"}}
	}

	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	out := filepath.Join(outDir, fmt.Sprintf("%s_%s.pdf", stem, uuid.NewString()[:8]))
	if err := writeTextPDF(out, pages); err != nil {
		return "", err
	}
	return out, nil
}

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractDeckText returns the text lines of each slide, in slide order.
func extractDeckText(path string) ([][]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open deck %s: %w", path, err)
	}
	defer zr.Close()

	type slideEntry struct {
		num  int
		file *zip.File
	}
	var entries []slideEntry
	for _, f := range zr.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		entries = append(entries, slideEntry{num: n, file: f})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].num < entries[j].num })

	slides := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rc, err := entry.file.Open()
		if err != nil {
			return nil, fmt.Errorf("read slide %d: %w", entry.num, err)
		}
		lines, err := slideLines(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse slide %d: %w", entry.num, err)
		}
		slides = append(slides, lines)
	}
	return slides, nil
}

// slideLines pulls the text runs out of one slide document. Runs within a
// paragraph concatenate into a single line.
func slideLines(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var lines []string
	var current strings.Builder
	inRun := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				if line := strings.TrimSpace(current.String()); line != "" {
					lines = append(lines, line)
				}
				current.Reset()
			}
		case xml.CharData:
			if inRun {
				current.Write(t)
			}
		}
	}
	if line := strings.TrimSpace(current.String()); line != "" {
		lines = append(lines, line)
	}
	return lines, nil
}

// writeTextPDF renders one PDF page per entry in pages, each a list of text
// lines. The output is a minimal but complete PDF 1.4 document: Helvetica
// text, letter-sized pages, classic xref table.
func writeTextPDF(path string, pages [][]string) error {
	var buf strings.Builder
	offsets := make([]int, 0, 3+2*len(pages))

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, lines := range pages {
		contentRef := 5 + 2*i
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentRef))

		var content strings.Builder
		content.WriteString("BT\n/F1 16 Tf\n20 TL\n72 720 Td\n")
		for j, line := range lines {
			if j > 0 {
				content.WriteString("T*\n")
			}
			fmt.Fprintf(&content, "(%s) Tj\n", escapePDFText(line))
		}
		content.WriteString("ET")
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream",
			content.Len(), content.String()))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)

	return os.WriteFile(path, []byte(buf.String()), 0644)
}

// escapePDFText escapes the characters that terminate or escape a PDF
// string literal and drops bytes Helvetica cannot encode.
func escapePDFText(s string) string {
	var out strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '(', ')':
			out.WriteByte('\\')
			out.WriteRune(r)
		case '\n', '\r', '\t':
			out.WriteByte(' ')
		default:
			if r >= 32 && r < 127 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

var _ Converter = DeckFallback{}
