// Copyright 2025 Seth Burkart
//
// LibreOffice conversion strategy

package conversion

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// libreOfficeCandidates are probed in order when no binary is configured.
var libreOfficeCandidates = []string{
	"soffice",
	"libreoffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	"/usr/bin/soffice",
	"/usr/local/bin/soffice",
}

const versionProbeTimeout = 5 * time.Second

// LibreOffice converts decks by shelling out to a headless soffice. It
// produces much better output than the in-process fallback, so it runs
// first when a working binary exists.
type LibreOffice struct {
	binary string
}

// NewLibreOffice locates a usable soffice binary, starting with the
// override when given, then the standard candidates. The returned strategy
// reports Available false when nothing answers a version probe.
func NewLibreOffice(override string) *LibreOffice {
	candidates := libreOfficeCandidates
	if override != "" {
		candidates = append([]string{override}, candidates...)
	}
	for _, candidate := range candidates {
		if probeVersion(candidate) {
			log.Printf("Found LibreOffice at: %s", candidate)
			return &LibreOffice{binary: candidate}
		}
	}
	return &LibreOffice{}
}

func probeVersion(binary string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), versionProbeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, binary, "--version").Run() == nil
}

func (l *LibreOffice) Name() string { return "libreoffice" }

// Available reports whether a soffice binary answered the version probe.
func (l *LibreOffice) Available() bool { return l.binary != "" }

// Convert runs soffice headless and renames the produced PDF to a unique
// name. The output file existing is the success predicate; soffice exit
// codes are unreliable.
func (l *LibreOffice) Convert(ctx context.Context, src, outDir string) (string, error) {
	if l.binary == "" {
		return "", ErrNoConverter
	}
	cmd := exec.CommandContext(ctx, l.binary,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, src)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	produced := filepath.Join(outDir, stem+".pdf")
	if _, err := os.Stat(produced); err != nil {
		if runErr != nil {
			return "", fmt.Errorf("soffice failed: %w (stderr: %s)", runErr, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("soffice produced no output for %s", src)
	}

	unique := filepath.Join(outDir, fmt.Sprintf("%s_%s.pdf", stem, uuid.NewString()[:8]))
	if err := os.Rename(produced, unique); err != nil {
		// Keep the default name if the rename fails.
		return produced, nil
	}
	return unique, nil
}

var _ Converter = (*LibreOffice)(nil)
