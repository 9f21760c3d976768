// Copyright 2025 Seth Burkart
//
// Package conversion turns legacy presentation decks into PDF in the
// background. The pipeline is single-flight: starting a new job cancels the
// one in progress, and a cancelled job's completion is discarded instead of
// being delivered. Completions are marshalled back onto the privileged
// dispatch loop through an injected post function, so the callback runs
// with the same serialization guarantees as every other operation handler.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNoConverter is returned when no conversion strategy can handle the
// source file.
var ErrNoConverter = errors.New("no conversion strategy available")

// DefaultTimeout bounds a single conversion job.
const DefaultTimeout = 90 * time.Second

// Converter is one conversion strategy. Convert writes a PDF into outDir
// and returns its path. Producing the output file is the success
// predicate; an exit status alone proves nothing.
type Converter interface {
	Name() string
	Available() bool
	Convert(ctx context.Context, src, outDir string) (string, error)
}

// Pipeline runs conversions one at a time, newest wins.
type Pipeline struct {
	post       func(func())
	converters []Converter
	outDir     string
	timeout    time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithConverters replaces the default strategy chain.
func WithConverters(converters ...Converter) PipelineOption {
	return func(p *Pipeline) { p.converters = converters }
}

// WithOutDir sets where converted PDFs are written.
func WithOutDir(dir string) PipelineOption {
	return func(p *Pipeline) { p.outDir = dir }
}

// WithTimeout bounds each conversion job.
func WithTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.timeout = d }
}

// NewPipeline returns a pipeline whose completions are delivered through
// post. The default strategy chain is LibreOffice first, then the
// in-process deck reader.
func NewPipeline(post func(func()), opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		post:    post,
		outDir:  filepath.Join(os.TempDir(), "openlp-mcp-conversions"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.converters == nil {
		p.converters = []Converter{NewLibreOffice(""), DeckFallback{}}
	}
	return p
}

// Start begins converting src in the background. done is posted to the
// privileged loop exactly once, unless a later Start supersedes this job
// first, in which case it is never called.
func (p *Pipeline) Start(src, title string, done func(pdfPath string, err error)) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	p.cancel = cancel
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	go func() {
		defer cancel()
		pdfPath, err := p.convert(ctx, src)
		if err != nil {
			log.Printf("Conversion of %s failed: %v", src, err)
		}

		p.mu.Lock()
		stale := gen != p.generation
		p.mu.Unlock()
		if stale {
			// Superseded while running. Drop the result and its output.
			if pdfPath != "" {
				os.Remove(pdfPath)
			}
			return
		}
		p.post(func() { done(pdfPath, err) })
	}()
}

func (p *Pipeline) convert(ctx context.Context, src string) (string, error) {
	if err := os.MkdirAll(p.outDir, 0755); err != nil {
		return "", fmt.Errorf("create conversion dir: %w", err)
	}
	var lastErr error = ErrNoConverter
	for _, c := range p.converters {
		if !c.Available() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pdfPath, err := c.Convert(ctx, src, p.outDir)
		if err == nil {
			return pdfPath, nil
		}
		log.Printf("Converter %s failed for %s: %v", c.Name(), src, err)
		lastErr = err
	}
	return "", lastErr
}
