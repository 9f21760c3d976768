// Copyright 2025 Seth Burkart
//
// Package worker implements the operation handlers that run on the
// privileged dispatch loop. Every handler touches the host application
// exclusively through constructor-injected capabilities, so the package has
// no ambient state and tests drive it with in-memory fakes.
package worker

import (
	"fmt"

	"github.com/SethBurkart123/openlp-mcp/internal/bridge"
	"github.com/SethBurkart123/openlp-mcp/internal/conversion"
	"github.com/SethBurkart123/openlp-mcp/internal/fetch"
	"github.com/SethBurkart123/openlp-mcp/internal/openlp"
)

// ConversionStarter starts a background deck conversion. Satisfied by
// *conversion.Pipeline.
type ConversionStarter interface {
	Start(src, title string, done func(pdfPath string, err error))
}

// StateEvent describes a host state change for the live-state feed.
type StateEvent struct {
	Type  string `json:"type"`
	Item  int    `json:"item,omitempty"`
	Slide int    `json:"slide,omitempty"`
	Title string `json:"title,omitempty"`
}

// State event types.
const (
	EventServiceChanged = "service_changed"
	EventLiveChanged    = "live_changed"
)

// Worker owns the operation handlers and their collaborators.
type Worker struct {
	bridge   *bridge.Bridge
	service  openlp.ServiceManager
	live     openlp.LiveController
	themes   openlp.ThemeManager
	opener   openlp.PresentationOpener
	songs    openlp.SongLibrary
	resolver *fetch.Resolver
	pipeline ConversionStarter
	announce func(StateEvent)
}

// Option configures optional Worker collaborators.
type Option func(*Worker)

// WithSongLibrary plugs in a real song library.
func WithSongLibrary(songs openlp.SongLibrary) Option {
	return func(w *Worker) { w.songs = songs }
}

// WithAnnouncer receives state change events for the live-state feed.
func WithAnnouncer(announce func(StateEvent)) Option {
	return func(w *Worker) { w.announce = announce }
}

// WithPipeline replaces the conversion pipeline.
func WithPipeline(p ConversionStarter) Option {
	return func(w *Worker) { w.pipeline = p }
}

// New builds a worker, registers every operation on the bridge, and
// configures slide navigation to cross item boundaries.
func New(b *bridge.Bridge, service openlp.ServiceManager, live openlp.LiveController,
	themes openlp.ThemeManager, opener openlp.PresentationOpener,
	resolver *fetch.Resolver, opts ...Option) *Worker {
	w := &Worker{
		bridge:   b,
		service:  service,
		live:     live,
		themes:   themes,
		opener:   opener,
		songs:    openlp.StubSongLibrary{},
		resolver: resolver,
		announce: func(StateEvent) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pipeline == nil {
		w.pipeline = conversion.NewPipeline(b.Post)
	}

	// Cross-item navigation matches what slide moves are expected to do
	// when driven remotely.
	live.SetSlideLimits(openlp.LimitNext)

	w.register()
	return w
}

func (w *Worker) register() {
	ops := map[string]bridge.HandlerFunc{
		"create_service":    w.createService,
		"load_service":      w.loadService,
		"save_service":      w.saveService,
		"get_service_items": w.getServiceItems,
		"add_song":          w.addSong,
		"add_custom_slide":  w.addCustomSlide,
		"add_media":         w.addMedia,
		"go_live":           w.goLive,
		"next_slide":        w.nextSlide,
		"previous_slide":    w.previousSlide,
		"list_themes":       w.listThemes,
		"set_service_theme": w.setServiceTheme,
		"create_theme":      w.createTheme,
		"get_theme_details": w.getThemeDetails,
		"update_theme":      w.updateTheme,
		"delete_theme":      w.deleteTheme,
		"duplicate_theme":   w.duplicateTheme,
		"set_item_theme":    w.setItemTheme,
		"get_item_theme":    w.getItemTheme,
		"clear_item_theme":  w.clearItemTheme,
	}
	for name, h := range ops {
		w.bridge.Register(name, h)
	}
}

// stringArg reads a string argument, "" when absent or not a string.
func stringArg(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].(string)
	return s
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing integer argument %d", i)
	}
	switch v := args[i].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("argument %d is %T, want integer", i, args[i])
	}
}

// mapArg reads an object argument, nil when absent.
func mapArg(args []any, i int) map[string]any {
	if i >= len(args) {
		return nil
	}
	m, _ := args[i].(map[string]any)
	return m
}
