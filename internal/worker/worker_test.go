// Copyright 2025 Seth Burkart
//
// Tests for the operation handlers

package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SethBurkart123/openlp-mcp/internal/bridge"
	"github.com/SethBurkart123/openlp-mcp/internal/fetch"
	"github.com/SethBurkart123/openlp-mcp/internal/openlp"
)

type fakeDoc struct {
	path  string
	pages int
}

func (d fakeDoc) PageCount() int { return d.pages }
func (d fakeDoc) Path() string   { return d.path }
func (d fakeDoc) Close() error   { return nil }

type fakeOpener struct {
	enabled bool
	pages   int
	openErr error
}

func (o fakeOpener) Enabled() bool { return o.enabled }
func (o fakeOpener) Open(path string) (openlp.PresentationDocument, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	return fakeDoc{path: path, pages: o.pages}, nil
}

// syncPipeline completes conversions inline. Handlers run on the privileged
// loop, so an inline completion exercises the deferred signal path.
type syncPipeline struct {
	pdfPath string
	err     error
	started []string
}

func (p *syncPipeline) Start(src, title string, done func(pdfPath string, err error)) {
	p.started = append(p.started, src)
	done(p.pdfPath, p.err)
}

type fakeSongs struct {
	songs map[string]*openlp.Song
}

func (f fakeSongs) Find(title string) (*openlp.Song, error) {
	if s, ok := f.songs[title]; ok {
		return s, nil
	}
	return nil, openlp.ErrSongNotFound
}

type testEnv struct {
	bridge *bridge.Bridge
	host   *openlp.MemoryHost
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	b := bridge.New()
	host := openlp.NewMemoryHost()
	resolver := fetch.NewResolver(fetch.WithDir(t.TempDir()))
	opts = append([]Option{WithPipeline(&syncPipeline{})}, opts...)
	New(b, host, host, host.Themes, fakeOpener{enabled: true, pages: 3}, resolver, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)
	return &testEnv{bridge: b, host: host}
}

func (e *testEnv) submit(t *testing.T, name string, args ...any) any {
	t.Helper()
	result, err := e.bridge.Submit(name, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return result
}

func wantString(t *testing.T, got any, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("result is %T (%v), want string", got, got)
	}
	if s != want {
		t.Errorf("result = %q, want %q", s, want)
	}
}

func wantContains(t *testing.T, got any, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("result is %T (%v), want string", got, got)
	}
	if !strings.Contains(s, want) {
		t.Errorf("result = %q, want it to contain %q", s, want)
	}
}

func TestCreateServiceAndListItems(t *testing.T) {
	env := newTestEnv(t)

	wantString(t, env.submit(t, "create_service"), "New service created successfully")

	items, ok := env.submit(t, "get_service_items").([]ItemSummary)
	if !ok {
		t.Fatal("get_service_items did not return a summary slice")
	}
	if len(items) != 0 {
		t.Errorf("fresh service has %d items, want 0", len(items))
	}
}

func TestAddCustomSlide(t *testing.T) {
	env := newTestEnv(t)

	wantString(t, env.submit(t, "add_custom_slide", "Announcements", "Welcome!"),
		"Custom slide 'Announcements' added to service")

	items := env.submit(t, "get_service_items").([]ItemSummary)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Plugin != "custom" || items[0].Title != "Announcements" || items[0].Order != 1 {
		t.Errorf("item = %+v, want a custom item titled Announcements at order 1", items[0])
	}
}

func TestAddSongPlaceholder(t *testing.T) {
	env := newTestEnv(t)

	result := env.submit(t, "add_song", "Amazing Grace", "John Newton",
		"Amazing grace how sweet the sound\n\nThat saved a wretch like me")
	wantString(t, result, "Song 'Amazing Grace' not found in database - added placeholder")

	item, err := env.host.Item(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(item.Slides) != 2 {
		t.Errorf("placeholder has %d slides, want 2 verse slides", len(item.Slides))
	}
}

func TestAddSongWithoutLyrics(t *testing.T) {
	env := newTestEnv(t)

	env.submit(t, "add_song", "Unknown Hymn", "", "")
	item, err := env.host.Item(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(item.Slides) != 1 || !strings.Contains(item.Slides[0].Text, "(Lyrics not available)") {
		t.Errorf("no-lyrics placeholder slides = %+v, want one availability note", item.Slides)
	}
}

func TestAddSongFromLibrary(t *testing.T) {
	library := fakeSongs{songs: map[string]*openlp.Song{
		"Amazing Grace": {Title: "Amazing Grace", Lyrics: "verse one\n\nverse two\n\nverse three"},
	}}
	env := newTestEnv(t, WithSongLibrary(library))

	wantString(t, env.submit(t, "add_song", "Amazing Grace", "", ""),
		"Song 'Amazing Grace' added from database")

	item, err := env.host.Item(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(item.Slides) != 3 {
		t.Errorf("library song has %d slides, want 3", len(item.Slides))
	}
}

func TestAddMediaClassification(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	write := func(name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	wantString(t, env.submit(t, "add_media", write("sunrise.jpg"), ""),
		"Image 'sunrise.jpg' added to service")
	wantString(t, env.submit(t, "add_media", write("intro.mp4"), "Intro Video"),
		"Video 'Intro Video' added to service")
	wantString(t, env.submit(t, "add_media", write("prelude.mp3"), ""),
		"Audio 'prelude.mp3' added to service")
	wantString(t, env.submit(t, "add_media", write("talk.pdf"), ""),
		"Presentation 'talk.pdf' with 3 slides added to service")

	items := env.submit(t, "get_service_items").([]ItemSummary)
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	plugins := []string{items[0].Plugin, items[1].Plugin, items[2].Plugin, items[3].Plugin}
	want := []string{"images", "media", "media", "presentations"}
	for i := range want {
		if plugins[i] != want[i] {
			t.Errorf("item %d plugin = %q, want %q", i, plugins[i], want[i])
		}
	}
}

func TestAddMediaUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	result := env.submit(t, "add_media", path, "")
	wantContains(t, result, "Unsupported format: .txt")
	wantContains(t, result, ".webm")
	wantContains(t, result, ".ppsx")
}

func TestAddMediaMissingFile(t *testing.T) {
	env := newTestEnv(t)
	result := env.submit(t, "add_media", filepath.Join(t.TempDir(), "missing.jpg"), "")
	wantContains(t, result, "Error adding media")
}

func TestAddMediaLegacyDeckConverts(t *testing.T) {
	pipeline := &syncPipeline{pdfPath: "/tmp/deck_converted.pdf"}
	env := newTestEnv(t, WithPipeline(pipeline))
	deck := filepath.Join(t.TempDir(), "sermon.pptx")
	if err := os.WriteFile(deck, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	result := env.submit(t, "add_media", deck, "")
	wantString(t, result, "Presentation 'sermon (converted)' with 3 slides added to service")

	if len(pipeline.started) != 1 || pipeline.started[0] != deck {
		t.Errorf("pipeline saw %v, want one start for the deck", pipeline.started)
	}
}

func TestAddMediaConversionFailure(t *testing.T) {
	pipeline := &syncPipeline{err: errors.New("soffice missing")}
	env := newTestEnv(t, WithPipeline(pipeline))
	deck := filepath.Join(t.TempDir(), "sermon.ppt")
	if err := os.WriteFile(deck, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	wantContains(t, env.submit(t, "add_media", deck, ""), "Failed to convert PowerPoint file to PDF")
}

func TestGoLiveAndNavigation(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "add_custom_slide", "First", "one")
	env.submit(t, "add_custom_slide", "Second", "two")

	wantString(t, env.submit(t, "go_live", 0), "Item 0 is now live")
	wantString(t, env.submit(t, "next_slide"), "Moved to next slide")

	// Single-slide item: crossing moves into the next item.
	item, slide, err := env.host.Position()
	if err != nil {
		t.Fatal(err)
	}
	if item != 1 || slide != 0 {
		t.Errorf("position = (%d, %d), want (1, 0)", item, slide)
	}

	wantString(t, env.submit(t, "previous_slide"), "Moved to previous slide")
}

func TestGoLiveInvalidIndex(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "add_custom_slide", "Only", "one")

	wantContains(t, env.submit(t, "go_live", 99), "Error going live")
}

func TestNavigationWithoutLiveItem(t *testing.T) {
	env := newTestEnv(t)
	wantContains(t, env.submit(t, "next_slide"), "Error moving to next slide")
}

func TestServiceSaveAndLoad(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "sunday.osj")

	env.submit(t, "add_custom_slide", "Welcome", "hello")
	wantString(t, env.submit(t, "save_service", path), "Service saved to "+path)

	env.submit(t, "create_service")
	wantString(t, env.submit(t, "load_service", path), "Service loaded from "+path)

	items := env.submit(t, "get_service_items").([]ItemSummary)
	if len(items) != 1 || items[0].Title != "Welcome" {
		t.Errorf("reloaded items = %+v, want the saved custom slide", items)
	}
}

func TestThemeLifecycle(t *testing.T) {
	env := newTestEnv(t)

	names := env.submit(t, "list_themes").([]string)
	if len(names) != 1 || names[0] != "Default" {
		t.Fatalf("initial themes = %v, want [Default]", names)
	}

	wantString(t, env.submit(t, "create_theme", map[string]any{
		"theme_name":             "Evening",
		"background_type":        "gradient",
		"background_start_color": "#000033",
		"background_end_color":   "#000000",
		"font_main_size":         float64(48),
	}), "Theme 'Evening' created successfully")

	wantString(t, env.submit(t, "create_theme", map[string]any{"theme_name": "Evening"}),
		"Theme 'Evening' already exists")

	details := env.submit(t, "get_theme_details", "Evening")
	wantContains(t, details, "background_type: gradient")
	wantContains(t, details, "font_main_size: 48")

	wantString(t, env.submit(t, "update_theme", map[string]any{
		"theme_name": "Evening",
		"updates":    map[string]any{"font_main_bold": true},
	}), "Theme 'Evening' updated: font_main_bold: true")

	wantString(t, env.submit(t, "update_theme", map[string]any{
		"theme_name": "Evening",
		"updates":    map[string]any{},
	}), "No valid properties provided to update for theme 'Evening'")

	wantString(t, env.submit(t, "duplicate_theme", "Evening", "Evening Copy"),
		"Theme 'Evening' duplicated as 'Evening Copy'")
	wantString(t, env.submit(t, "duplicate_theme", "Missing", "X"),
		"Source theme 'Missing' not found")

	wantString(t, env.submit(t, "delete_theme", "Evening Copy"),
		"Theme 'Evening Copy' deleted successfully")
	wantString(t, env.submit(t, "delete_theme", "Ghost"), "Theme 'Ghost' not found")
}

func TestDeleteThemeRefusals(t *testing.T) {
	env := newTestEnv(t)

	wantString(t, env.submit(t, "delete_theme", "Default"),
		"Cannot delete the default theme 'Default'")
}

func TestSetServiceTheme(t *testing.T) {
	env := newTestEnv(t)
	wantString(t, env.submit(t, "set_service_theme", "Evening"),
		"Service theme set to 'Evening'")
	if got := env.host.ServiceTheme(); got != "Evening" {
		t.Errorf("service theme = %q, want Evening", got)
	}
}

func TestItemThemes(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, "add_custom_slide", "Welcome", "hello")
	env.submit(t, "create_theme", map[string]any{"theme_name": "Special"})

	wantString(t, env.submit(t, "set_item_theme", 0, "Special"),
		"Item 0 ('Welcome') theme set to 'Special'")
	wantString(t, env.submit(t, "set_item_theme", 5, "Special"), "Invalid item index: 5")
	wantString(t, env.submit(t, "set_item_theme", 0, "Ghost"), "Theme 'Ghost' not found")

	details := env.submit(t, "get_item_theme", 0)
	wantContains(t, details, "Item-specific theme: 'Special'")
	wantContains(t, details, "Effective theme: 'Special'")
	wantContains(t, details, "Theme level: Song/Item")

	wantString(t, env.submit(t, "clear_item_theme", 0),
		"Item 0 ('Welcome') theme cleared (using service/global theme)")

	details = env.submit(t, "get_item_theme", 0)
	wantContains(t, details, "Item-specific theme: None")
	wantContains(t, details, "Effective theme: 'Default'")
	wantContains(t, details, "Theme level: Global")
}

func TestAnnouncerSeesStateChanges(t *testing.T) {
	var events []StateEvent
	env := newTestEnv(t, WithAnnouncer(func(ev StateEvent) { events = append(events, ev) }))

	env.submit(t, "add_custom_slide", "Welcome", "hello")
	env.submit(t, "go_live", 0)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventServiceChanged {
		t.Errorf("first event = %+v, want service change", events[0])
	}
	if events[1].Type != EventLiveChanged || events[1].Item != 0 {
		t.Errorf("second event = %+v, want live change for item 0", events[1])
	}
}

func TestIsLegacyDeck(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"deck.pptx", true},
		{"deck.PPT", true},
		{"show.pps", true},
		{"show.ppsx", true},
		{"doc.pdf", false},
		{"doc.odp", false},
		{"song.mp3", false},
	}
	for _, tt := range tests {
		if got := IsLegacyDeck(tt.path); got != tt.want {
			t.Errorf("IsLegacyDeck(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestUnknownOperation(t *testing.T) {
	env := newTestEnv(t)
	result, err := env.bridge.Submit("reboot_projector")
	if err != nil {
		t.Fatal(err)
	}
	wantContains(t, fmt.Sprint(result), "unknown operation: reboot_projector")
}
