// Copyright 2025 Seth Burkart
//
// Service, media, and live output operations

package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SethBurkart123/openlp-mcp/internal/bridge"
	"github.com/SethBurkart123/openlp-mcp/internal/fetch"
	"github.com/SethBurkart123/openlp-mcp/internal/openlp"
)

// Media classification sets. Extensions outside every set are rejected with
// a listing of what is supported.
var (
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".bmp": true, ".gif": true,
		".tiff": true, ".tif": true, ".webp": true, ".svg": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".wmv": true,
		".flv": true, ".webm": true, ".m4v": true, ".3gp": true,
	}
	audioExtensions = map[string]bool{
		".mp3": true, ".wav": true, ".ogg": true, ".flac": true, ".aac": true,
		".m4a": true, ".wma": true,
	}
	presentationExtensions = map[string]bool{
		".pdf": true, ".pptx": true, ".ppt": true, ".pps": true, ".ppsx": true,
		".odp": true,
	}
	// legacyDeckExtensions need background conversion to PDF before the
	// host can display them.
	legacyDeckExtensions = map[string]bool{
		".pptx": true, ".ppt": true, ".pps": true, ".ppsx": true,
	}
)

// IsLegacyDeck reports whether the path names a deck format that must be
// converted before display. Callers use this to pick the long timeout
// class.
func IsLegacyDeck(path string) bool {
	return legacyDeckExtensions[strings.ToLower(filepath.Ext(path))]
}

// ItemSummary is one row of a get_service_items listing.
type ItemSummary struct {
	Title  string `json:"title"`
	Type   string `json:"type"`
	Plugin string `json:"plugin"`
	Order  int    `json:"order"`
}

func (w *Worker) createService(args []any) (any, error) {
	w.service.New()
	w.announce(StateEvent{Type: EventServiceChanged})
	return "New service created successfully", nil
}

func (w *Worker) loadService(args []any) (any, error) {
	locator := stringArg(args, 0)
	resolved, err := w.resolver.Resolve(context.Background(), locator)
	if err != nil {
		return nil, fmt.Errorf("Error loading service: %v", err)
	}
	if err := w.service.Load(resolved); err != nil {
		return nil, fmt.Errorf("Error loading service: %v", err)
	}
	w.announce(StateEvent{Type: EventServiceChanged})
	if fetch.IsURL(locator) {
		return fmt.Sprintf("Service downloaded from %s and loaded successfully", locator), nil
	}
	return fmt.Sprintf("Service loaded from %s", locator), nil
}

func (w *Worker) saveService(args []any) (any, error) {
	path := stringArg(args, 0)
	if path != "" {
		w.service.SetFileName(path)
	}
	if err := w.service.Save(); err != nil {
		return nil, fmt.Errorf("Error saving service: %v", err)
	}
	if path != "" {
		return "Service saved to " + path, nil
	}
	return "Service saved", nil
}

func (w *Worker) getServiceItems(args []any) (any, error) {
	items := w.service.Items()
	summaries := make([]ItemSummary, len(items))
	for i, item := range items {
		summaries[i] = ItemSummary{
			Title:  item.Title,
			Type:   string(item.Type),
			Plugin: item.Plugin,
			Order:  i + 1,
		}
	}
	return summaries, nil
}

func (w *Worker) addSong(args []any) (any, error) {
	title := stringArg(args, 0)
	lyrics := stringArg(args, 2)

	song, err := w.songs.Find(title)
	if err == nil {
		item := &openlp.ServiceItem{Title: song.Title, Plugin: "songs", Type: openlp.ItemText}
		addVerses(item, song.Lyrics)
		w.service.Add(item)
		w.announce(StateEvent{Type: EventServiceChanged, Title: song.Title})
		return fmt.Sprintf("Song '%s' added from database", song.Title), nil
	}

	w.addSongPlaceholder(title, lyrics)
	w.announce(StateEvent{Type: EventServiceChanged, Title: title})
	return fmt.Sprintf("Song '%s' not found in database - added placeholder", title), nil
}

// addSongPlaceholder builds a text item from the supplied lyrics, split into
// verses on blank lines.
func (w *Worker) addSongPlaceholder(title, lyrics string) {
	item := &openlp.ServiceItem{Title: title, Plugin: "songs", Type: openlp.ItemText}
	if lyrics != "" {
		addVerses(item, lyrics)
	} else {
		item.AddText(fmt.Sprintf("Song: %s\n\n(Lyrics not available)", title))
	}
	w.service.Add(item)
}

func addVerses(item *openlp.ServiceItem, lyrics string) {
	for _, verse := range strings.Split(lyrics, "\n\n") {
		if verse = strings.TrimSpace(verse); verse != "" {
			item.AddText(verse)
		}
	}
}

func (w *Worker) addCustomSlide(args []any) (any, error) {
	title := stringArg(args, 0)
	content := stringArg(args, 1)
	item := &openlp.ServiceItem{Title: title, Plugin: "custom", Type: openlp.ItemText}
	item.AddText(content)
	w.service.Add(item)
	w.announce(StateEvent{Type: EventServiceChanged, Title: title})
	return fmt.Sprintf("Custom slide '%s' added to service", title), nil
}

func (w *Worker) addMedia(args []any) (any, error) {
	locator := stringArg(args, 0)
	title := stringArg(args, 1)

	resolved, err := w.resolver.Resolve(context.Background(), locator)
	if err != nil {
		return nil, fmt.Errorf("Error adding media: %v", err)
	}
	if fetch.IsURL(locator) && title == "" {
		title = filepath.Base(resolved) + " (downloaded)"
	}

	ext := strings.ToLower(filepath.Ext(resolved))
	switch {
	case imageExtensions[ext]:
		return w.addImage(resolved, title), nil
	case videoExtensions[ext]:
		return w.addPlayableMedia(resolved, title, "Video"), nil
	case audioExtensions[ext]:
		return w.addPlayableMedia(resolved, title, "Audio"), nil
	case presentationExtensions[ext]:
		return w.addPresentation(resolved, title)
	default:
		return nil, fmt.Errorf("Unsupported format: %s. Supported: %s", ext, supportedFormats())
	}
}

func supportedFormats() string {
	return fmt.Sprintf("images (%s), videos (%s), audio (%s), presentations (%s)",
		sortedKeys(imageExtensions), sortedKeys(videoExtensions),
		sortedKeys(audioExtensions), sortedKeys(presentationExtensions))
}

func sortedKeys(set map[string]bool) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func (w *Worker) addImage(path, title string) string {
	if title == "" {
		title = filepath.Base(path)
	}
	item := &openlp.ServiceItem{Title: title, Plugin: "images", Type: openlp.ItemImage}
	item.Slides = append(item.Slides, openlp.Slide{File: path, Display: filepath.Base(path)})
	w.service.Add(item)
	w.announce(StateEvent{Type: EventServiceChanged, Title: title})
	return fmt.Sprintf("Image '%s' added to service", title)
}

func (w *Worker) addPlayableMedia(path, title, kind string) string {
	if title == "" {
		title = filepath.Base(path)
	}
	item := &openlp.ServiceItem{Title: title, Plugin: "media", Type: openlp.ItemCommand}
	item.AddCommand(path, filepath.Base(path))
	w.service.Add(item)
	w.announce(StateEvent{Type: EventServiceChanged, Title: title})
	return fmt.Sprintf("%s '%s' added to service", kind, title)
}

// addPresentation routes legacy decks through the background conversion
// pipeline and loads PDFs directly. The deferred-result path is the one
// place a handler returns without a queued signal: the pipeline posts the
// completion back to the privileged loop, which signals then.
func (w *Worker) addPresentation(path, title string) (any, error) {
	if IsLegacyDeck(path) {
		pendingTitle := title
		if pendingTitle == "" {
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			pendingTitle = stem + " (converted)"
		}
		w.pipeline.Start(path, pendingTitle, func(pdfPath string, err error) {
			if err != nil {
				w.bridge.Signal(fmt.Sprintf("Failed to convert PowerPoint file to PDF: %v", err))
				return
			}
			w.bridge.Signal(w.addPDFPresentation(pdfPath, pendingTitle))
		})
		return nil, bridge.ErrDeferred
	}
	return w.addPDFPresentation(path, title), nil
}

func (w *Worker) addPDFPresentation(path, title string) string {
	if !w.opener.Enabled() {
		return "PDF controller not available - please ensure PDF support is enabled"
	}
	doc, err := w.opener.Open(path)
	if err != nil {
		return fmt.Sprintf("Failed to load presentation: %s", filepath.Base(path))
	}
	defer doc.Close()

	pages := doc.PageCount()
	if pages <= 0 {
		return fmt.Sprintf("No slides found in presentation: %s", filepath.Base(path))
	}

	if title == "" {
		title = filepath.Base(path)
	}
	item := &openlp.ServiceItem{
		Title:     title,
		Plugin:    "presentations",
		Type:      openlp.ItemCommand,
		Processor: "Pdf",
	}
	for i := 1; i <= pages; i++ {
		item.AddCommand(doc.Path(), fmt.Sprintf("Slide %d", i))
	}
	w.service.Add(item)
	w.announce(StateEvent{Type: EventServiceChanged, Title: title})
	return fmt.Sprintf("Presentation '%s' with %d slides added to service", title, pages)
}

func (w *Worker) goLive(args []any) (any, error) {
	index, err := intArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("Error going live: %v", err)
	}
	if err := w.service.SetItem(index); err != nil {
		return nil, fmt.Errorf("Error going live: %v", err)
	}
	if err := w.service.MakeLive(); err != nil {
		return nil, fmt.Errorf("Error going live: %v", err)
	}
	w.announceLive()
	return fmt.Sprintf("Item %d is now live", index), nil
}

func (w *Worker) nextSlide(args []any) (any, error) {
	if err := w.live.Next(); err != nil {
		return nil, fmt.Errorf("Error moving to next slide: %v", err)
	}
	w.announceLive()
	return "Moved to next slide", nil
}

func (w *Worker) previousSlide(args []any) (any, error) {
	if err := w.live.Previous(); err != nil {
		return nil, fmt.Errorf("Error moving to previous slide: %v", err)
	}
	w.announceLive()
	return "Moved to previous slide", nil
}

func (w *Worker) announceLive() {
	item, slide, err := w.live.Position()
	if err != nil {
		return
	}
	w.announce(StateEvent{Type: EventLiveChanged, Item: item, Slide: slide})
}
