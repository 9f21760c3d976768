// Copyright 2025 Seth Burkart
//
// Package openlp defines the capability interfaces the control surface needs
// from the host presentation application, plus the shared data types those
// capabilities exchange. Handlers receive these capabilities by constructor
// injection; nothing in this module reaches for ambient global state.
package openlp

import "errors"

// ErrInvalidIndex is returned for out-of-range service item indexes.
var ErrInvalidIndex = errors.New("invalid item index")

// ErrThemeNotFound is returned when a named theme does not exist.
var ErrThemeNotFound = errors.New("theme not found")

// ErrThemeExists is returned when creating a theme whose name is taken.
var ErrThemeExists = errors.New("theme already exists")

// ErrNoLiveItem is returned by slide navigation when nothing is live.
var ErrNoLiveItem = errors.New("no item is live")

// ErrSongNotFound is returned by SongLibrary lookups that match nothing.
var ErrSongNotFound = errors.New("song not found")

// ItemType classifies a service item's content.
type ItemType string

const (
	ItemText    ItemType = "text"
	ItemImage   ItemType = "image"
	ItemCommand ItemType = "command"
)

// SlideLimits is the navigation policy applied when a slide move crosses the
// boundary of the live item.
type SlideLimits int

const (
	// LimitEnd stops at the first/last slide of the live item.
	LimitEnd SlideLimits = iota
	// LimitWrap wraps around within the live item.
	LimitWrap
	// LimitNext moves into the neighboring service item.
	LimitNext
)

// Slide is one presentable unit within a service item.
type Slide struct {
	// Text is the slide body for text items.
	Text string `json:"text,omitempty"`
	// File is the backing file for image/command slides.
	File string `json:"file,omitempty"`
	// Display is the short label shown in slide lists ("Slide 3").
	Display string `json:"display,omitempty"`
}

// ServiceItem is one entry in the service: a song, custom text, image,
// media file, or presentation. The bridge treats items as opaque and
// re-fetches them by index on every operation; nothing caches them.
type ServiceItem struct {
	Title     string   `json:"title"`
	Plugin    string   `json:"plugin"`
	Type      ItemType `json:"type"`
	Theme     string   `json:"theme,omitempty"`
	Processor string   `json:"processor,omitempty"`
	Slides    []Slide  `json:"slides"`
}

// AddText appends a text slide.
func (si *ServiceItem) AddText(text string) {
	si.Slides = append(si.Slides, Slide{Text: text})
}

// AddCommand appends a file-backed slide with a display label.
func (si *ServiceItem) AddCommand(file, display string) {
	si.Slides = append(si.Slides, Slide{File: file, Display: display})
}

// ServiceManager owns the ordered collection of service items and the
// service-level theme. All methods are called exclusively from the
// privileged dispatch loop.
type ServiceManager interface {
	// New resets the service to empty.
	New()
	// Load replaces the service with the contents of a service file.
	Load(path string) error
	// Save persists the service to its current file name.
	Save() error
	// SetFileName changes where Save writes.
	SetFileName(path string)
	// FileName reports the current target path ("" if never set).
	FileName() string
	// Items returns the service items in order.
	Items() []*ServiceItem
	// Item returns the item at index, or ErrInvalidIndex.
	Item(index int) (*ServiceItem, error)
	// Add appends an item to the service.
	Add(item *ServiceItem)
	// SetItem selects the item at index as the live candidate.
	SetItem(index int) error
	// MakeLive activates the selected item on the live output.
	MakeLive() error
	// ServiceTheme reports the service-level theme name.
	ServiceTheme() string
	// SetServiceTheme sets the service-level theme name.
	SetServiceTheme(name string)
}

// LiveController drives the live output's slide position.
type LiveController interface {
	// Next advances one slide, crossing item boundaries per the configured
	// navigation policy.
	Next() error
	// Previous retreats one slide under the same policy.
	Previous() error
	// SetSlideLimits configures the boundary-crossing policy.
	SetSlideLimits(limits SlideLimits)
	// Position reports the live item index and slide index, or an error
	// when nothing is live.
	Position() (item, slide int, err error)
}

// ThemeManager stores display themes. The "Default" theme always exists and
// one theme is globally active.
type ThemeManager interface {
	// Names lists theme names in sorted order.
	Names() []string
	// Get returns the named theme, or ErrThemeNotFound.
	Get(name string) (*Theme, error)
	// Save creates or replaces a theme.
	Save(theme *Theme) error
	// Delete removes a theme. Policy checks (default/global refusals) are
	// the caller's responsibility.
	Delete(name string) error
	// Clone copies an existing theme under a new name.
	Clone(src *Theme, newName string) error
	// GlobalTheme reports the globally active theme name.
	GlobalTheme() string
}

// PresentationDocument is a loaded presentation file. PageCount is a
// required capability: the host adapter must answer it directly rather than
// the caller probing alternative method names.
type PresentationDocument interface {
	// PageCount reports the number of pages/slides (at least 1 for a
	// loadable document).
	PageCount() int
	// Path reports the backing file.
	Path() string
	// Close releases the document.
	Close() error
}

// PresentationOpener loads presentation files for display.
type PresentationOpener interface {
	// Enabled reports whether presentation support is available.
	Enabled() bool
	// Open loads the document at path.
	Open(path string) (PresentationDocument, error)
}

// Song is a library entry used to build song service items.
type Song struct {
	Title  string
	Author string
	Lyrics string
}

// SongLibrary looks up existing songs by title. It is an optional
// capability; when the host has none, a stub that always reports
// ErrSongNotFound is used and add-song falls back to placeholder items.
type SongLibrary interface {
	Find(title string) (*Song, error)
}

// StubSongLibrary is the safe default SongLibrary: every lookup misses.
type StubSongLibrary struct{}

// Find always returns ErrSongNotFound.
func (StubSongLibrary) Find(string) (*Song, error) { return nil, ErrSongNotFound }
