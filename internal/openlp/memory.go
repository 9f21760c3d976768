// Copyright 2025 Seth Burkart
//
// In-memory host application model

package openlp

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// MemoryHost is a complete in-memory implementation of the host application
// capabilities: service manager and live controller backed by plain Go
// state, with JSON service files for load/save. Theme storage lives in the
// companion ThemeStore.
//
// It is not internally synchronized. All mutation happens on the privileged
// dispatch loop, which serializes access by construction.
type MemoryHost struct {
	items        []*ServiceItem
	fileName     string
	serviceTheme string

	selected  int // index selected by SetItem, -1 when none
	liveItem  int // index of the live item, -1 when none
	liveSlide int
	limits    SlideLimits

	// Themes holds the host's theme collection.
	Themes *ThemeStore
}

// serviceFile is the on-disk shape of a saved service.
type serviceFile struct {
	Theme string         `json:"theme,omitempty"`
	Items []*ServiceItem `json:"items"`
}

// NewMemoryHost returns an empty host with the Default theme installed and
// globally active.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		selected: -1,
		liveItem: -1,
		Themes:   NewThemeStore(),
	}
}

// New resets the service to empty and clears the live state.
func (m *MemoryHost) New() {
	m.items = nil
	m.fileName = ""
	m.serviceTheme = ""
	m.selected = -1
	m.liveItem = -1
	m.liveSlide = 0
}

// Load replaces the service with the contents of a service file.
func (m *MemoryHost) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read service file: %w", err)
	}
	var sf serviceFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse service file %s: %w", path, err)
	}
	m.New()
	m.items = sf.Items
	m.serviceTheme = sf.Theme
	m.fileName = path
	return nil
}

// Save writes the service to its current file name.
func (m *MemoryHost) Save() error {
	if m.fileName == "" {
		return fmt.Errorf("no file name set for service")
	}
	data, err := json.MarshalIndent(serviceFile{Theme: m.serviceTheme, Items: m.items}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode service: %w", err)
	}
	if err := os.WriteFile(m.fileName, data, 0644); err != nil {
		return fmt.Errorf("write service file: %w", err)
	}
	return nil
}

// SetFileName changes where Save writes.
func (m *MemoryHost) SetFileName(path string) { m.fileName = path }

// FileName reports the current target path.
func (m *MemoryHost) FileName() string { return m.fileName }

// Items returns the service items in order.
func (m *MemoryHost) Items() []*ServiceItem { return m.items }

// Item returns the item at index.
func (m *MemoryHost) Item(index int) (*ServiceItem, error) {
	if index < 0 || index >= len(m.items) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return m.items[index], nil
}

// Add appends an item to the service.
func (m *MemoryHost) Add(item *ServiceItem) { m.items = append(m.items, item) }

// SetItem selects the item at index as the live candidate.
func (m *MemoryHost) SetItem(index int) error {
	if index < 0 || index >= len(m.items) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	m.selected = index
	return nil
}

// MakeLive activates the selected item on the live output.
func (m *MemoryHost) MakeLive() error {
	if m.selected < 0 || m.selected >= len(m.items) {
		return fmt.Errorf("%w: nothing selected", ErrInvalidIndex)
	}
	m.liveItem = m.selected
	m.liveSlide = 0
	return nil
}

// ServiceTheme reports the service-level theme name.
func (m *MemoryHost) ServiceTheme() string { return m.serviceTheme }

// SetServiceTheme sets the service-level theme name.
func (m *MemoryHost) SetServiceTheme(name string) { m.serviceTheme = name }

// SetSlideLimits configures the boundary-crossing policy.
func (m *MemoryHost) SetSlideLimits(limits SlideLimits) { m.limits = limits }

// Position reports the live item and slide indexes.
func (m *MemoryHost) Position() (int, int, error) {
	if m.liveItem < 0 {
		return 0, 0, ErrNoLiveItem
	}
	return m.liveItem, m.liveSlide, nil
}

// Next advances one slide, crossing item boundaries per the policy.
func (m *MemoryHost) Next() error {
	if m.liveItem < 0 {
		return ErrNoLiveItem
	}
	slides := len(m.items[m.liveItem].Slides)
	if m.liveSlide+1 < slides {
		m.liveSlide++
		return nil
	}
	switch m.limits {
	case LimitWrap:
		m.liveSlide = 0
	case LimitNext:
		if m.liveItem+1 < len(m.items) {
			m.liveItem++
			m.liveSlide = 0
		}
	}
	return nil
}

// Previous retreats one slide under the same policy.
func (m *MemoryHost) Previous() error {
	if m.liveItem < 0 {
		return ErrNoLiveItem
	}
	if m.liveSlide > 0 {
		m.liveSlide--
		return nil
	}
	switch m.limits {
	case LimitWrap:
		if n := len(m.items[m.liveItem].Slides); n > 0 {
			m.liveSlide = n - 1
		}
	case LimitNext:
		if m.liveItem > 0 {
			m.liveItem--
			if n := len(m.items[m.liveItem].Slides); n > 0 {
				m.liveSlide = n - 1
			} else {
				m.liveSlide = 0
			}
		}
	}
	return nil
}

// ThemeStore is an in-memory ThemeManager. Like MemoryHost it relies on
// the privileged dispatch loop for serialization.
type ThemeStore struct {
	themes map[string]*Theme
	global string
}

// NewThemeStore returns a store with the Default theme installed and
// globally active.
func NewThemeStore() *ThemeStore {
	return &ThemeStore{
		themes: map[string]*Theme{DefaultThemeName: NewTheme(DefaultThemeName)},
		global: DefaultThemeName,
	}
}

// Names lists theme names in sorted order.
func (s *ThemeStore) Names() []string {
	names := make([]string, 0, len(s.themes))
	for name := range s.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named theme.
func (s *ThemeStore) Get(name string) (*Theme, error) {
	t, ok := s.themes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}
	return t, nil
}

// Save creates or replaces a theme.
func (s *ThemeStore) Save(theme *Theme) error {
	if theme.Name == "" {
		return fmt.Errorf("theme name cannot be empty")
	}
	s.themes[theme.Name] = theme
	return nil
}

// Delete removes a theme.
func (s *ThemeStore) Delete(name string) error {
	if _, ok := s.themes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}
	delete(s.themes, name)
	return nil
}

// Clone copies an existing theme under a new name.
func (s *ThemeStore) Clone(src *Theme, newName string) error {
	if _, ok := s.themes[newName]; ok {
		return fmt.Errorf("%w: %s", ErrThemeExists, newName)
	}
	s.themes[newName] = src.Copy(newName)
	return nil
}

// GlobalTheme reports the globally active theme name.
func (s *ThemeStore) GlobalTheme() string { return s.global }

var (
	_ ServiceManager = (*MemoryHost)(nil)
	_ LiveController = (*MemoryHost)(nil)
	_ ThemeManager   = (*ThemeStore)(nil)
)
