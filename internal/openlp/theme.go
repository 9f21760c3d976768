// Copyright 2025 Seth Burkart
//
// Theme model

package openlp

// Background types accepted by theme operations.
const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundImage    = "image"
)

// Gradient directions.
const (
	DirectionVertical   = "vertical"
	DirectionHorizontal = "horizontal"
)

// DefaultThemeName is the built-in theme that always exists and can never
// be deleted.
const DefaultThemeName = "Default"

// Theme holds the full display theme property set: background, main font,
// and footer font.
type Theme struct {
	Name string `json:"theme_name"`

	BackgroundType       string `json:"background_type"`
	BackgroundColor      string `json:"background_color,omitempty"`
	BackgroundStartColor string `json:"background_start_color,omitempty"`
	BackgroundEndColor   string `json:"background_end_color,omitempty"`
	BackgroundDirection  string `json:"background_direction,omitempty"`
	BackgroundImage      string `json:"background_image,omitempty"`

	FontMainName         string `json:"font_main_name"`
	FontMainSize         int    `json:"font_main_size"`
	FontMainColor        string `json:"font_main_color"`
	FontMainBold         bool   `json:"font_main_bold"`
	FontMainItalics      bool   `json:"font_main_italics"`
	FontMainOutline      bool   `json:"font_main_outline"`
	FontMainOutlineColor string `json:"font_main_outline_color"`
	FontMainOutlineSize  int    `json:"font_main_outline_size"`
	FontMainShadow       bool   `json:"font_main_shadow"`
	FontMainShadowColor  string `json:"font_main_shadow_color"`
	FontMainShadowSize   int    `json:"font_main_shadow_size"`

	FontFooterName  string `json:"font_footer_name"`
	FontFooterSize  int    `json:"font_footer_size"`
	FontFooterColor string `json:"font_footer_color"`
}

// NewTheme returns a theme with the standard defaults: solid black
// background, white 40pt Arial main font with shadow, white 12pt Arial
// footer.
func NewTheme(name string) *Theme {
	return &Theme{
		Name:                 name,
		BackgroundType:       BackgroundSolid,
		BackgroundColor:      "#000000",
		BackgroundStartColor: "#000000",
		BackgroundEndColor:   "#000000",
		BackgroundDirection:  DirectionVertical,
		FontMainName:         "Arial",
		FontMainSize:         40,
		FontMainColor:        "#FFFFFF",
		FontMainOutlineColor: "#000000",
		FontMainOutlineSize:  2,
		FontMainShadow:       true,
		FontMainShadowColor:  "#000000",
		FontMainShadowSize:   5,
		FontFooterName:       "Arial",
		FontFooterSize:       12,
		FontFooterColor:      "#FFFFFF",
	}
}

// Copy returns a deep copy of the theme under a new name.
func (t *Theme) Copy(name string) *Theme {
	clone := *t
	clone.Name = name
	return &clone
}
