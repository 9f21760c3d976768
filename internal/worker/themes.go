// Copyright 2025 Seth Burkart
//
// Theme management operations

package worker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/SethBurkart123/openlp-mcp/internal/fetch"
	"github.com/SethBurkart123/openlp-mcp/internal/openlp"
)

func (w *Worker) listThemes(args []any) (any, error) {
	return w.themes.Names(), nil
}

func (w *Worker) setServiceTheme(args []any) (any, error) {
	name := stringArg(args, 0)
	w.service.SetServiceTheme(name)
	return fmt.Sprintf("Service theme set to '%s'", name), nil
}

func (w *Worker) createTheme(args []any) (any, error) {
	data := mapArg(args, 0)
	name, _ := data["theme_name"].(string)
	if name == "" {
		return nil, fmt.Errorf("Error creating theme: theme_name is required")
	}
	if w.themeExists(name) {
		return fmt.Sprintf("Theme '%s' already exists", name), nil
	}

	theme := openlp.NewTheme(name)
	downloadedBackground, err := w.applyBackground(theme, data)
	if err != nil {
		return nil, err
	}

	theme.FontMainName = msString(data, "font_main_name", theme.FontMainName)
	theme.FontMainSize = msInt(data, "font_main_size", theme.FontMainSize)
	theme.FontMainColor = msString(data, "font_main_color", theme.FontMainColor)
	theme.FontMainBold = msBool(data, "font_main_bold", theme.FontMainBold)
	theme.FontMainItalics = msBool(data, "font_main_italics", theme.FontMainItalics)
	theme.FontMainOutline = msBool(data, "font_main_outline", theme.FontMainOutline)
	theme.FontMainOutlineColor = msString(data, "font_main_outline_color", theme.FontMainOutlineColor)
	theme.FontMainOutlineSize = msInt(data, "font_main_outline_size", theme.FontMainOutlineSize)
	theme.FontMainShadow = msBool(data, "font_main_shadow", theme.FontMainShadow)
	theme.FontMainShadowColor = msString(data, "font_main_shadow_color", theme.FontMainShadowColor)
	theme.FontMainShadowSize = msInt(data, "font_main_shadow_size", theme.FontMainShadowSize)
	theme.FontFooterName = msString(data, "font_footer_name", theme.FontFooterName)
	theme.FontFooterSize = msInt(data, "font_footer_size", theme.FontFooterSize)
	theme.FontFooterColor = msString(data, "font_footer_color", theme.FontFooterColor)

	if err := w.themes.Save(theme); err != nil {
		return nil, fmt.Errorf("Error creating theme: %v", err)
	}

	msg := fmt.Sprintf("Theme '%s' created successfully", name)
	if downloadedBackground {
		msg += " (background image downloaded from URL)"
	}
	return msg, nil
}

// applyBackground configures the theme background from the request data and
// reports whether a background image was downloaded.
func (w *Worker) applyBackground(theme *openlp.Theme, data map[string]any) (bool, error) {
	switch msString(data, "background_type", openlp.BackgroundSolid) {
	case openlp.BackgroundSolid:
		theme.BackgroundType = openlp.BackgroundSolid
		theme.BackgroundColor = msString(data, "background_color", "#000000")
	case openlp.BackgroundGradient:
		theme.BackgroundType = openlp.BackgroundGradient
		theme.BackgroundStartColor = msString(data, "background_start_color", "#000000")
		theme.BackgroundEndColor = msString(data, "background_end_color", "#000000")
		direction := msString(data, "background_direction", openlp.DirectionVertical)
		if direction != openlp.DirectionVertical {
			direction = openlp.DirectionHorizontal
		}
		theme.BackgroundDirection = direction
	case openlp.BackgroundImage:
		locator := msString(data, "background_image_path", "")
		if locator == "" {
			break
		}
		resolved, err := w.resolver.Resolve(context.Background(), locator)
		if err != nil {
			return false, fmt.Errorf("Error downloading background image from %s: %v", locator, err)
		}
		theme.BackgroundType = openlp.BackgroundImage
		theme.BackgroundImage = resolved
		return fetch.IsURL(locator), nil
	}
	return false, nil
}

func (w *Worker) getThemeDetails(args []any) (any, error) {
	name := stringArg(args, 0)
	theme, err := w.themes.Get(name)
	if err != nil {
		return fmt.Sprintf("Theme '%s' not found", name), nil
	}

	orNA := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	lines := []string{
		"Theme Details:",
		"theme_name: " + theme.Name,
		"background_type: " + theme.BackgroundType,
		"background_color: " + orNA(theme.BackgroundColor),
		"background_start_color: " + orNA(theme.BackgroundStartColor),
		"background_end_color: " + orNA(theme.BackgroundEndColor),
		"background_direction: " + orNA(theme.BackgroundDirection),
		"background_filename: " + orNA(theme.BackgroundImage),
		"font_main_name: " + theme.FontMainName,
		fmt.Sprintf("font_main_size: %d", theme.FontMainSize),
		"font_main_color: " + theme.FontMainColor,
		fmt.Sprintf("font_main_bold: %t", theme.FontMainBold),
		fmt.Sprintf("font_main_italics: %t", theme.FontMainItalics),
		fmt.Sprintf("font_main_outline: %t", theme.FontMainOutline),
		"font_main_outline_color: " + theme.FontMainOutlineColor,
		fmt.Sprintf("font_main_outline_size: %d", theme.FontMainOutlineSize),
		fmt.Sprintf("font_main_shadow: %t", theme.FontMainShadow),
		"font_main_shadow_color: " + theme.FontMainShadowColor,
		fmt.Sprintf("font_main_shadow_size: %d", theme.FontMainShadowSize),
		"font_footer_name: " + theme.FontFooterName,
		fmt.Sprintf("font_footer_size: %d", theme.FontFooterSize),
		"font_footer_color: " + theme.FontFooterColor,
	}
	return strings.Join(lines, "\n"), nil
}

func (w *Worker) updateTheme(args []any) (any, error) {
	data := mapArg(args, 0)
	name, _ := data["theme_name"].(string)
	updates, _ := data["updates"].(map[string]any)

	theme, err := w.themes.Get(name)
	if err != nil {
		return fmt.Sprintf("Theme '%s' not found", name), nil
	}

	var applied []string
	if locator, ok := updates["background_image_path"].(string); ok && locator != "" {
		resolved, err := w.resolver.Resolve(context.Background(), locator)
		if err != nil {
			return nil, fmt.Errorf("Error downloading background image from %s: %v", locator, err)
		}
		theme.BackgroundImage = resolved
		if fetch.IsURL(locator) {
			applied = append(applied, fmt.Sprintf("background_image_path: %s (downloaded)", locator))
		} else {
			applied = append(applied, "background_image_path: "+locator)
		}
	}

	keys := make([]string, 0, len(updates))
	for key := range updates {
		if key != "background_image_path" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := updates[key]
		if value == nil {
			continue
		}
		if applyThemeProperty(theme, key, value) {
			applied = append(applied, fmt.Sprintf("%s: %v", key, value))
		}
	}

	if len(applied) == 0 {
		return fmt.Sprintf("No valid properties provided to update for theme '%s'", name), nil
	}
	if err := w.themes.Save(theme); err != nil {
		return nil, fmt.Errorf("Error updating theme: %v", err)
	}
	return fmt.Sprintf("Theme '%s' updated: %s", name, strings.Join(applied, ", ")), nil
}

// applyThemeProperty sets one named property, reporting whether the name
// was recognized and the value had a usable type.
func applyThemeProperty(theme *openlp.Theme, key string, value any) bool {
	setString := func(dst *string) bool {
		s, ok := value.(string)
		if ok {
			*dst = s
		}
		return ok
	}
	setInt := func(dst *int) bool {
		switch v := value.(type) {
		case float64:
			*dst = int(v)
			return true
		case int:
			*dst = v
			return true
		}
		return false
	}
	setBool := func(dst *bool) bool {
		b, ok := value.(bool)
		if ok {
			*dst = b
		}
		return ok
	}

	switch key {
	case "background_type":
		return setString(&theme.BackgroundType)
	case "background_color":
		return setString(&theme.BackgroundColor)
	case "background_start_color":
		return setString(&theme.BackgroundStartColor)
	case "background_end_color":
		return setString(&theme.BackgroundEndColor)
	case "background_direction":
		return setString(&theme.BackgroundDirection)
	case "font_main_name":
		return setString(&theme.FontMainName)
	case "font_main_size":
		return setInt(&theme.FontMainSize)
	case "font_main_color":
		return setString(&theme.FontMainColor)
	case "font_main_bold":
		return setBool(&theme.FontMainBold)
	case "font_main_italics":
		return setBool(&theme.FontMainItalics)
	case "font_main_outline":
		return setBool(&theme.FontMainOutline)
	case "font_main_outline_color":
		return setString(&theme.FontMainOutlineColor)
	case "font_main_outline_size":
		return setInt(&theme.FontMainOutlineSize)
	case "font_main_shadow":
		return setBool(&theme.FontMainShadow)
	case "font_main_shadow_color":
		return setString(&theme.FontMainShadowColor)
	case "font_main_shadow_size":
		return setInt(&theme.FontMainShadowSize)
	case "font_footer_name":
		return setString(&theme.FontFooterName)
	case "font_footer_size":
		return setInt(&theme.FontFooterSize)
	case "font_footer_color":
		return setString(&theme.FontFooterColor)
	}
	return false
}

func (w *Worker) deleteTheme(args []any) (any, error) {
	name := stringArg(args, 0)
	if !w.themeExists(name) {
		return fmt.Sprintf("Theme '%s' not found", name), nil
	}
	if name == openlp.DefaultThemeName {
		return "Cannot delete the default theme 'Default'", nil
	}
	if name == w.themes.GlobalTheme() {
		return fmt.Sprintf("Cannot delete the global theme '%s'. Please set a different global theme first.", name), nil
	}
	if err := w.themes.Delete(name); err != nil {
		return nil, fmt.Errorf("Error deleting theme: %v", err)
	}
	return fmt.Sprintf("Theme '%s' deleted successfully", name), nil
}

func (w *Worker) duplicateTheme(args []any) (any, error) {
	src := stringArg(args, 0)
	dst := stringArg(args, 1)
	if !w.themeExists(src) {
		return fmt.Sprintf("Source theme '%s' not found", src), nil
	}
	if w.themeExists(dst) {
		return fmt.Sprintf("Theme '%s' already exists", dst), nil
	}
	theme, err := w.themes.Get(src)
	if err != nil {
		return nil, fmt.Errorf("Error duplicating theme: %v", err)
	}
	if err := w.themes.Clone(theme, dst); err != nil {
		return nil, fmt.Errorf("Error duplicating theme: %v", err)
	}
	return fmt.Sprintf("Theme '%s' duplicated as '%s'", src, dst), nil
}

func (w *Worker) themeExists(name string) bool {
	_, err := w.themes.Get(name)
	return err == nil
}

func (w *Worker) setItemTheme(args []any) (any, error) {
	index, err := intArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("Error setting item theme: %v", err)
	}
	name := stringArg(args, 1)
	return w.applyItemTheme(index, name)
}

func (w *Worker) applyItemTheme(index int, name string) (any, error) {
	item, err := w.service.Item(index)
	if err != nil {
		return fmt.Sprintf("Invalid item index: %d", index), nil
	}

	if name != "" && !strings.EqualFold(name, "none") {
		if !w.themeExists(name) {
			return fmt.Sprintf("Theme '%s' not found", name), nil
		}
		item.Theme = name
		return fmt.Sprintf("Item %d ('%s') theme set to '%s'", index, item.Title, name), nil
	}

	item.Theme = ""
	return fmt.Sprintf("Item %d ('%s') theme cleared (using service/global theme)", index, item.Title), nil
}

func (w *Worker) getItemTheme(args []any) (any, error) {
	index, err := intArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("Error getting item theme: %v", err)
	}
	item, err := w.service.Item(index)
	if err != nil {
		return fmt.Sprintf("Invalid item index: %d", index), nil
	}

	effective := item.Theme
	level := "Song/Item"
	if effective == "" {
		effective = w.service.ServiceTheme()
		level = "Service"
	}
	if effective == "" {
		effective = w.themes.GlobalTheme()
		level = "Global"
	}

	specific := "None (using service/global theme)"
	if item.Theme != "" {
		specific = fmt.Sprintf("'%s'", item.Theme)
	}
	return fmt.Sprintf("Item %d ('%s'):\n  Item-specific theme: %s\n  Effective theme: '%s'\n  Theme level: %s",
		index, item.Title, specific, effective, level), nil
}

func (w *Worker) clearItemTheme(args []any) (any, error) {
	index, err := intArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("Error clearing item theme: %v", err)
	}
	return w.applyItemTheme(index, "")
}

// msString, msInt, and msBool read typed values out of request objects,
// falling back when the key is absent or mistyped.

func msString(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}

func msInt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func msBool(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}
