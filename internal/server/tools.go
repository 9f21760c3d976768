// Copyright 2025 Seth Burkart
//
// Tool catalog

package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SethBurkart123/openlp-mcp/internal/worker"
)

// strArg reads a string argument, "" when absent.
func strArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// samplePath anchors a bundled sample file to the working directory.
func samplePath(name string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return name
	}
	return filepath.Join(cwd, name)
}

// Schema building helpers. Properties are plain JSON-schema fragments.

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func boolProp(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

func enumProp(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// themeProperties returns the schema fragment shared by theme creation and
// update. Every property is optional; the worker fills defaults on create
// and applies only what is present on update.
func themeProperties() map[string]any {
	return map[string]any{
		"background_type":         enumProp("Background style", "solid", "gradient", "image", "transparent", "video"),
		"background_color":        strProp("Background color for solid backgrounds, e.g. #000000"),
		"background_start_color":  strProp("Gradient start color"),
		"background_end_color":    strProp("Gradient end color"),
		"background_direction":    enumProp("Gradient direction", "vertical", "horizontal", "circular"),
		"background_image_path":   strProp("Background image: local file path or URL (downloaded automatically)"),
		"font_main_name":          strProp("Main font family"),
		"font_main_size":          intProp("Main font size in points"),
		"font_main_color":         strProp("Main font color, e.g. #FFFFFF"),
		"font_main_bold":          boolProp("Bold main text"),
		"font_main_italics":       boolProp("Italic main text"),
		"font_main_shadow":        boolProp("Draw a shadow behind main text"),
		"font_main_shadow_color":  strProp("Shadow color"),
		"font_main_shadow_size":   intProp("Shadow offset in pixels"),
		"font_main_outline":       boolProp("Draw an outline around main text"),
		"font_main_outline_color": strProp("Outline color"),
		"font_main_outline_size":  intProp("Outline width in pixels"),
		"font_footer_name":        strProp("Footer font family"),
		"font_footer_size":        intProp("Footer font size in points"),
		"font_footer_color":       strProp("Footer font color"),
	}
}

// registerTools builds the tool catalog. Tool names follow the remote
// control surface exposed to MCP clients; each maps onto one bridge
// operation.
func (s *Server) registerTools() {
	add := func(tool *Tool) {
		s.tools[tool.Name] = tool
		s.order = append(s.order, tool.Name)
	}

	add(&Tool{
		Name:        "create_new_service",
		Description: "Create a new empty service",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("create_service", false)
		},
	})

	add(&Tool{
		Name:        "load_service",
		Description: "Load a service from a file path or URL. URLs will be downloaded automatically",
		InputSchema: objectSchema(map[string]any{
			"file_path": strProp("Path or URL of the service file to load"),
		}, "file_path"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("load_service", false, strArg(args, "file_path"))
		},
	})

	add(&Tool{
		Name:        "save_service",
		Description: "Save the current service, optionally to a specific path",
		InputSchema: objectSchema(map[string]any{
			"file_path": strProp("Destination path; omit to reuse the current file name"),
		}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("save_service", false, strArg(args, "file_path"))
		},
	})

	add(&Tool{
		Name:        "get_service_items",
		Description: "Get all items in the current service",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("get_service_items", false)
		},
	})

	add(&Tool{
		Name:        "add_song_to_service",
		Description: "Add a song to the current service",
		InputSchema: objectSchema(map[string]any{
			"title":  strProp("Song title"),
			"author": strProp("Song author"),
			"lyrics": strProp("Lyrics, verses separated by blank lines; used when the song is not in the database"),
		}, "title"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("add_song", false,
				strArg(args, "title"), strArg(args, "author"), strArg(args, "lyrics"))
		},
	})

	add(&Tool{
		Name:        "add_custom_slide_to_service",
		Description: "Add a custom slide to the current service",
		InputSchema: objectSchema(map[string]any{
			"title":   strProp("Slide title"),
			"content": strProp("Slide text content"),
		}, "title", "content"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("add_custom_slide", false,
				strArg(args, "title"), strArg(args, "content"))
		},
	})

	add(&Tool{
		Name: "add_media_to_service",
		Description: "Add a media file to the current service. Supports local file paths and URLs " +
			"(downloaded automatically): images, videos, audio, and presentations (PDF, PowerPoint)",
		InputSchema: objectSchema(map[string]any{
			"file_path": strProp("Path or URL of the media file"),
			"title":     strProp("Display title; derived from the file name when omitted"),
		}, "file_path"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			path := strArg(args, "file_path")
			// Legacy deck formats go through LibreOffice conversion,
			// which needs the long timeout class.
			return s.dispatch("add_media", worker.IsLegacyDeck(path),
				path, strArg(args, "title"))
		},
	})

	add(&Tool{
		Name:        "add_sample_image",
		Description: "Add the sample image.jpg from the working directory to the service for testing",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("add_media", false, samplePath("image.jpg"), "Sample Image")
		},
	})

	add(&Tool{
		Name:        "add_sample_video",
		Description: "Add the sample video.mp4 from the working directory to the service for testing",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("add_media", false, samplePath("video.mp4"), "Sample Video")
		},
	})

	add(&Tool{
		Name:        "test_media_types",
		Description: "Add both sample media files to a fresh service to demonstrate image and video handling",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			created, err := s.dispatch("create_service", false)
			if err != nil {
				return nil, err
			}
			image, err := s.dispatch("add_media", false, samplePath("image.jpg"), "Test Image")
			if err != nil {
				return nil, err
			}
			video, err := s.dispatch("add_media", false, samplePath("video.mp4"), "Test Video")
			if err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("Media test completed:\n1. %s\n2. %s\n3. %s",
				resultText(created), resultText(image), resultText(video))), nil
		},
	})

	add(&Tool{
		Name:        "go_live_with_item",
		Description: "Send a service item to the live display by index",
		InputSchema: objectSchema(map[string]any{
			"item_index": intProp("Zero-based index of the service item"),
		}, "item_index"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("go_live", false, args["item_index"])
		},
	})

	add(&Tool{
		Name:        "next_slide",
		Description: "Advance the live display to the next slide",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("next_slide", false)
		},
	})

	add(&Tool{
		Name:        "previous_slide",
		Description: "Move the live display to the previous slide",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("previous_slide", false)
		},
	})

	add(&Tool{
		Name:        "list_themes",
		Description: "List all available theme names",
		InputSchema: objectSchema(map[string]any{}),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("list_themes", false)
		},
	})

	add(&Tool{
		Name:        "set_service_theme",
		Description: "Set the theme for the current service",
		InputSchema: objectSchema(map[string]any{
			"theme_name": strProp("Name of an existing theme"),
		}, "theme_name"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("set_service_theme", false, strArg(args, "theme_name"))
		},
	})

	createProps := themeProperties()
	createProps["theme_name"] = strProp("Name for the new theme")
	add(&Tool{
		Name: "create_theme_with_properties",
		Description: "Create a new theme with the specified properties. " +
			"background_image_path supports local file paths and URLs (downloaded automatically)",
		InputSchema: objectSchema(createProps, "theme_name"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("create_theme", false, args)
		},
	})

	add(&Tool{
		Name:        "get_theme_details",
		Description: "Get details of an existing theme",
		InputSchema: objectSchema(map[string]any{
			"theme_name": strProp("Name of the theme"),
		}, "theme_name"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("get_theme_details", false, strArg(args, "theme_name"))
		},
	})

	updateProps := themeProperties()
	updateProps["theme_name"] = strProp("Name of the theme to update")
	add(&Tool{
		Name: "update_theme_properties",
		Description: "Update properties of an existing theme. Only specified properties are changed. " +
			"background_image_path supports local file paths and URLs (downloaded automatically)",
		InputSchema: objectSchema(updateProps, "theme_name"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			updates := make(map[string]any, len(args))
			for k, v := range args {
				if k != "theme_name" {
					updates[k] = v
				}
			}
			return s.dispatch("update_theme", false, map[string]any{
				"theme_name": strArg(args, "theme_name"),
				"updates":    updates,
			})
		},
	})

	add(&Tool{
		Name:        "delete_theme",
		Description: "Delete a theme (the default theme cannot be deleted)",
		InputSchema: objectSchema(map[string]any{
			"theme_name": strProp("Name of the theme to delete"),
		}, "theme_name"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("delete_theme", false, strArg(args, "theme_name"))
		},
	})

	add(&Tool{
		Name:        "duplicate_theme",
		Description: "Create a copy of an existing theme with a new name",
		InputSchema: objectSchema(map[string]any{
			"existing_theme_name": strProp("Theme to copy"),
			"new_theme_name":      strProp("Name for the copy"),
		}, "existing_theme_name", "new_theme_name"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("duplicate_theme", false,
				strArg(args, "existing_theme_name"), strArg(args, "new_theme_name"))
		},
	})

	add(&Tool{
		Name:        "set_item_theme",
		Description: "Set a theme for a specific service item by index. Use 'none' or an empty string to clear it",
		InputSchema: objectSchema(map[string]any{
			"item_index": intProp("Zero-based index of the service item"),
			"theme_name": strProp("Theme name, or 'none' to clear"),
		}, "item_index", "theme_name"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("set_item_theme", false,
				args["item_index"], strArg(args, "theme_name"))
		},
	})

	add(&Tool{
		Name:        "get_item_theme",
		Description: "Get the theme information for a specific service item by index",
		InputSchema: objectSchema(map[string]any{
			"item_index": intProp("Zero-based index of the service item"),
		}, "item_index"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("get_item_theme", false, args["item_index"])
		},
	})

	add(&Tool{
		Name:        "clear_item_theme",
		Description: "Clear the theme for a specific service item, falling back to the service or global theme",
		InputSchema: objectSchema(map[string]any{
			"item_index": intProp("Zero-based index of the service item"),
		}, "item_index"),
		Handler: func(args map[string]any) (*ToolResult, error) {
			return s.dispatch("clear_item_theme", false, args["item_index"])
		},
	})
}
