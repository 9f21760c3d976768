// Copyright 2025 Seth Burkart
//
// File type detection for URL downloads

package fetch

import (
	"net/url"
	"path"
	"strings"
)

// contentTypeExtensions maps MIME content types to file extensions. It
// covers the media classes the host application can play plus presentation
// and service file formats.
var contentTypeExtensions = map[string]string{
	// Images
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tiff",
	"image/tif":     ".tiff",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",

	// Videos
	"video/mp4":        ".mp4",
	"video/avi":        ".avi",
	"video/quicktime":  ".mov",
	"video/x-msvideo":  ".avi",
	"video/x-ms-wmv":   ".wmv",
	"video/x-flv":      ".flv",
	"video/webm":       ".webm",
	"video/3gpp":       ".3gp",
	"video/x-matroska": ".mkv",

	// Audio
	"audio/mpeg":     ".mp3",
	"audio/mp3":      ".mp3",
	"audio/wav":      ".wav",
	"audio/wave":     ".wav",
	"audio/x-wav":    ".wav",
	"audio/ogg":      ".ogg",
	"audio/flac":     ".flac",
	"audio/aac":      ".aac",
	"audio/mp4":      ".m4a",
	"audio/x-ms-wma": ".wma",

	// Documents and presentations
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"application/vnd.ms-powerpoint":                                             ".ppt",
	"application/vnd.ms-powerpoint.presentation.macroEnabled.12":                ".pptm",
	"application/vnd.oasis.opendocument.presentation":                           ".odp",

	// Service files are typically XML or zipped XML.
	"application/xml": ".osz",
	"text/xml":        ".osz",
	"application/zip": ".osz",
}

// extensionForContentType maps a Content-Type header value to a file
// extension, returning ".tmp" when the type is unknown or empty. Parameters
// like charset are stripped before lookup.
func extensionForContentType(contentType string) string {
	if contentType == "" {
		return ".tmp"
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if ext, ok := contentTypeExtensions[strings.ToLower(strings.TrimSpace(mediaType))]; ok {
		return ext
	}
	return ".tmp"
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// guessExtensionFromURL falls back to URL pattern analysis when content-type
// detection has failed: common keywords first, then well-known hosting
// domains.
func guessExtensionFromURL(rawURL string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case containsAny(lower, "image", "photo", "pic", "img"):
		return ".jpg"
	case containsAny(lower, "video", "vid", "movie"):
		return ".mp4"
	case containsAny(lower, "audio", "sound", "music"):
		return ".mp3"
	case containsAny(lower, "presentation", "slide", "ppt"):
		return ".pdf"
	case containsAny(lower, "service", "osz"):
		return ".osz"
	}
	if u, err := url.Parse(rawURL); err == nil {
		host := strings.ToLower(u.Host)
		switch {
		case containsAny(host, "unsplash", "pixabay", "pexels"):
			return ".jpg"
		case containsAny(host, "youtube", "vimeo"):
			return ".mp4"
		case containsAny(host, "soundcloud", "spotify"):
			return ".mp3"
		}
	}
	return ".tmp"
}

// mediaClassForExtension names the media class used for generated download
// basenames.
func mediaClassForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".svg":
		return "image"
	case ".mp4", ".avi", ".mov", ".mkv", ".wmv", ".flv", ".webm", ".m4v", ".3gp":
		return "video"
	case ".mp3", ".wav", ".ogg", ".flac", ".aac", ".m4a", ".wma":
		return "audio"
	case ".pdf", ".pptx", ".ppt", ".pptm", ".pps", ".ppsx", ".odp":
		return "presentation"
	case ".osz", ".oszl":
		return "service"
	default:
		return "download"
	}
}

// urlBasename extracts the final path element of a URL, "" when the path is
// empty or ends in a slash.
func urlBasename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
