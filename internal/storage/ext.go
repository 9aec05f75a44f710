package storage

import (
	"mime"
	"path"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
	".ts": true, ".mpg": true, ".mpeg": true,
}

func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(path.Ext(name))]
}

// VideoExtension picks a file extension for a downloaded video, preferring
// the URL path and falling back to the response content type, then ".mp4".
func VideoExtension(urlPath, contentType string) string {
	if IsVideoFile(urlPath) {
		return strings.ToLower(path.Ext(urlPath))
	}
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
				for _, ext := range exts {
					if videoExtensions[ext] {
						return ext
					}
				}
			}
			switch mt {
			case "video/webm":
				return ".webm"
			case "video/quicktime":
				return ".mov"
			}
		}
	}
	return ".mp4"
}
