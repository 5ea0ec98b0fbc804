package server

// localize resolves translation keys to the built-in english strings.
// Unknown keys pass through unchanged.
func localize(key string) string {
	if s, ok := translations[key]; ok {
		return s
	}
	return key
}

var translations = map[string]string{
	"extracting":                "Extracting...",
	"in_queue":                  "Downloading in queue...",
	"downloaded":                "Downloaded",
	"already_downloaded":        "Already downloaded",
	"cancelled":                 "Download cancelled",
	"download":                  "Download",
	"cancel_download":           "Cancel download",
	"cancel_dialog_description": "The download is still running. Cancel it?",
	"download_failed":           "Download failed",
	"start_failed":              "Could not start the downloader",
	"downloader_missing":        "Downloader binary not found",
	"age_restricted":            "This video is age-restricted, provide cookies to download it",
	"sign_in_required":          "This video requires a signed-in account, provide cookies to download it",
	"capturing":                 "Capturing",
}
