package gamedex

import (
	"net/url"
	"strings"
)

// UnknownProvider labels links whose host matches no known file host.
const UnknownProvider = "Unknown"

// hostProviders maps host substrings to provider labels. The table is
// iterated in order; the first match wins.
var hostProviders = []struct {
	hostPart string
	label    string
}{
	{"mega.nz", "MEGA"},
	{"mega.co.nz", "MEGA"},
	{"mediafire.com", "MediaFire"},
	{"gofile.io", "GoFile"},
	{"pixeldrain.com", "Pixeldrain"},
	{"workupload.com", "Workupload"},
	{"mixdrop", "MixDrop"},
	{"krakenfiles.com", "KrakenFiles"},
	{"uploadhaven.com", "UploadHaven"},
	{"anonfiles.com", "Anonfiles"},
	{"zippyshare.com", "Zippyshare"},
	{"racaty", "Racaty"},
	{"drive.google.com", "Google Drive"},
	{"mediafire.io", "MediaFire"},
}

// ProviderForURL returns the provider label for a download URL, or
// UnknownProvider if the host matches no entry in the provider table.
func ProviderForURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return UnknownProvider
	}
	host := strings.ToLower(u.Host)
	for _, p := range hostProviders {
		if strings.Contains(host, p.hostPart) {
			return p.label
		}
	}
	return UnknownProvider
}

// IsProviderHost reports whether the URL points at a known file host.
func IsProviderHost(raw string) bool {
	return ProviderForURL(raw) != UnknownProvider
}

// downloadKeywords flag anchors whose visible text suggests a download,
// even when the target host is not a known file host.
var downloadKeywords = []string{
	"download",
	"pc",
	"windows",
	"mac",
	"linux",
	"android",
}

// HasDownloadIntent reports whether anchor text suggests a download link.
// Matching is case-insensitive on whole words.
func HasDownloadIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, f := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '/' || r == '(' || r == ')' || r == '[' || r == ']' || r == '-' || r == ':'
	}) {
		for _, kw := range downloadKeywords {
			if f == kw {
				return true
			}
		}
	}
	return false
}

// ValidLinkURL reports whether a download link URL is a well-formed
// absolute URL with a recognized scheme. Links failing this check are
// dropped during record validation.
func ValidLinkURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
