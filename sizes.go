package gamedex

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// SizeProber issues lightweight metadata probes against file hosts.
type SizeProber interface {
	// Head issues a HEAD request and returns the response headers.
	Head(ctx context.Context, url string) (http.Header, error)

	// RangeGet issues a one-byte partial-content GET and returns the
	// response headers. Used for hosts that reject HEAD requests.
	RangeGet(ctx context.Context, url string) (http.Header, error)
}

// LinkSize is the resolved size of one download link.
type LinkSize struct {
	URL   string `json:"url"`
	Bytes int64  `json:"bytes"`
}

// SizeReport aggregates resolved link sizes. Links whose size could not
// be determined are omitted from PerLink rather than failing the batch.
type SizeReport struct {
	TotalBytes int64      `json:"totalBytes"`
	TotalGiB   string     `json:"totalGib"`
	PerLink    []LinkSize `json:"perLink"`
}

// ZeroSizeReport is the substitute used when size resolution fails or no
// links are present.
func ZeroSizeReport() *SizeReport {
	return &SizeReport{TotalGiB: FormatGiB(0), PerLink: []LinkSize{}}
}

// ParseContentRange extracts the total size from a Content-Range header
// value such as "bytes 0-0/123456".
func ParseContentRange(v string) (int64, error) {
	idx := strings.LastIndex(v, "/")
	if idx < 0 || idx == len(v)-1 {
		return 0, Errorf(EINVALID, "malformed Content-Range %q", v)
	}
	total := v[idx+1:]
	if total == "*" {
		return 0, Errorf(EINVALID, "Content-Range %q has unknown total", v)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil || n < 0 {
		return 0, Errorf(EINVALID, "non-numeric Content-Range total %q", v)
	}
	return n, nil
}

// ContentLength extracts a positive Content-Length from headers.
// Returns 0 when the header is absent or not a positive number.
func ContentLength(h http.Header) int64 {
	n, err := strconv.ParseInt(h.Get("Content-Length"), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// FormatGiB converts bytes to gibibytes, rounded to 2 decimal places.
func FormatGiB(bytes int64) string {
	return fmt.Sprintf("%.2f", float64(bytes)/(1024*1024*1024))
}
