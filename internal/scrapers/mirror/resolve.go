package mirror

import (
	"fmt"
	"net/url"
	"strings"
)

// downloadPrefixes are the leading path segments the mirror serves from its own host.
var downloadPrefixes = map[string]bool{
	"downloads": true,
	"tree":      true,
	"uptodate":  true,
}

func leadingSegment(ref string) string {
	segment, _, _ := strings.Cut(strings.TrimPrefix(ref, "/"), "/")
	return segment
}

// ResolveAddress turns a normalized reference into an absolute address.
//
//   - /downloads/..., /tree/..., /uptodate/... -> <mirror scheme>://<mirror host>/...
//   - http(s)://host/... stays as is
//   - anything else is a protocol relative reference that had its leading `//` collapsed,
//     /host/path -> https://host/path
func ResolveAddress(base *url.URL, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrExtraction)
	}

	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return validateAddress(ref)
	}

	if downloadPrefixes[leadingSegment(ref)] {
		if !strings.HasPrefix(ref, "/") {
			ref = "/" + ref
		}
		return validateAddress(fmt.Sprintf("%s://%s%s", base.Scheme, base.Host, ref))
	}

	return validateAddress("https://" + strings.TrimPrefix(ref, "/"))
}

func validateAddress(address string) (string, error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %q: %w", ErrExtraction, address, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: resolve %q: no host", ErrExtraction, address)
	}
	return parsed.String(), nil
}
