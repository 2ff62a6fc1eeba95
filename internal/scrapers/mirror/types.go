package mirror

import (
	"errors"
	"paperscrape/internal/components/chrono"
	"paperscrape/internal/components/telemetry"
	"time"
)

var (
	ErrEmptyIdentifier = errors.New("empty identifier")
	// ErrRequest covers transport failures, timeouts and non-success statuses.
	ErrRequest = errors.New("request failed")
	// ErrExtraction means the page did not have the expected shape.
	ErrExtraction = errors.New("could not extract document reference")
	ErrDownload   = errors.New("download failed")
)

// Result is either Found (Address is set) or NotFound.
type Result struct {
	Identifier string
	Address    string
}

func (r Result) Found() bool {
	return r.Address != ""
}

const (
	DefaultBaseUrl   = "https://sci-hub.se/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.3) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/98.0.4758.102 Safari/537.36"
)

type Options struct {
	// BaseUrl is the endpoint identifiers are posted to, its host also serves downloads.
	BaseUrl   string
	Timeout   time.Duration
	RateLimit time.Duration
	UserAgent string

	CloudflareBypass bool

	// Clock defaults to the standard clock.
	Clock chrono.API
	// Extractor defaults to PDFEmbedExtractor.
	Extractor Extractor
	// MessageOutput, if set, receives a dump of every request/response.
	MessageOutput telemetry.MessageOutput
}
