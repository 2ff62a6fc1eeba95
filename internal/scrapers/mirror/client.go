// client.go contains the fetch side of the mirror scraper: throttled lookups of identifiers
// and downloads of the resolved documents.

package mirror

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"paperscrape/internal/components/assert"
	"paperscrape/internal/components/chrono"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/throttle"
	"strings"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_fetch    = "client.fetch"
	report_client_download = "client.download"
)

type Client struct {
	baseUrl   *url.URL
	http      *resty.Client
	throttle  *throttle.Throttle
	extractor Extractor

	tel telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseUrl)
	assert.NotEmptyStr(opts.UserAgent)
	assert.Positive(opts.Timeout)

	tel = telemetry.NewScopedAPI("mirror_scraper", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseUrl)
	}

	clock := opts.Clock
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = DefaultExtractor()
	}

	httpClient := resty.New()
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(httpClient, tel, opts.MessageOutput)

	return &Client{
		baseUrl:   baseUrl,
		http:      httpClient,
		throttle:  throttle.New(opts.RateLimit, clock),
		extractor: extractor,
		tel:       tel,
	}, nil
}

// Fetch looks up the document address for an identifier. Any error leaves the result NotFound,
// errors wrap ErrEmptyIdentifier, ErrRequest or ErrExtraction.
func (c *Client) Fetch(ctx context.Context, identifier string) (Result, error) {
	result := Result{Identifier: identifier}
	if strings.TrimSpace(identifier) == "" {
		return result, ErrEmptyIdentifier
	}

	c.tel.ReportInfo("fetching", identifier)

	body, err := c.lookup(ctx, identifier)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, err, identifier)
		return result, err
	}

	ref, err := c.extractor.Extract(body)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, err, identifier)
		return result, err
	}
	address, err := ResolveAddress(c.baseUrl, ref)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, err, identifier)
		return result, err
	}

	result.Address = address
	c.tel.ReportInfo("resolved", identifier, address)
	return result, nil
}

func (c *Client) lookup(ctx context.Context, identifier string) ([]byte, error) {
	err := c.throttle.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: throttle: %w", ErrRequest, err)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"sci-hub-plugin-check": "",
			"request":              identifier,
		}).
		Post(c.baseUrl.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	// the mirror answered, whatever the status the next lookup is spaced from now
	c.throttle.Done()
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: status %s", ErrRequest, res.Status())
	}
	return res.Body(), nil
}

// DocumentName is the final path segment of an address, the name a download is saved under.
func DocumentName(address string) (string, error) {
	parsed, err := url.Parse(address)
	if err != nil {
		return "", err
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("address %q has no file name", address)
	}
	return name, nil
}

// Download saves the document at `address` into `dir` and returns the written path.
func (c *Client) Download(ctx context.Context, address, dir string) (string, error) {
	name, err := DocumentName(address)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDownload, err)
		c.tel.ReportBroken(report_client_download, err, address)
		return "", err
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(address)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDownload, err)
		c.tel.ReportBroken(report_client_download, err, address)
		return "", err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: status %s", ErrDownload, res.Status())
		c.tel.ReportBroken(report_client_download, err, address)
		return "", err
	}

	err = os.MkdirAll(dir, 0777)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDownload, err)
		c.tel.ReportBroken(report_client_download, err, address)
		return "", err
	}
	target := filepath.Join(dir, name)
	err = os.WriteFile(target, res.Body(), 0644)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDownload, err)
		c.tel.ReportBroken(report_client_download, err, address)
		return "", err
	}

	c.tel.ReportInfo("downloaded", name)
	return target, nil
}
