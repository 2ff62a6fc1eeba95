package prizes

import (
	"context"
	"errors"
	"fmt"
	"paperscrape/internal/components/assert"
	"paperscrape/internal/components/chrono"
	"paperscrape/internal/components/telemetry"
	"paperscrape/internal/throttle"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultListUrl = "https://www.nobelprize.org/prizes/lists/all-nobel-prizes/"

var ErrRequest = errors.New("request failed")

const report_client_fetch = "client.fetch"

type Options struct {
	Timeout   time.Duration
	RateLimit time.Duration
	UserAgent string
	Clock     chrono.API
}

type Client struct {
	http     *resty.Client
	throttle *throttle.Throttle
	tel      telemetry.API
}

func NewClient(opts Options, tel telemetry.API) *Client {
	assert.NotNil(tel)
	assert.Positive(opts.Timeout)

	tel = telemetry.NewScopedAPI("prizes_scraper", tel)

	clock := opts.Clock
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}

	httpClient := resty.New()
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	httpClient.SetTimeout(opts.Timeout)
	telemetry.InstrumentResty(httpClient, tel, nil)

	return &Client{
		http:     httpClient,
		throttle: throttle.New(opts.RateLimit, clock),
		tel:      tel,
	}
}

func (c *Client) Fetch(ctx context.Context, listUrl string) ([]Prize, error) {
	c.tel.ReportInfo("fetching", listUrl)

	err := c.throttle.Wait(ctx)
	if err != nil {
		err = fmt.Errorf("%w: throttle: %w", ErrRequest, err)
		c.tel.ReportBroken(report_client_fetch, err, listUrl)
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(listUrl)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRequest, err)
		c.tel.ReportBroken(report_client_fetch, err, listUrl)
		return nil, err
	}
	c.throttle.Done()
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: status %s", ErrRequest, res.Status())
		c.tel.ReportBroken(report_client_fetch, err, listUrl)
		return nil, err
	}

	prizes, err := Parse(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, err, listUrl)
		return nil, err
	}
	c.tel.ReportInfo("parsed", listUrl, len(prizes))
	return prizes, nil
}
