// Package kma fetches the Korea Meteorological Administration village forecast
// service (VilageFcstInfoService_2.0) on data.go.kr.
package kma

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flipclock/datasource"
	"flipclock/models"
)

// DefaultBaseURL is the village forecast service root
const DefaultBaseURL = "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"

// Client calls the village forecast service for one grid point
type Client struct {
	baseURL    string
	serviceKey string
	nx, ny     int
	doer       datasource.Doer
	now        func() time.Time
	logger     *slog.Logger
}

// NewClient creates a client. The service key may be given URL-encoded or decoded;
// it is unescaped once so it is never encoded twice.
func NewClient(baseURL, serviceKey string, nx, ny int, doer datasource.Doer, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: datasource.UnescapeServiceKey(serviceKey),
		nx:         nx,
		ny:         ny,
		doer:       doer,
		now:        time.Now,
		logger:     logger,
	}
}

// Fetch calls one operation and returns the response body
func (c *Client) Fetch(ctx context.Context, op Operation) (json.RawMessage, error) {
	if c.serviceKey == "" {
		return nil, datasource.ErrMissingServiceKey
	}

	baseDate, baseTime := op.Base(c.now())
	params := url.Values{}
	params.Set("serviceKey", c.serviceKey)
	params.Set("dataType", "JSON")
	params.Set("numOfRows", strconv.Itoa(op.Rows))
	params.Set("pageNo", "1")
	params.Set("base_date", baseDate)
	params.Set("base_time", baseTime)
	params.Set("nx", strconv.Itoa(c.nx))
	params.Set("ny", strconv.Itoa(c.ny))

	c.logger.Debug("requesting village forecast service",
		"operation", op.Path, "base_date", baseDate, "base_time", baseTime, "nx", c.nx, "ny", c.ny)

	body, err := datasource.FetchBody(ctx, c.doer, c.baseURL+"/"+op.Path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Path, err)
	}

	var envelope models.KMAResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w: invalid JSON: %s", op.Path, datasource.ErrUpstream, datasource.Snippet(body))
	}
	if h := envelope.Response.Header; !h.OK() {
		return nil, fmt.Errorf("%s: %w: %s %s", op.Path, datasource.ErrUpstream, h.ResultCode, h.ResultMsg)
	}

	return json.RawMessage(body), nil
}

// Source binds an operation to a payload section
func (c *Client) Source(section string, op Operation) *Source {
	return &Source{client: c, section: section, op: op}
}

// Source is a datasource.SectionSource for one operation
type Source struct {
	client  *Client
	section string
	op      Operation
}

// Name returns the payload section
func (s *Source) Name() string {
	return s.section
}

// FetchSection calls the operation
func (s *Source) FetchSection(ctx context.Context) (json.RawMessage, error) {
	return s.client.Fetch(ctx, s.op)
}

// Ensure Source implements datasource.SectionSource
var _ datasource.SectionSource = (*Source)(nil)

// Sources returns the three KMA sections of the weather payload
func (c *Client) Sources() []datasource.SectionSource {
	return []datasource.SectionSource{
		c.Source(models.SectionNCST, UltraShortNowcast),
		c.Source(models.SectionUltraForecast, UltraShortForecast),
		c.Source(models.SectionForecast, VillageForecast),
	}
}
