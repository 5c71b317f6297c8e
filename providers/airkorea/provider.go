// Package airkorea fetches real-time station measurements from the AirKorea air
// pollution service (ArpltnInforInqireSvc) on data.go.kr.
package airkorea

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"flipclock/datasource"
	"flipclock/models"
)

// DefaultBaseURL is the air pollution service root
const DefaultBaseURL = "http://apis.data.go.kr/B552584/ArpltnInforInqireSvc"

const measurementPath = "getMsrstnAcctoRltmMesureDnsty"

// Source fills the pollution section with the latest measurement of one station
type Source struct {
	baseURL     string
	serviceKey  string
	stationName string
	doer        datasource.Doer
	logger      *slog.Logger
}

// NewSource creates a source for stationName, e.g. "종로구"
func NewSource(baseURL, serviceKey, stationName string, doer datasource.Doer, logger *slog.Logger) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		baseURL:     strings.TrimRight(baseURL, "/"),
		serviceKey:  datasource.UnescapeServiceKey(serviceKey),
		stationName: stationName,
		doer:        doer,
		logger:      logger,
	}
}

// Name returns the payload section
func (s *Source) Name() string {
	return models.SectionPollution
}

// FetchSection returns the measurement response body
func (s *Source) FetchSection(ctx context.Context) (json.RawMessage, error) {
	if s.serviceKey == "" {
		return nil, datasource.ErrMissingServiceKey
	}

	params := url.Values{}
	params.Set("serviceKey", s.serviceKey)
	params.Set("returnType", "json")
	params.Set("numOfRows", "1")
	params.Set("pageNo", "1")
	params.Set("stationName", s.stationName)
	params.Set("dataTerm", "DAILY")
	params.Set("ver", "1.0")

	s.logger.Debug("requesting air pollution service", "station", s.stationName)

	body, err := datasource.FetchBody(ctx, s.doer, s.baseURL+"/"+measurementPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", measurementPath, err)
	}

	var envelope models.AirKoreaResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w: invalid JSON: %s", measurementPath, datasource.ErrUpstream, datasource.Snippet(body))
	}
	if h := envelope.Response.Header; !h.OK() {
		return nil, fmt.Errorf("%s: %w: %s %s", measurementPath, datasource.ErrUpstream, h.ResultCode, h.ResultMsg)
	}

	return json.RawMessage(body), nil
}

// Ensure Source implements datasource.SectionSource
var _ datasource.SectionSource = (*Source)(nil)
