package airkorea

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flipclock/datasource"
	"flipclock/models"
)

const measurementBody = `{"response":{"body":{"totalCount":24,"items":[
	{"stationName":"종로구","dataTime":"2026-10-19 14:00","pm10Value":"35","pm10Grade":"2","pm25Value":"18","pm25Grade":"2","khaiGrade":null}],
	"pageNo":1,"numOfRows":1},"header":{"resultMsg":"NORMAL_CODE","resultCode":"00"}}}`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSource_Fetch(t *testing.T) {
	var mu sync.Mutex
	var got *url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.URL
		mu.Unlock()
		io.WriteString(w, measurementBody)
	}))
	defer srv.Close()

	s := NewSource(srv.URL, "key%2B1", "종로구", srv.Client(), quiet())
	assert.Equal(t, models.SectionPollution, s.Name())

	raw, err := s.FetchSection(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, measurementBody, string(raw))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/getMsrstnAcctoRltmMesureDnsty", got.Path)
	q := got.Query()
	assert.Equal(t, "key+1", q.Get("serviceKey"))
	assert.Equal(t, "json", q.Get("returnType"))
	assert.Equal(t, "1", q.Get("numOfRows"))
	assert.Equal(t, "1", q.Get("pageNo"))
	assert.Equal(t, "종로구", q.Get("stationName"))
	assert.Equal(t, "DAILY", q.Get("dataTerm"))
	assert.Equal(t, "1.0", q.Get("ver"))
}

func TestSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not registered", http.StatusOK, `<OpenAPI_ServiceResponse><returnReasonCode>30</returnReasonCode></OpenAPI_ServiceResponse>`},
		{"result code", http.StatusOK, `{"response":{"header":{"resultCode":"22","resultMsg":"LIMITED_NUMBER_OF_SERVICE_REQUESTS_EXCEEDS_ERROR"}}}`},
		{"gateway", http.StatusBadGateway, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewSource(srv.URL, "k", "중구", srv.Client(), quiet()).FetchSection(context.Background())
			assert.ErrorIs(t, err, datasource.ErrUpstream)
		})
	}
}

func TestSource_MissingKey(t *testing.T) {
	_, err := NewSource("", "", "종로구", http.DefaultClient, nil).FetchSection(context.Background())
	assert.ErrorIs(t, err, datasource.ErrMissingServiceKey)
}
