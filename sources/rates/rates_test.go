package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/feedgate/internal/fetch"
	"github.com/briangreenhill/feedgate/sources"
)

func TestFetchLatest(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/latest", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"base":"EUR","date":"2026-10-19","rates":{"USD":1.08,"GBP":0.86}}`))
	}))
	defer srv.Close()

	s := New(fetch.New(fetch.WithHTTPClient(srv.Client())), srv.URL+"/", "secret")
	v, err := s.Fetch(context.Background(), ActionLatest, map[string]string{"base": "eur"})
	require.NoError(t, err)

	r := v.(Rates)
	require.Equal(t, "EUR", r.Base)
	require.Equal(t, "2026-10-19", r.Date)
	require.InDelta(t, 1.08, r.Rates["USD"], 1e-9)
	require.Equal(t, "apikey=secret&base=EUR", gotQuery)
}

func TestFetchLatest_Validation(t *testing.T) {
	s := New(nil, "https://rates.example", "")

	_, err := s.Fetch(context.Background(), ActionLatest, map[string]string{"base": "dollars"})
	require.ErrorIs(t, err, sources.ErrBadParam)

	_, err = s.Fetch(context.Background(), "history", nil)
	require.ErrorIs(t, err, sources.ErrUnknownAction)
}

func TestFetchLatest_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := New(fetch.New(fetch.WithHTTPClient(srv.Client())), srv.URL, "")
	_, err := s.Fetch(context.Background(), ActionLatest, nil)

	var se *fetch.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.StatusCode)
}
