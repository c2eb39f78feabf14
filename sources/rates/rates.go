// Package rates serves currency exchange rates from a JSON upstream
package rates

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/briangreenhill/feedgate/sources"
)

const ActionLatest = "latest"

// DefaultBase is used when no base currency is requested
const DefaultBase = "USD"

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Source implements sources.Source for exchange rates
type Source struct {
	fetcher sources.Fetcher
	baseURL string
	apiKey  string
}

func New(f sources.Fetcher, baseURL, apiKey string) *Source {
	return &Source{fetcher: f, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (s *Source) Name() string { return "rates" }

func (s *Source) Actions() []string { return []string{ActionLatest} }

// Params implements sources.ParamLister
func (s *Source) Params(string) []string { return []string{"base"} }

// TTL implements sources.TTLer; rates move during the day
func (s *Source) TTL(string) time.Duration { return time.Hour }

// upstreamRates matches the upstream payload
type upstreamRates struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Rates is the response shape
type Rates struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Fetch implements sources.Source.
//
//	latest ?base=<ISO 4217 code>
func (s *Source) Fetch(ctx context.Context, action string, params map[string]string) (any, error) {
	if action != ActionLatest {
		return nil, fmt.Errorf("%w: %s", sources.ErrUnknownAction, action)
	}

	base := strings.ToUpper(strings.TrimSpace(params["base"]))
	if base == "" {
		base = DefaultBase
	}
	if !currencyCode.MatchString(base) {
		return nil, fmt.Errorf("%w: base %q", sources.ErrBadParam, params["base"])
	}

	q := url.Values{"base": {base}}
	if s.apiKey != "" {
		q.Set("apikey", s.apiKey)
	}

	var up upstreamRates
	if err := s.fetcher.GetJSON(ctx, s.baseURL+"/latest?"+q.Encode(), &up); err != nil {
		return nil, fmt.Errorf("fetch rates for %s: %w", base, err)
	}

	out := Rates{Base: up.Base, Date: up.Date, Rates: up.Rates}
	if out.Base == "" {
		out.Base = base
	}
	if out.Rates == nil {
		out.Rates = map[string]float64{}
	}
	return out, nil
}
