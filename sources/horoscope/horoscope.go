// Package horoscope scrapes daily horoscope pages
package horoscope

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/briangreenhill/feedgate/extract"
	"github.com/briangreenhill/feedgate/sources"
)

// Signs lists the zodiac signs in calendar order
var Signs = []string{
	"aries", "taurus", "gemini", "cancer", "leo", "virgo",
	"libra", "scorpio", "sagittarius", "capricorn", "aquarius", "pisces",
}

// Days are the periods shown on a sign page
var Days = []string{"yesterday", "today", "tomorrow"}

const (
	ActionSign = "sign"
	ActionAll  = "today"
)

// Source implements sources.Source for horoscope pages
type Source struct {
	fetcher sources.Fetcher
	baseURL string

	dayGroups  []extract.Group // sign page: one group per day
	signGroups []extract.Group // overview page: one group per sign
}

// New creates a horoscope source reading pages under baseURL encoded in
// charset (nil for UTF-8).
func New(f sources.Fetcher, baseURL string, charset extract.Transform) *Source {
	s := &Source{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, day := range Days {
		s.dayGroups = append(s.dayGroups, dayGroup(day, charset))
	}
	for _, sign := range Signs {
		s.signGroups = append(s.signGroups, signGroup(sign, charset))
	}
	return s
}

func (s *Source) Name() string { return "horoscope" }

func (s *Source) Actions() []string { return []string{ActionSign, ActionAll} }

// Params implements sources.ParamLister
func (s *Source) Params(action string) []string {
	if action == ActionSign {
		return []string{"sign"}
	}
	return nil
}

// Fetch implements sources.Source.
//
//	sign  ?sign=<name>  the sign page split by day
//	today               the overview page split by sign
func (s *Source) Fetch(ctx context.Context, action string, params map[string]string) (any, error) {
	switch action {
	case ActionSign:
		sign := strings.ToLower(strings.TrimSpace(params["sign"]))
		if !validSign(sign) {
			return nil, fmt.Errorf("%w: sign %q", sources.ErrBadParam, params["sign"])
		}
		doc, err := s.fetcher.Get(ctx, s.baseURL+"/"+sign+"/")
		if err != nil {
			return nil, fmt.Errorf("fetch %s horoscope: %w", sign, err)
		}
		return Forecast{Sign: sign, Days: extract.ExtractGroups(string(doc), s.dayGroups)}, nil

	case ActionAll:
		doc, err := s.fetcher.Get(ctx, s.baseURL+"/today/")
		if err != nil {
			return nil, fmt.Errorf("fetch daily overview: %w", err)
		}
		return Overview{Signs: extract.ExtractGroups(string(doc), s.signGroups)}, nil
	}
	return nil, fmt.Errorf("%w: %s", sources.ErrUnknownAction, action)
}

// Forecast is the response for one sign
type Forecast struct {
	Sign string            `json:"sign"`
	Days extract.Composite `json:"days"`
}

// Overview is the response for all signs on one day
type Overview struct {
	Signs extract.Composite `json:"signs"`
}

func dayGroup(day string, charset extract.Transform) extract.Group {
	block := `(?s)<div class="horoscope" data-day="` + day + `">(.*?)</div>\s*<!--/horoscope-->`
	return extract.Group{
		Name: day,
		Fields: []extract.FieldSpec{
			{
				Name:     "date",
				Pattern:  regexp.MustCompile(block),
				Refine:   regexp.MustCompile(`<span class="date">(.*?)</span>`),
				Encoding: charset,
			},
			{
				Name:      "text",
				Pattern:   regexp.MustCompile(block),
				Refine:    regexp.MustCompile(`(?s)<div class="text">(.*?)</div>`),
				Encoding:  charset,
				StripTags: true,
			},
		},
	}
}

func signGroup(sign string, charset extract.Transform) extract.Group {
	block := `(?s)<section class="sign" id="` + sign + `">(.*?)</section>`
	return extract.Group{
		Name: sign,
		Fields: []extract.FieldSpec{
			{
				Name:     "title",
				Pattern:  regexp.MustCompile(block),
				Refine:   regexp.MustCompile(`(?s)<h2>(.*?)</h2>`),
				Encoding: charset,
			},
			{
				Name:      "text",
				Pattern:   regexp.MustCompile(block),
				Refine:    regexp.MustCompile(`(?s)<p>(.*?)</p>`),
				Encoding:  charset,
				StripTags: true,
			},
		},
	}
}

func validSign(sign string) bool {
	for _, s := range Signs {
		if s == sign {
			return true
		}
	}
	return false
}
