// Package builtin registers the sources shipped with feedgate from config.
package builtin

import (
	"fmt"

	"github.com/briangreenhill/feedgate/extract"
	"github.com/briangreenhill/feedgate/internal/config"
	"github.com/briangreenhill/feedgate/sources"
	"github.com/briangreenhill/feedgate/sources/horoscope"
	"github.com/briangreenhill/feedgate/sources/rates"
)

// NewRegistry registers every source whose configuration is present
func NewRegistry(cfg *config.Config, f sources.Fetcher) (*sources.Registry, error) {
	reg := sources.NewRegistry()

	if cfg.HasHoroscope() {
		charset, err := extract.Charset(cfg.Horoscope.Charset)
		if err != nil {
			return nil, fmt.Errorf("horoscope charset: %w", err)
		}
		reg.Register(horoscope.New(f, cfg.Horoscope.BaseURL, charset))
	}
	if cfg.HasRates() {
		reg.Register(rates.New(f, cfg.Rates.BaseURL, cfg.Rates.APIKey))
	}
	return reg, nil
}
