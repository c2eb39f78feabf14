// Command probe runs one source action against its live upstream and prints
// the extracted result. It bypasses the cache and the rate limiter, which
// makes it the quickest way to check whether upstream markup has drifted.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/feedgate/internal/config"
	"github.com/briangreenhill/feedgate/internal/fetch"
	"github.com/briangreenhill/feedgate/sources"
	"github.com/briangreenhill/feedgate/sources/builtin"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	reg, err := builtin.NewRegistry(cfg, fetch.New(
		fetch.WithTimeout(cfg.Upstream.Timeout),
		fetch.WithUserAgent(cfg.Upstream.UserAgent),
	))
	if err != nil {
		logger.Fatal().Err(err).Msg("setup sources")
	}

	if err := runCLI(context.Background(), os.Args[1:], reg, os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("probe failed")
	}
}

func usage(w io.Writer, reg *sources.Registry) {
	fmt.Fprintln(w, "Usage: probe <source> <action> [key=value ...]")
	fmt.Fprintln(w, "Sources:")
	desc := reg.Describe()
	for _, name := range reg.List() {
		fmt.Fprintf(w, "  %-12s %s\n", name, strings.Join(desc[name], ", "))
	}
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  HOROSCOPE_BASE_URL  horoscope upstream (enables the horoscope source)")
	fmt.Fprintln(w, "  HOROSCOPE_CHARSET   horoscope page encoding (default windows-1251)")
	fmt.Fprintln(w, "  RATES_BASE_URL      rates upstream (enables the rates source)")
	fmt.Fprintln(w, "  RATES_API_KEY       rates API key")
}

func runCLI(ctx context.Context, args []string, reg *sources.Registry, out io.Writer) error {
	if len(args) == 0 {
		usage(out, reg)
		return nil
	}
	switch args[0] {
	case "help", "--help", "-h":
		usage(out, reg)
		return nil
	case "version", "--version", "-v":
		fmt.Fprintln(out, "feedgate probe v0.1.0")
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("missing action for source %q", args[0])
	}

	src, ok := reg.Get(args[0])
	if !ok {
		available := reg.List()
		if len(available) == 0 {
			return fmt.Errorf("no sources are configured. Please set the required environment variables")
		}
		return fmt.Errorf("source '%s' not found. Available sources: %v", args[0], available)
	}

	params, err := parseParams(args[2:])
	if err != nil {
		return err
	}

	v, err := src.Fetch(ctx, args[1], params)
	if err != nil {
		return fmt.Errorf("%s %s: %w", args[0], args[1], err)
	}

	if blob, ok := v.(sources.Blob); ok {
		_, err := fmt.Fprintf(out, "%s, %d bytes\n", blob.ContentType, len(blob.Data))
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = out.Write(buf.Bytes())
	return err
}

func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", a)
		}
		params[k] = v
	}
	return params, nil
}
