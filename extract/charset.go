package extract

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// charset decodes with a fresh decoder per call; x/text decoders carry
// state and must not be shared between goroutines.
type charset struct {
	enc encoding.Encoding
}

func (c charset) String(s string) (string, error) {
	return c.enc.NewDecoder().String(s)
}

// Charset returns the Transform decoding the named charset (any label the
// WHATWG encoding spec accepts, e.g. "windows-1251", "koi8-r", "latin1").
// UTF-8 and an empty name return nil: no conversion needed.
func Charset(name string) (Transform, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return nil, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	return charset{enc: enc}, nil
}
