// Package extract turns semi-structured upstream documents into typed fields.
//
// Extraction is driven by a list of FieldSpec records. Each field is located
// independently, so a fragment that moved or vanished upstream only blanks
// that one field. Nothing in this package performs I/O.
package extract

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Transform converts captured text to UTF-8. *encoding.Decoder from
// golang.org/x/text satisfies it.
type Transform interface {
	String(s string) (string, error)
}

// FieldSpec describes how to pull one field out of a document.
type FieldSpec struct {
	Name string
	// Pattern locates the fragment. The first capture group is used when
	// present, otherwise the whole match.
	Pattern *regexp.Regexp
	// Refine, if set, is applied to the fragment Pattern captured.
	Refine *regexp.Regexp
	// Encoding converts the captured bytes from a legacy charset.
	// nil means the document is already UTF-8.
	Encoding Transform
	// StripTags removes any markup left in the captured text.
	StripTags bool
}

// Result maps field names to extracted values. A nil value marks a field
// that could not be extracted; it encodes as JSON null.
type Result map[string]*string

// Get returns the value of name and whether it was extracted
func (r Result) Get(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Missing returns the sorted names of absent fields
func (r Result) Missing() []string {
	var out []string
	for name, v := range r {
		if v == nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Empty reports whether no field was extracted
func (r Result) Empty() bool {
	for _, v := range r {
		if v != nil {
			return false
		}
	}
	return true
}

var stripPolicy = bluemonday.StrictPolicy()

// Extract applies every spec to doc. It always returns a Result holding one
// entry per spec name.
func Extract(doc string, specs []FieldSpec) Result {
	res := make(Result, len(specs))
	for _, spec := range specs {
		if v, ok := Field(doc, spec); ok {
			res[spec.Name] = &v
		} else {
			res[spec.Name] = nil
		}
	}
	return res
}

// Field extracts a single field. ok is false when the fragment is missing
// or its encoding cannot be converted.
func Field(doc string, spec FieldSpec) (string, bool) {
	if spec.Pattern == nil {
		return "", false
	}

	frag, ok := capture(spec.Pattern, doc)
	if !ok {
		return "", false
	}

	if spec.Refine != nil {
		if frag, ok = capture(spec.Refine, frag); !ok {
			return "", false
		}
	}

	if spec.Encoding != nil {
		decoded, err := spec.Encoding.String(frag)
		if err != nil {
			return "", false
		}
		frag = decoded
	}

	if spec.StripTags {
		// the policy escapes what it keeps; UnescapeString below undoes it
		frag = stripPolicy.Sanitize(frag)
	}

	return strings.TrimSpace(html.UnescapeString(frag)), true
}

func capture(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}
