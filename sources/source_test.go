package sources

import (
	"context"
	"testing"
)

// mockSource is a test implementation of the Source interface
type mockSource struct {
	name string
}

func (m *mockSource) Name() string      { return m.name }
func (m *mockSource) Actions() []string { return []string{"latest"} }

func (m *mockSource) Fetch(ctx context.Context, action string, params map[string]string) (any, error) {
	return map[string]string{"from": m.name}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if len(r.List()) != 0 {
		t.Fatalf("new registry should be empty")
	}

	r.Register(&mockSource{name: "rates"})
	r.Register(&mockSource{name: "horoscope"})

	if got := r.List(); len(got) != 2 || got[0] != "horoscope" || got[1] != "rates" {
		t.Fatalf("expected sorted names, got %v", got)
	}

	s, ok := r.Get("rates")
	if !ok || s.Name() != "rates" {
		t.Fatalf("expected to find rates source")
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatalf("did not expect missing source")
	}

	if !Supports(s, "latest") || Supports(s, "history") {
		t.Fatalf("unexpected Supports result")
	}

	desc := r.Describe()
	if len(desc["horoscope"]) != 1 || desc["horoscope"][0] != "latest" {
		t.Fatalf("unexpected Describe %v", desc)
	}
}

func TestToEntry(t *testing.T) {
	e, err := ToEntry(Blob{ContentType: "image/png", Data: []byte{1, 2}})
	if err != nil {
		t.Fatalf("ToEntry blob: %v", err)
	}
	if e.ContentType != "image/png" || len(e.Body) != 2 {
		t.Fatalf("unexpected blob entry %+v", e)
	}

	e, err = ToEntry(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("ToEntry json: %v", err)
	}
	if string(e.Body) != `{"a":1}` {
		t.Fatalf("unexpected json body %s", e.Body)
	}
}

type declaringSource struct {
	mockSource
}

func (d *declaringSource) Params(action string) []string {
	if action == "latest" {
		return []string{"base"}
	}
	return nil
}

func TestDeclaredParams(t *testing.T) {
	in := map[string]string{"base": "EUR", "_": "1700000000", "utm_source": "x"}

	got := DeclaredParams(&declaringSource{mockSource{name: "rates"}}, "latest", in)
	if len(got) != 1 || got["base"] != "EUR" {
		t.Fatalf("expected only base, got %v", got)
	}

	got = DeclaredParams(&declaringSource{mockSource{name: "rates"}}, "other", in)
	if len(got) != 0 {
		t.Fatalf("expected no params, got %v", got)
	}

	got = DeclaredParams(&mockSource{name: "plain"}, "latest", in)
	if len(got) != 3 {
		t.Fatalf("undeclared sources keep every param, got %v", got)
	}
}
