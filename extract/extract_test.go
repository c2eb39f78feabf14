package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const page = `<html><body>
<h1 class="title">Aries &amp; friends</h1>
<div class="forecast"><p class="text">A <b>good</b> day &mdash; trust yourself.</p></div>
<span class="lucky">7</span>
</body></html>`

func specs() []FieldSpec {
	return []FieldSpec{
		{Name: "title", Pattern: regexp.MustCompile(`<h1 class="title">(.*?)</h1>`)},
		{
			Name:      "text",
			Pattern:   regexp.MustCompile(`(?s)<div class="forecast">(.*?)</div>`),
			Refine:    regexp.MustCompile(`(?s)<p class="text">(.*?)</p>`),
			StripTags: true,
		},
		{Name: "mood", Pattern: regexp.MustCompile(`<span class="mood">(.*?)</span>`)},
		{Name: "lucky", Pattern: regexp.MustCompile(`<span class="lucky">\d+</span>`), Refine: regexp.MustCompile(`\d+`)},
	}
}

func TestExtract_PartialFailure(t *testing.T) {
	res := Extract(page, specs())

	require.Len(t, res, 4)

	title, ok := res.Get("title")
	require.True(t, ok)
	require.Equal(t, "Aries & friends", title)

	text, ok := res.Get("text")
	require.True(t, ok)
	require.Equal(t, "A good day — trust yourself.", text)

	_, ok = res.Get("mood")
	require.False(t, ok)

	lucky, ok := res.Get("lucky")
	require.True(t, ok)
	require.Equal(t, "7", lucky)

	require.Equal(t, []string{"mood"}, res.Missing())
	require.False(t, res.Empty())
}

func TestExtract_RefineMissIsAbsent(t *testing.T) {
	doc := `<div class="forecast">no paragraph here</div><h1 class="title">T</h1>`
	res := Extract(doc, specs())

	_, ok := res.Get("text")
	require.False(t, ok)
	v, ok := res.Get("title")
	require.True(t, ok)
	require.Equal(t, "T", v)
}

func TestExtract_NothingMatches(t *testing.T) {
	res := Extract("<html>layout changed</html>", specs())

	require.Len(t, res, 4)
	require.True(t, res.Empty())
	require.Equal(t, []string{"lucky", "mood", "text", "title"}, res.Missing())

	b, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"title":null,"text":null,"mood":null,"lucky":null}`, string(b))
}

func TestExtract_IsDeterministic(t *testing.T) {
	a := Extract(page, specs())
	b := Extract(page, specs())
	require.Equal(t, a, b)
}

func TestExtract_LegacyEncoding(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String(`<p class="text">Овен: удачный день</p>`)
	require.NoError(t, err)

	enc, err := Charset("windows-1251")
	require.NoError(t, err)

	res := Extract(encoded, []FieldSpec{{
		Name:     "text",
		Pattern:  regexp.MustCompile(`<p class="text">(.*?)</p>`),
		Encoding: enc,
	}})

	v, ok := res.Get("text")
	require.True(t, ok)
	require.Equal(t, "Овен: удачный день", v)
}

type failingTransform struct{}

func (failingTransform) String(string) (string, error) { return "", errors.New("bad bytes") }

func TestExtract_EncodingFailureOnlyBlanksThatField(t *testing.T) {
	res := Extract(page, []FieldSpec{
		{Name: "title", Pattern: regexp.MustCompile(`<h1 class="title">(.*?)</h1>`), Encoding: failingTransform{}},
		{Name: "lucky", Pattern: regexp.MustCompile(`<span class="lucky">(\d+)</span>`)},
	})

	_, ok := res.Get("title")
	require.False(t, ok)
	v, ok := res.Get("lucky")
	require.True(t, ok)
	require.Equal(t, "7", v)
}

func TestExtract_NilPatternIsAbsent(t *testing.T) {
	res := Extract(page, []FieldSpec{{Name: "broken"}})
	require.Equal(t, []string{"broken"}, res.Missing())
}

func TestCharset(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8"} {
		tr, err := Charset(name)
		require.NoError(t, err)
		require.Nil(t, tr, name)
	}

	tr, err := Charset("koi8-r")
	require.NoError(t, err)
	require.NotNil(t, tr)

	_, err = Charset("no-such-charset")
	require.Error(t, err)
}
