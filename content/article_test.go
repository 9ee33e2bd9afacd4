package content_test

import (
	"strings"
	"testing"
	"time"

	"github.com/inkpress/inkpress/content"
)

func Test_Slugify_Produces_URL_Safe_Slugs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title string
		want  string
	}{
		{"This is a Test Article!", "this-is-a-test-article"},
		{"Hello World", "hello-world"},
		{"  Leading & Trailing  ", "leading-trailing"},
		{"Multiple---Hyphens    here", "multiple-hyphens-here"},
		{"100% Go!", "100-go"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := content.Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func Test_Slugify_Is_Idempotent(t *testing.T) {
	t.Parallel()

	once := content.Slugify("A Title With Punctuation, Obviously!")

	if twice := content.Slugify(once); twice != once {
		t.Errorf("Slugify(Slugify(x)) = %q, want %q", twice, once)
	}
}

func Test_IsPublished_Respects_Flag_And_Schedule(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name        string
		published   bool
		publishedAt string
		want        bool
	}{
		{"draft", false, "", false},
		{"draft with past date", false, "2020-01-01 00:00:00", false},
		{"published no date", true, "", true},
		{"published past date", true, "2026-08-27 09:00:00", true},
		{"published at this second", true, "2026-08-28 12:00:00", true},
		{"scheduled future date", true, "2026-09-01 00:00:00", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := &content.Article{Published: tc.published, PublishedAt: tc.publishedAt}

			if got := a.IsPublished(now); got != tc.want {
				t.Errorf("IsPublished = %v, want %v", got, tc.want)
			}
		})
	}
}

func Test_ReadingTime_Rounds_And_Never_Drops_Below_One_Minute(t *testing.T) {
	t.Parallel()

	cases := []struct {
		words int
		want  int
	}{
		{0, 1},
		{1, 1},
		{199, 1},
		{300, 2},
		{400, 2},
		{1000, 5},
	}

	for _, tc := range cases {
		a := &content.Article{Body: strings.Repeat("word ", tc.words)}

		if got := a.ReadingTime(); got != tc.want {
			t.Errorf("ReadingTime with %d words = %d, want %d", tc.words, got, tc.want)
		}
	}
}

func Test_GenerateExcerpt_Cuts_On_Word_Boundary(t *testing.T) {
	t.Parallel()

	a := &content.Article{
		Body: "The quick brown fox jumps over the lazy dog and keeps on running through the endless fields of golden wheat under a wide open sky",
	}

	got := a.GenerateExcerpt(50)

	if !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt %q does not end with ellipsis", got)
	}

	if n := len([]rune(got)); n > 53 {
		t.Errorf("excerpt length = %d, want <= 53", n)
	}

	// No word is cut in the middle.
	trimmed := strings.TrimSuffix(got, "...")
	if !strings.HasPrefix(a.Body, trimmed) {
		t.Errorf("excerpt %q is not a prefix of the body", trimmed)
	}
}

func Test_GenerateExcerpt_Short_Body_Is_Kept_Whole(t *testing.T) {
	t.Parallel()

	a := &content.Article{Body: "Short body."}

	if got := a.GenerateExcerpt(160); got != "Short body...." {
		t.Errorf("excerpt = %q", got)
	}
}

func Test_GenerateExcerpt_Collapses_Whitespace(t *testing.T) {
	t.Parallel()

	a := &content.Article{Body: "First   line.\n\nSecond\tline."}

	if got := a.GenerateExcerpt(160); got != "First line. Second line...." {
		t.Errorf("excerpt = %q", got)
	}
}

func Test_EffectiveExcerpt_Prefers_Explicit_Excerpt(t *testing.T) {
	t.Parallel()

	a := &content.Article{Excerpt: "Hand-written summary.", Body: "A much longer body that would be truncated."}

	if got := a.EffectiveExcerpt(); got != "Hand-written summary." {
		t.Errorf("excerpt = %q", got)
	}
}

func Test_HasTag_Compares_Case_Insensitively(t *testing.T) {
	t.Parallel()

	a := &content.Article{Tags: []string{"golang", "web-dev"}}

	if !a.HasTag("GoLang") {
		t.Error("HasTag(GoLang) = false")
	}

	if a.HasTag("python") {
		t.Error("HasTag(python) = true")
	}
}
