package frontmatter_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/inkpress/inkpress/pkg/frontmatter"
)

func Test_Split_Separates_Block_And_Body(t *testing.T) {
	t.Parallel()

	doc := []byte("---\ntitle: Hello\npublished: true\n---\n\nBody line one.\nBody line two.\n")

	block, body, err := frontmatter.Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if string(block) != "title: Hello\npublished: true" {
		t.Errorf("block = %q", block)
	}

	if body != "Body line one.\nBody line two.\n" {
		t.Errorf("body = %q", body)
	}
}

func Test_Split_Accepts_Block_Without_Body(t *testing.T) {
	t.Parallel()

	block, body, err := frontmatter.Split([]byte("---\ntitle: Hello\n---"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if string(block) != "title: Hello" {
		t.Errorf("block = %q", block)
	}

	if body != "" {
		t.Errorf("body = %q, want empty", body)
	}
}

func Test_Split_Rejects_Missing_Opening_Fence(t *testing.T) {
	t.Parallel()

	_, _, err := frontmatter.Split([]byte("title: Hello\n---\nBody"))
	if !errors.Is(err, frontmatter.ErrNoBlock) {
		t.Fatalf("got %v, want ErrNoBlock", err)
	}
}

func Test_Split_Rejects_Unterminated_Block(t *testing.T) {
	t.Parallel()

	_, _, err := frontmatter.Split([]byte("---\ntitle: Hello\nBody without closing fence\n"))
	if !errors.Is(err, frontmatter.ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}

func Test_Split_Ignores_Dashes_Inside_Body(t *testing.T) {
	t.Parallel()

	doc := []byte("---\ntitle: Hello\n---\nIntro\n\n---\n\nA horizontal rule above.\n")

	_, body, err := frontmatter.Split(doc)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if !strings.Contains(body, "horizontal rule") {
		t.Errorf("body lost content after rule: %q", body)
	}
}

func Test_Parse_Decodes_Scalars_And_Lists(t *testing.T) {
	t.Parallel()

	meta, err := frontmatter.Parse([]byte("title: Hello World\npublished: true\ntags: [go, web]\nviews: 42\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := frontmatter.String(meta["title"]); got != "Hello World" {
		t.Errorf("title = %q", got)
	}

	if !frontmatter.Bool(meta["published"]) {
		t.Error("published should be true")
	}

	if diff := cmp.Diff([]string{"go", "web"}, frontmatter.StringList(meta["tags"])); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	if got := frontmatter.String(meta["views"]); got != "42" {
		t.Errorf("views = %q", got)
	}
}

func Test_Parse_Rejects_Non_Mapping(t *testing.T) {
	t.Parallel()

	for _, block := range []string{"- just\n- a\n- list\n", "scalar-only"} {
		_, err := frontmatter.Parse([]byte(block))
		if !errors.Is(err, frontmatter.ErrMalformed) {
			t.Errorf("parse %q: got %v, want ErrMalformed", block, err)
		}
	}
}

func Test_Parse_Accepts_Empty_Block(t *testing.T) {
	t.Parallel()

	meta, err := frontmatter.Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(meta) != 0 {
		t.Fatalf("meta = %v, want empty", meta)
	}
}

func Test_Marshal_Is_Deterministic_With_Priority_Keys(t *testing.T) {
	t.Parallel()

	meta := map[string]any{
		"title":     "Hello World",
		"published": true,
		"tags":      []string{"go", "web"},
		"author":    "jane",
	}

	got, err := frontmatter.Marshal(meta, frontmatter.WithKeyPriority("title", "author"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := "---\ntitle: Hello World\nauthor: jane\npublished: true\ntags: [go, web]\n---\n"
	if got != want {
		t.Errorf("marshal = %q, want %q", got, want)
	}
}

func Test_Marshal_Quotes_Ambiguous_Strings(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"true":        `"true"`,
		"42":          `"42"`,
		"":            `""`,
		" padded ":    `" padded "`,
		"a: colon":    `"a: colon"`,
		"hash # tail": `"hash # tail"`,
	}

	for in, want := range cases {
		got, err := frontmatter.Marshal(map[string]any{"v": in})
		if err != nil {
			t.Fatalf("marshal %q: %v", in, err)
		}

		if got != "---\nv: "+want+"\n---\n" {
			t.Errorf("marshal %q = %q, want value %s", in, got, want)
		}
	}
}

func Test_Marshal_Then_Parse_Round_Trips(t *testing.T) {
	t.Parallel()

	meta := map[string]any{
		"title":        "PHP Programming: A Guide",
		"published":    true,
		"published_at": "2026-01-15 09:30:00",
		"tags":         []string{"php", "web development"},
		"featured":     false,
		"views":        1337,
	}

	out, err := frontmatter.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	block, _, err := frontmatter.Split([]byte(out + "\nbody\n"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	back, err := frontmatter.Parse(block)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := frontmatter.String(back["title"]); got != "PHP Programming: A Guide" {
		t.Errorf("title = %q", got)
	}

	if got := frontmatter.String(back["published_at"]); got != "2026-01-15 09:30:00" {
		t.Errorf("published_at = %q", got)
	}

	if diff := cmp.Diff([]string{"php", "web development"}, frontmatter.StringList(back["tags"])); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	if frontmatter.Bool(back["featured"]) {
		t.Error("featured should stay false")
	}
}

func Test_Marshal_Rejects_Invalid_Keys_And_Values(t *testing.T) {
	t.Parallel()

	if _, err := frontmatter.Marshal(map[string]any{"bad key": 1}); err == nil {
		t.Error("expected error for key with space")
	}

	if _, err := frontmatter.Marshal(map[string]any{"v": nil}); err == nil {
		t.Error("expected error for nil value")
	}

	if _, err := frontmatter.Marshal(map[string]any{"v": map[string]any{"bad key": 1}}); err == nil {
		t.Error("expected error for invalid nested key")
	}
}

func Test_Parse_Normalizes_Unquoted_Dates(t *testing.T) {
	t.Parallel()

	block := []byte("published_at: 2024-03-01 10:00:00\nevent_date: 2026-05-01\n")

	meta, err := frontmatter.Parse(block)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := frontmatter.String(meta["published_at"]); got != "2024-03-01 10:00:00" {
		t.Errorf("published_at = %q", got)
	}

	if got := frontmatter.String(meta["event_date"]); got != "2026-05-01" {
		t.Errorf("event_date = %q", got)
	}
}

func Test_Marshal_Accepts_Everything_Parse_Produces(t *testing.T) {
	t.Parallel()

	// Hand-authored YAML with unquoted dates and a nested mapping parses
	// into time.Time and map values; saving that metadata back must work.
	block := []byte("title: Extras\nevent_date: 2026-05-01\nmeta:\n  source: import\n  batch: 7\n")

	meta, err := frontmatter.Parse(block)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	out, err := frontmatter.Marshal(meta, frontmatter.WithKeyPriority("title"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := "---\ntitle: Extras\nevent_date: \"2026-05-01\"\nmeta:\n  batch: 7\n  source: import\n---\n"
	if out != want {
		t.Errorf("marshal = %q, want %q", out, want)
	}

	// And the output parses back to the same values.
	reblock, _, err := frontmatter.Split([]byte(out))
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	back, err := frontmatter.Parse(reblock)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}

	if got := frontmatter.String(back["event_date"]); got != "2026-05-01" {
		t.Errorf("event_date = %q", got)
	}

	nested, ok := back["meta"].(map[string]any)
	if !ok {
		t.Fatalf("meta = %T, want nested map", back["meta"])
	}

	if nested["source"] != "import" {
		t.Errorf("nested source = %v", nested["source"])
	}
}

func Test_Marshal_Renders_Time_Values_In_Fixed_Layout(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	out, err := frontmatter.Marshal(map[string]any{"published_at": ts})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if out != "---\npublished_at: \"2024-03-01 10:00:00\"\n---\n" {
		t.Errorf("marshal = %q", out)
	}
}

func Test_Split_Accepts_Empty_Block(t *testing.T) {
	t.Parallel()

	block, body, err := frontmatter.Split([]byte("---\n---\nbody line\n"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if len(block) != 0 {
		t.Errorf("block = %q, want empty", block)
	}

	if body != "body line\n" {
		t.Errorf("body = %q", body)
	}

	// Marshalling an empty map produces exactly this shape.
	out, err := frontmatter.Marshal(map[string]any{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if _, _, err := frontmatter.Split([]byte(out + "body\n")); err != nil {
		t.Fatalf("split of marshalled empty block: %v", err)
	}
}
