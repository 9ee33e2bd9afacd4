// Package content implements the article model and its query surface.
//
// Articles live as human-editable flat files behind a [storage.Driver];
// the [Repository] materializes them, answers filter/sort/search queries
// in memory, and optionally mirrors metadata into a SQLite index for fast
// listings. Files are the source of truth; the index is derived and can
// be rebuilt at any time.
package content

import (
	"math"
	"strings"
	"time"

	"github.com/inkpress/inkpress/pkg/frontmatter"
	"github.com/inkpress/inkpress/storage"
)

// TimeLayout is the fixed-width timestamp format used in front-matter and
// the index. Fixed width makes lexicographic comparison equivalent to
// chronological comparison.
const TimeLayout = "2006-01-02 15:04:05"

// wordsPerMinute is the reading-speed constant behind ReadingTime.
const wordsPerMinute = 200

// defaultExcerptLength bounds the derived excerpt when none is set
// explicitly.
const defaultExcerptLength = 160

// Article is one content record. Known front-matter keys map to typed
// fields; anything else an author adds to a file is preserved in Extra
// and round-trips untouched.
type Article struct {
	Slug        string
	Title       string
	Body        string
	Author      string
	Published   bool
	PublishedAt string // TimeLayout; empty means "as soon as published"
	Category    string
	Tags        []string
	Featured    bool
	Excerpt     string
	CreatedAt   string
	UpdatedAt   string

	// Extra holds unknown front-matter keys verbatim.
	Extra map[string]any
}

// metaKeyOrder is the front-matter serialization order for known fields.
// Extra keys follow alphabetically.
var metaKeyOrder = []string{
	"title",
	"author",
	"published",
	"published_at",
	"category",
	"tags",
	"featured",
	"excerpt",
	"created_at",
	"updated_at",
}

// MetaKeyOrder returns the front-matter key order articles are saved
// with, for wiring up a [storage.MarkdownDriver].
func MetaKeyOrder() []string {
	order := make([]string, len(metaKeyOrder))
	copy(order, metaKeyOrder)

	return order
}

// Slugify derives a URL-safe slug from a title: lowercased, runs of
// non-alphanumeric characters collapsed to a single hyphen, leading and
// trailing hyphens trimmed. Deterministic and idempotent.
func Slugify(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder

	hyphen := false

	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)

			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')

				hyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// IsPublished reports whether the article is visible at the given time:
// the published flag is set and published_at, when present, is not in the
// future. Future-dated articles are scheduled, not live.
func (a *Article) IsPublished(now time.Time) bool {
	if !a.Published {
		return false
	}

	if a.PublishedAt == "" {
		return true
	}

	return a.PublishedAt <= now.Format(TimeLayout)
}

// ReadingTime estimates reading time in whole minutes from the body word
// count at a fixed words-per-minute rate, never below one minute.
func (a *Article) ReadingTime() int {
	words := len(strings.Fields(a.Body))

	minutes := int(math.Round(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}

	return minutes
}

// GenerateExcerpt truncates the body to at most maxLength characters on a
// word boundary and appends an ellipsis marker. The result is never
// longer than maxLength+3.
func (a *Article) GenerateExcerpt(maxLength int) string {
	body := strings.Join(strings.Fields(a.Body), " ")

	runes := []rune(body)
	if len(runes) <= maxLength {
		return body + "..."
	}

	cut := string(runes[:maxLength])

	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}

	return strings.TrimRight(cut, " ") + "..."
}

// EffectiveExcerpt returns the explicit excerpt when set, otherwise one
// derived from the body.
func (a *Article) EffectiveExcerpt() string {
	if a.Excerpt != "" {
		return a.Excerpt
	}

	return a.GenerateExcerpt(defaultExcerptLength)
}

// HasTag reports whether the article carries the tag, compared
// case-insensitively.
func (a *Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(tag)) {
			return true
		}
	}

	return false
}

// record converts the article to its driver representation. Known fields
// become typed metadata entries; Extra keys are carried over unless they
// collide with a known key.
func (a *Article) record() *storage.RawRecord {
	meta := make(map[string]any, len(a.Extra)+len(metaKeyOrder))

	for key, value := range a.Extra {
		meta[key] = value
	}

	meta["title"] = a.Title
	meta["published"] = a.Published
	meta["featured"] = a.Featured

	setIfPresent := func(key, value string) {
		if value != "" {
			meta[key] = value
		} else {
			delete(meta, key)
		}
	}

	setIfPresent("author", a.Author)
	setIfPresent("published_at", a.PublishedAt)
	setIfPresent("category", a.Category)
	setIfPresent("excerpt", a.Excerpt)
	setIfPresent("created_at", a.CreatedAt)
	setIfPresent("updated_at", a.UpdatedAt)

	if len(a.Tags) > 0 {
		meta["tags"] = normalizeTags(a.Tags)
	} else {
		delete(meta, "tags")
	}

	return &storage.RawRecord{Meta: meta, Body: a.Body}
}

// fromRecord builds an Article from a driver record. Unknown metadata
// keys are preserved in Extra.
func fromRecord(slug string, rec *storage.RawRecord) *Article {
	a := &Article{
		Slug:        slug,
		Title:       frontmatter.String(rec.Meta["title"]),
		Body:        rec.Body,
		Author:      frontmatter.String(rec.Meta["author"]),
		Published:   frontmatter.Bool(rec.Meta["published"]),
		PublishedAt: frontmatter.String(rec.Meta["published_at"]),
		Category:    frontmatter.String(rec.Meta["category"]),
		Tags:        normalizeTags(frontmatter.StringList(rec.Meta["tags"])),
		Featured:    frontmatter.Bool(rec.Meta["featured"]),
		Excerpt:     frontmatter.String(rec.Meta["excerpt"]),
		CreatedAt:   frontmatter.String(rec.Meta["created_at"]),
		UpdatedAt:   frontmatter.String(rec.Meta["updated_at"]),
	}

	known := make(map[string]bool, len(metaKeyOrder))
	for _, key := range metaKeyOrder {
		known[key] = true
	}

	for key, value := range rec.Meta {
		if known[key] {
			continue
		}

		if a.Extra == nil {
			a.Extra = make(map[string]any)
		}

		a.Extra[key] = value
	}

	return a
}

// normalizeTags trims whitespace, lowercases, and deduplicates while
// preserving first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))

	var out []string

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}

		seen[tag] = true

		out = append(out, tag)
	}

	return out
}
