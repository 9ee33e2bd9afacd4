package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkpress/inkpress/storage"
)

// ErrDuplicateKey indicates a create collided with an existing slug.
// The existing record is untouched; the caller picks a new slug.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNoTitle indicates an article had neither a slug nor a title to
// derive one from.
var ErrNoTitle = errors.New("article needs a slug or a title")

// Repository is the query surface over stored articles. It is constructed
// with its storage driver; swapping the driver swaps the backend.
//
// Aggregate reads (All, Published, Search, ...) materialize every record
// eagerly, skip records that fail to parse (logged, not fatal), and
// propagate storage failures unchanged.
type Repository struct {
	driver storage.Driver
	log    zerolog.Logger
	index  *Index
	now    func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithIndex attaches a metadata index kept in sync on writes.
func WithIndex(ix *Index) Option {
	return func(r *Repository) {
		r.index = ix
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository creates a repository over driver.
func NewRepository(driver storage.Driver, log zerolog.Logger, opts ...Option) *Repository {
	r := &Repository{
		driver: driver,
		log:    log,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// All returns every readable article, in key order. Records whose
// metadata fails to parse are skipped and logged; anything else aborts
// the load.
func (r *Repository) All() ([]*Article, error) {
	keys, err := r.driver.List()
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	articles := make([]*Article, 0, len(keys))

	for _, key := range keys {
		rec, err := r.driver.Load(key)
		if err != nil {
			if errors.Is(err, storage.ErrParse) {
				r.log.Warn().Str("slug", key).Err(err).Msg("skipping malformed article")

				continue
			}

			if errors.Is(err, storage.ErrNotFound) {
				// Deleted between List and Load.
				continue
			}

			return nil, err
		}

		articles = append(articles, fromRecord(key, rec))
	}

	return articles, nil
}

// Find returns the article with the given slug. Unlike aggregate loads, a
// parse failure on an explicitly requested record is fatal.
//
// Returns [storage.ErrNotFound] when no such record exists.
func (r *Repository) Find(slug string) (*Article, error) {
	rec, err := r.driver.Load(slug)
	if err != nil {
		return nil, err
	}

	return fromRecord(slug, rec), nil
}

// Create persists a new article. The slug derives from the title when not
// given explicitly. Fails with [ErrDuplicateKey] if the slug is taken.
func (r *Repository) Create(a *Article) error {
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}

	if a.Slug == "" {
		return ErrNoTitle
	}

	_, err := r.driver.Load(a.Slug)

	switch {
	case err == nil:
		return fmt.Errorf("create %s: %w", a.Slug, ErrDuplicateKey)
	case errors.Is(err, storage.ErrParse):
		// Malformed on disk is still occupied.
		return fmt.Errorf("create %s: %w", a.Slug, ErrDuplicateKey)
	case errors.Is(err, storage.ErrNotFound):
		// Free.
	default:
		return fmt.Errorf("create %s: %w", a.Slug, err)
	}

	now := r.now().Format(TimeLayout)

	a.CreatedAt = now
	a.UpdatedAt = now

	if a.Published && a.PublishedAt == "" {
		a.PublishedAt = now
	}

	return r.persist(a)
}

// Save replaces the stored article under its slug. The whole record is
// rewritten; there is no partial update.
func (r *Repository) Save(a *Article) error {
	if a.Slug == "" {
		return ErrNoTitle
	}

	now := r.now().Format(TimeLayout)

	if a.CreatedAt == "" {
		a.CreatedAt = now
	}

	a.UpdatedAt = now

	if a.Published && a.PublishedAt == "" {
		a.PublishedAt = now
	}

	return r.persist(a)
}

func (r *Repository) persist(a *Article) error {
	a.Tags = normalizeTags(a.Tags)

	if err := r.driver.Save(a.Slug, a.record()); err != nil {
		return err
	}

	if r.index != nil {
		if err := r.index.Upsert(a); err != nil {
			return fmt.Errorf("index %s: %w", a.Slug, err)
		}
	}

	return nil
}

// Delete removes the article with the given slug.
func (r *Repository) Delete(slug string) error {
	if err := r.driver.Delete(slug); err != nil {
		return err
	}

	if r.index != nil {
		if err := r.index.Remove(slug); err != nil {
			return fmt.Errorf("unindex %s: %w", slug, err)
		}
	}

	return nil
}

// Published returns articles visible now: published flag set and
// published_at absent or in the past. Future-dated articles stay hidden
// until their time comes.
func (r *Repository) Published() ([]*Article, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}

	now := r.now()

	var out []*Article

	for _, a := range all {
		if a.IsPublished(now) {
			out = append(out, a)
		}
	}

	return out, nil
}

// Featured returns all featured articles.
func (r *Repository) Featured() ([]*Article, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}

	var out []*Article

	for _, a := range all {
		if a.Featured {
			out = append(out, a)
		}
	}

	return out, nil
}

// ByCategory returns articles in the named category (case-insensitive).
func (r *Repository) ByCategory(name string) ([]*Article, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}

	var out []*Article

	for _, a := range all {
		if strings.EqualFold(a.Category, name) {
			out = append(out, a)
		}
	}

	return out, nil
}

// ByTag returns articles carrying the named tag (case-insensitive).
func (r *Repository) ByTag(name string) ([]*Article, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}

	var out []*Article

	for _, a := range all {
		if a.HasTag(name) {
			out = append(out, a)
		}
	}

	return out, nil
}

// Categories returns the deduplicated, sorted set of categories across
// all articles.
func (r *Repository) Categories() ([]string, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})

	for _, a := range all {
		if c := strings.TrimSpace(a.Category); c != "" {
			set[c] = struct{}{}
		}
	}

	return sortedSet(set), nil
}

// Tags returns the deduplicated, sorted set of tags across all articles.
func (r *Repository) Tags() ([]string, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})

	for _, a := range all {
		for _, t := range a.Tags {
			set[t] = struct{}{}
		}
	}

	return sortedSet(set), nil
}

// Recent returns up to n published articles, newest first by
// published_at. Fixed-width timestamps make the string comparison
// chronological; articles without a timestamp sort last.
func (r *Repository) Recent(n int) ([]*Article, error) {
	published, err := r.Published()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(published, func(i, j int) bool {
		pi, pj := published[i].PublishedAt, published[j].PublishedAt

		if (pi == "") != (pj == "") {
			return pj == ""
		}

		return pi > pj
	})

	if n >= 0 && len(published) > n {
		published = published[:n]
	}

	return published, nil
}

// Reindex rebuilds the metadata index from the files wholesale. A no-op
// without an attached index.
func (r *Repository) Reindex() error {
	if r.index == nil {
		return nil
	}

	all, err := r.All()
	if err != nil {
		return err
	}

	if err := r.index.Rebuild(all); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	r.log.Info().Int("articles", len(all)).Msg("index rebuilt")

	return nil
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}

	sort.Strings(out)

	return out
}
