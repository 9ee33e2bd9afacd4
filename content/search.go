package content

import (
	"sort"
	"strings"
)

// Per-field relevance weights. A record scores the sum over query tokens
// of every field that contains the token; tags score per matching tag.
const (
	weightTitle    = 10
	weightCategory = 8
	weightTag      = 6
	weightExcerpt  = 4
	weightAuthor   = 3
	weightBody     = 1
)

// Search runs a case-insensitive, whitespace-tokenized query over
// published articles and returns matches ordered by descending relevance.
// Zero-score articles are excluded. Ties keep their encounter order (the
// sort is stable), so results are deterministic for a given store.
func (r *Repository) Search(query string) ([]*Article, error) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	published, err := r.Published()
	if err != nil {
		return nil, err
	}

	type scored struct {
		article *Article
		score   int
	}

	var hits []scored

	for _, a := range published {
		if s := relevance(a, tokens); s > 0 {
			hits = append(hits, scored{article: a, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]*Article, len(hits))
	for i, h := range hits {
		out[i] = h.article
	}

	return out, nil
}

// relevance computes the additive score of one article against lowercase
// query tokens.
func relevance(a *Article, tokens []string) int {
	title := strings.ToLower(a.Title)
	category := strings.ToLower(a.Category)
	excerpt := strings.ToLower(a.EffectiveExcerpt())
	author := strings.ToLower(a.Author)
	body := strings.ToLower(a.Body)

	score := 0

	for _, token := range tokens {
		if strings.Contains(title, token) {
			score += weightTitle
		}

		if strings.Contains(category, token) {
			score += weightCategory
		}

		for _, tag := range a.Tags {
			if strings.Contains(tag, token) {
				score += weightTag
			}
		}

		if strings.Contains(excerpt, token) {
			score += weightExcerpt
		}

		if strings.Contains(author, token) {
			score += weightAuthor
		}

		if strings.Contains(body, token) {
			score += weightBody
		}
	}

	return score
}
