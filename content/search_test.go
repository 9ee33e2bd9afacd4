package content_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/inkpress/inkpress/content"
)

func seedSearchCorpus(t *testing.T) *content.Repository {
	t.Helper()

	repo, _ := newTestRepository(t)

	seed := []*content.Article{
		{
			Title:     "Modern PHP Practices",
			Body:      "Composer, namespaces, and typed properties changed everything.\n",
			Author:    "alex",
			Published: true,
			Category:  "programming",
			Tags:      []string{"php", "backend"},
		},
		{
			Title:     "Getting Started With Go",
			Body:      "Go favors simplicity. Even a PHP developer will feel at home quickly.\n",
			Author:    "jane",
			Published: true,
			Category:  "programming",
			Tags:      []string{"go", "beginners"},
		},
		{
			Title:     "Gardening in August",
			Body:      "Tomatoes need water and patience, nothing else.\n",
			Author:    "sam",
			Published: true,
			Category:  "hobby",
			Tags:      []string{"garden"},
		},
		{
			Title:     "Unpublished PHP Deep Dive",
			Body:      "Internals of the PHP engine.\n",
			Author:    "alex",
			Published: false,
			Tags:      []string{"php"},
		},
	}

	for _, a := range seed {
		if err := repo.Create(a); err != nil {
			t.Fatalf("create %s: %v", a.Title, err)
		}
	}

	return repo
}

func Test_Search_Orders_By_Field_Weighted_Relevance(t *testing.T) {
	t.Parallel()

	repo := seedSearchCorpus(t)

	got, err := repo.Search("php")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	// The title plus tag match outranks the body-only mention; the draft
	// never appears, gardening scores zero.
	if diff := cmp.Diff([]string{"modern-php-practices", "getting-started-with-go"}, slugsOf(got)); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
}

func Test_Search_Matches_Category(t *testing.T) {
	t.Parallel()

	repo := seedSearchCorpus(t)

	got, err := repo.Search("programming")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(got))
	}

	for _, a := range got {
		if a.Category != "programming" {
			t.Errorf("unexpected result %s in category %q", a.Slug, a.Category)
		}
	}
}

func Test_Search_Is_Case_Insensitive(t *testing.T) {
	t.Parallel()

	repo := seedSearchCorpus(t)

	lower, err := repo.Search("php")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	upper, err := repo.Search("PHP")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if diff := cmp.Diff(slugsOf(lower), slugsOf(upper)); diff != "" {
		t.Errorf("case changed results (-lower +upper):\n%s", diff)
	}
}

func Test_Search_Multiple_Tokens_Accumulate_Score(t *testing.T) {
	t.Parallel()

	repo := seedSearchCorpus(t)

	got, err := repo.Search("go php")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(got) == 0 {
		t.Fatal("no results")
	}

	// Both tokens hit the Go article's title and tags, pushing it past the
	// PHP article that matches only one of them strongly.
	if got[0].Slug != "getting-started-with-go" {
		t.Errorf("top result = %s", got[0].Slug)
	}
}

func Test_Search_Empty_Query_Returns_Nothing(t *testing.T) {
	t.Parallel()

	repo := seedSearchCorpus(t)

	got, err := repo.Search("   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("results = %v, want none", slugsOf(got))
	}
}

func Test_Search_No_Match_Returns_Empty(t *testing.T) {
	t.Parallel()

	repo := seedSearchCorpus(t)

	got, err := repo.Search("quantum")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("results = %v, want none", slugsOf(got))
	}
}
