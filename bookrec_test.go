package bookrec

import (
	"fmt"
	"testing"
)

func TestFacade(t *testing.T) {
	var corpus []Book
	for i := 0; i < 12; i++ {
		g := "fantasy"
		if i%2 == 1 {
			g = "sains"
		}
		corpus = append(corpus, Book{ID: fmt.Sprint(i), Title: fmt.Sprintf("judul %d", i), Genres: []string{g}, Popularity: int64(i)})
	}

	res := RecommendSimilar("0", corpus, 0)
	if len(res.Recommendations) != 10 {
		t.Errorf("RecommendSimilar() = %d results, want default 10", len(res.Recommendations))
	}
	if res := RecommendByLabel("JUDUL 3", corpus, 2); res.TargetID != "3" {
		t.Errorf("RecommendByLabel() target = %q, want 3", res.TargetID)
	}

	recs := ScoreForUser(GenreProfile{"fantasy": 2}, corpus[1:], corpus, 1)
	if len(recs) != 10 {
		t.Fatalf("ScoreForUser() = %d results, want clamped 10", len(recs))
	}
	if recs[0].Book.Genres[0] != "fantasy" {
		t.Errorf("top = %+v, want a fantasy book", recs[0].Book)
	}
}
