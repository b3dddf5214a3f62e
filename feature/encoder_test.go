package feature

import (
	"reflect"
	"testing"

	"github.com/rushteam/bookrec/core"
)

func TestBuildGenreVocabulary(t *testing.T) {
	books := []core.Book{
		{ID: "1", Genres: []string{" Fantasy ", "Sains"}},
		{ID: "2", Genres: []string{"fantasy"}},
		{ID: "3"},
		{ID: "4", Genres: []string{"Novel; Romance"}},
	}
	got := BuildGenreVocabulary(books)
	want := GenreVocabulary{"fantasy", "novel", "romance", "sains"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildGenreVocabulary() = %v, want %v", got, want)
	}
}

func TestMultiHotEncoder_Encode(t *testing.T) {
	enc := NewMultiHotEncoder(GenreVocabulary{"fantasy", "novel", "sains"})

	tests := []struct {
		name   string
		genres []string
		want   GenreVector
		zero   bool
	}{
		{name: "single label", genres: []string{"Fantasy"}, want: GenreVector{1, 0, 0}},
		{name: "multiple labels", genres: []string{"sains", "novel"}, want: GenreVector{0, 1, 1}},
		{name: "delimited string", genres: []string{"Novel, Sains"}, want: GenreVector{0, 1, 1}},
		{name: "unknown label", genres: []string{"horror"}, want: GenreVector{0, 0, 0}, zero: true},
		{name: "no genres", genres: nil, want: GenreVector{0, 0, 0}, zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enc.Encode(tt.genres)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode(%v) = %v, want %v", tt.genres, got, tt.want)
			}
			if got.IsZero() != tt.zero {
				t.Errorf("IsZero() = %v, want %v", got.IsZero(), tt.zero)
			}
		})
	}
}

func TestMultiHotEncoder_EncodeBook(t *testing.T) {
	enc := NewMultiHotEncoder(GenreVocabulary{"fantasy"})
	if _, ok := enc.EncodeBook(core.Book{ID: "x"}); ok {
		t.Error("book without genres should not be encodable")
	}
	if vec, ok := enc.EncodeBook(core.Book{ID: "y", Genres: []string{"fantasy"}}); !ok || vec[0] != 1 {
		t.Errorf("EncodeBook() = %v, %v, want [1], true", vec, ok)
	}
}

func TestGenreVocabulary_IndexOf(t *testing.T) {
	v := GenreVocabulary{"fantasy", "novel", "sains"}
	if i := v.IndexOf(" NOVEL "); i != 1 {
		t.Errorf("IndexOf(NOVEL) = %d, want 1", i)
	}
	if i := v.IndexOf("horror"); i != -1 {
		t.Errorf("IndexOf(horror) = %d, want -1", i)
	}
}
