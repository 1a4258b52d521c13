package domain

import (
	"testing"
	"time"
)

func TestValidGenre(t *testing.T) {
	for _, g := range Genres {
		if !ValidGenre(g) {
			t.Errorf("ValidGenre(%q) = false", g)
		}
	}
	for _, g := range []string{"Musical", "action", "", "Sci Fi"} {
		if ValidGenre(g) {
			t.Errorf("ValidGenre(%q) = true", g)
		}
	}
}

func TestParseReleasedDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2016-11-11", time.Date(2016, 11, 11, 0, 0, 0, 0, time.UTC)},
		{"2016-11-11T00:00:00Z", time.Date(2016, 11, 11, 0, 0, 0, 0, time.UTC)},
		{"2016-11-11T08:30:00+02:00", time.Date(2016, 11, 11, 6, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := MovieInput{ReleasedDate: tc.in}.ParseReleasedDate()
		if err != nil {
			t.Errorf("ParseReleasedDate(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseReleasedDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, in := range []string{"", "11/11/2016", "November 11th", "2016-13-40"} {
		if _, err := (MovieInput{ReleasedDate: in}).ParseReleasedDate(); err == nil {
			t.Errorf("ParseReleasedDate(%q) succeeded", in)
		}
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: []string{"title", "genre"}}
	if got := err.Error(); got != "invalid or missing fields: title, genre" {
		t.Fatalf("Error() = %q", got)
	}
}
