package release_test

import (
	"testing"

	"reelpost/internal/release"
)

func TestMovieKey(t *testing.T) {
	tests := []struct {
		title string
		year  uint16
		want  string
	}{
		{"The Dark Knight", 2008, "the dark knight_2008"},
		{"  Leo ", 2023, "leo_2023"},
		{"Nomad", 0, "nomad_"},
	}
	for _, tt := range tests {
		if got := release.MovieKey(tt.title, tt.year); got != tt.want {
			t.Errorf("MovieKey(%q, %d) = %q, want %q", tt.title, tt.year, got, tt.want)
		}
	}
}

func TestKeyStableAcrossQualities(t *testing.T) {
	a := release.Extract("Leo.2023.1080p.WEB-DL.x264.mkv", 0)
	b := release.Extract("Leo (2023) 480p HDRip HEVC [Tamil].mp4", 0)
	if a.Key() != b.Key() {
		t.Fatalf("expected shared key, got %q and %q", a.Key(), b.Key())
	}
}

func TestKeyDiffersByYear(t *testing.T) {
	a := release.Extract("Dune.1984.720p.BluRay.mkv", 0)
	b := release.Extract("Dune.2021.720p.BluRay.mkv", 0)
	if a.Key() == b.Key() {
		t.Fatalf("expected distinct keys for distinct years, both %q", a.Key())
	}
}
