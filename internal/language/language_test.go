package language

import (
	"reflect"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"tamil", "Tamil", true},
		{"TAM", "Tamil", true},
		{" Tel ", "Telugu", true},
		{"hin", "Hindi", true},
		{"eng", "English", true},
		{"mal", "Malayalam", true},
		{"kan", "Kannada", true},
		{"ben", "Bengali", true},
		{"Portuguese", "Portuguese", true},
		{"klingon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScanUsesTableOrder(t *testing.T) {
	got := Scan("Movie 2020 Hindi English Tamil WEB-DL")
	want := []string{"Tamil", "Hindi", "English"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestScanDeduplicatesAliases(t *testing.T) {
	got := Scan("Tamil TAM tam")
	if !reflect.DeepEqual(got, []string{"Tamil"}) {
		t.Fatalf("Scan = %v", got)
	}
}

func TestScanRequiresWholeWords(t *testing.T) {
	if got := Scan("Endgame Telephone Malware Kangaroo"); len(got) != 0 {
		t.Fatalf("expected no matches for embedded aliases, got %v", got)
	}
}

func TestTableOrderIsStable(t *testing.T) {
	want := []string{
		"Tamil", "Telugu", "Hindi", "English", "Malayalam", "Kannada", "Bengali",
		"Punjabi", "Marathi", "Korean", "Japanese", "Chinese", "French", "Spanish",
		"Arabic", "Russian", "German", "Italian", "Portuguese",
	}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
}
