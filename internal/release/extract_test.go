package release

import (
	"reflect"
	"testing"
)

func TestExtractScenarios(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     uint64
		want     Record
	}{
		{
			name:     "dotted scene name",
			filename: "Avengers.Endgame.2019.BRRip.480p.x264.Tamil.AAC.300MB.mkv",
			size:     300 * 1024 * 1024,
			want: Record{
				Title:       "Avengers Endgame",
				Year:        2019,
				Quality:     "BRRip",
				Resolution:  "480p",
				Codec:       "x264",
				Languages:   []string{"Tamil"},
				AudioFormat: "AAC",
				Extension:   "mkv",
			},
		},
		{
			name:     "bracketed language list",
			filename: "RRR (2022) WEBRip 720p x264 [Tamil - Telugu - Hindi] AAC 2.0 450MB ESub.mkv",
			want: Record{
				Title:        "Rrr",
				Year:         2022,
				Quality:      "WEBRip",
				Resolution:   "720p",
				Codec:        "x264",
				Languages:    []string{"Tamil", "Telugu", "Hindi"},
				AudioFormat:  "AAC 2.0",
				HasSubtitles: true,
				Extension:    "mkv",
			},
		},
		{
			name:     "specific audio layout and bitrate",
			filename: "Leo.2023.1080p.WEB-DL.HEVC.[Tam+Tel+Hin].DDP5.1.640Kbps.ESub.mp4",
			want: Record{
				Title:        "Leo",
				Year:         2023,
				Quality:      "WEB-DL",
				Resolution:   "1080p",
				Codec:        "HEVC",
				Languages:    []string{"Tamil", "Telugu", "Hindi"},
				AudioFormat:  "DD+5.1",
				AudioBitrate: "640Kbps",
				HasSubtitles: true,
				Extension:    "mp4",
			},
		},
		{
			name:     "underscores and dotted codec",
			filename: "The_Dark_Knight_2008_BluRay_1080p_H.264_DTS-HD_English.MKV",
			want: Record{
				Title:       "The Dark Knight",
				Year:        2008,
				Quality:     "BluRay",
				Resolution:  "1080p",
				Codec:       "x264",
				Languages:   []string{"English"},
				AudioFormat: "DTS-HD MA",
				Extension:   "mkv",
			},
		},
		{
			name:     "no year cuts at technical token",
			filename: "Nomad.WEBRip.720p.x265.mkv",
			want: Record{
				Title:      "Nomad",
				Quality:    "WEBRip",
				Resolution: "720p",
				Codec:      "x265",
				Extension:  "mkv",
			},
		},
		{
			name:     "junk vocabulary stripped",
			filename: "www.TamilBlasters.com - Vikram (2022) PROPER HDRip 480p x264 AAC.mkv",
			want: Record{
				Title:       "Vikram",
				Year:        2022,
				Quality:     "HDRip",
				Resolution:  "480p",
				Codec:       "x264",
				AudioFormat: "AAC",
				Extension:   "mkv",
			},
		},
		{
			name:     "last year wins",
			filename: "Blade.Runner.2049.2017.2160p.BluRay.x265.mkv",
			want: Record{
				Title:      "Blade Runner 2049",
				Year:       2017,
				Quality:    "BluRay",
				Resolution: "2160p",
				Codec:      "x265",
				Extension:  "mkv",
			},
		},
		{
			name:     "no extension keeps last token",
			filename: "Drishyam.2013.720p",
			want: Record{
				Title:      "Drishyam",
				Year:       2013,
				Resolution: "720p",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.filename, tt.size)
			want := tt.want
			want.RawFilename = tt.filename
			want.SizeBytes = tt.size
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("Extract(%q)\n got: %+v\nwant: %+v", tt.filename, got, want)
			}
		})
	}
}

func TestExtractUnparseable(t *testing.T) {
	for _, filename := range []string{
		"9f86d081884c7d65.mkv",
		"3f2a9c7e-1b4d-4e8f-9a6b-2c1d0e9f8a7b.mp4",
		"1080p.x264.mkv",
		"[].mkv",
		"---.mp4",
		"\xff\xfe.2020.mkv",
		"",
	} {
		t.Run(filename, func(t *testing.T) {
			rec := Extract(filename, 1024)
			if rec.Title != "" || rec.Parsed() {
				t.Fatalf("expected empty title for %q, got %q", filename, rec.Title)
			}
			if rec.RawFilename != filename || rec.SizeBytes != 1024 {
				t.Fatalf("expected raw fields to be retained, got %+v", rec)
			}
		})
	}
}

func TestExtractNestedLanguageGroup(t *testing.T) {
	rec := Extract("Leo (2023) [HQ HDRip - x264 - [Tam + Tel] - (AAC 2.0) - 400MB].mkv", 0)
	if want := []string{"Tamil", "Telugu"}; !reflect.DeepEqual(rec.Languages, want) {
		t.Fatalf("languages = %v, want %v", rec.Languages, want)
	}
	if rec.Title != "Leo" || rec.Year != 2023 {
		t.Fatalf("unexpected title/year: %q %d", rec.Title, rec.Year)
	}
}

func TestExtractDropsInvalidUTF8(t *testing.T) {
	rec := Extract("Leo\xff.2023.720p.mkv", 0)
	if rec.Title != "Leo" {
		t.Fatalf("title = %q, want Leo", rec.Title)
	}
	if rec.Key() != "leo_2023" {
		t.Fatalf("key = %q", rec.Key())
	}
	if rec.RawFilename != "Leo\xff.2023.720p.mkv" {
		t.Fatalf("raw filename should be kept as received, got %q", rec.RawFilename)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	name := "Jailer (2023) [Tamil + Telugu] 1080p HQ HDRip x264 DD5.1 ESub.mkv"
	first := Extract(name, 2<<30)
	for i := 0; i < 5; i++ {
		if again := Extract(name, 2<<30); !reflect.DeepEqual(first, again) {
			t.Fatalf("extraction differs between runs: %+v vs %+v", first, again)
		}
	}
	if first.AudioFormat != "DD 5.1" {
		t.Fatalf("expected DD 5.1, got %q", first.AudioFormat)
	}
}

func TestExtractOptionsEnrichRecord(t *testing.T) {
	rec := Extract("Leo.2023.720p.mkv", 10,
		WithCaption("  Leo (2023) 720p HQ  "),
		WithFile("AgADuniq", "BAACAgfile"),
	)
	if rec.UploaderCaption != "Leo (2023) 720p HQ" {
		t.Fatalf("unexpected caption %q", rec.UploaderCaption)
	}
	if rec.FileUniqueID != "AgADuniq" || rec.FileRef != "BAACAgfile" {
		t.Fatalf("unexpected file identity %+v", rec)
	}
	if rec.Title != "Leo" {
		t.Fatalf("options must not affect extraction, got title %q", rec.Title)
	}
}

func TestBracketLanguagesPreferFirstMappedGroup(t *testing.T) {
	rec := Extract("Kaithi (2019) [Hindi + Tamil] English Dub.mkv", 0)
	if !reflect.DeepEqual(rec.Languages, []string{"Hindi", "Tamil"}) {
		t.Fatalf("unexpected languages %v", rec.Languages)
	}
}

func TestLanguageFallbackScansWholeName(t *testing.T) {
	rec := Extract("Kaithi.2019.Hindi.Tamil.HDRip.mkv", 0)
	if !reflect.DeepEqual(rec.Languages, []string{"Tamil", "Hindi"}) {
		t.Fatalf("expected table order for whole-name scan, got %v", rec.Languages)
	}
}

func TestFirstMatchPolicy(t *testing.T) {
	rec := Extract("Movie.2020.WEBRip.BluRay.x264.x265.mkv", 0)
	if rec.Quality != "BluRay" {
		t.Fatalf("quality table order must win over name order, got %q", rec.Quality)
	}
	if rec.Codec != "x265" {
		t.Fatalf("codec table order must win over name order, got %q", rec.Codec)
	}
}
