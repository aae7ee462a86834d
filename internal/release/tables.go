package release

import "regexp"

// tag pairs a compiled pattern with the label it yields.
type tag struct {
	label   string
	pattern *regexp.Regexp
}

// wordTable compiles token/label pairs into whole-word, case-insensitive tags.
func wordTable(pairs ...[2]string) []tag {
	out := make([]tag, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, tag{label: p[1], pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p[0]) + `\b`)})
	}
	return out
}

// patternTable compiles raw pattern/label pairs, case-insensitive.
func patternTable(pairs ...[2]string) []tag {
	out := make([]tag, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, tag{label: p[1], pattern: regexp.MustCompile(`(?i)` + p[0])})
	}
	return out
}

func firstLabel(table []tag, s string) string {
	for _, t := range table {
		if t.pattern.MatchString(s) {
			return t.label
		}
	}
	return ""
}

var resolutionTags = wordTable(
	[2]string{"2160p", "2160p"},
	[2]string{"1080p", "1080p"},
	[2]string{"720p", "720p"},
	[2]string{"480p", "480p"},
	[2]string{"360p", "360p"},
)

var qualityTags = wordTable(
	[2]string{"bluray", "BluRay"},
	[2]string{"blu-ray", "BluRay"},
	[2]string{"blu_ray", "BluRay"},
	[2]string{"bdrip", "BluRay"},
	[2]string{"brrip", "BRRip"},
	[2]string{"br-rip", "BRRip"},
	[2]string{"webrip", "WEBRip"},
	[2]string{"web-rip", "WEBRip"},
	[2]string{"webdl", "WEB-DL"},
	[2]string{"web-dl", "WEB-DL"},
	[2]string{"hdrip", "HDRip"},
	[2]string{"hd-rip", "HDRip"},
	[2]string{"dvdrip", "DVDRip"},
	[2]string{"dvd-rip", "DVDRip"},
	[2]string{"hdts", "HDTS"},
	[2]string{"hd-ts", "HDTS"},
	[2]string{"hdcam", "HDCAM"},
	[2]string{"camrip", "CAMRip"},
	[2]string{"tvrip", "TVRip"},
)

var codecTags = wordTable(
	[2]string{"x265", "x265"},
	[2]string{"x264", "x264"},
	[2]string{"hevc", "HEVC"},
	[2]string{"h265", "HEVC"},
	[2]string{"h.265", "HEVC"},
	[2]string{"h264", "x264"},
	[2]string{"h.264", "x264"},
	[2]string{"xvid", "XviD"},
	[2]string{"divx", "DivX"},
	[2]string{"av1", "AV1"},
	[2]string{"vp9", "VP9"},
)

// audioTags lists specific layouts ahead of the bare codec names they
// contain; reordering them lets a generic pattern shadow a specific one.
var audioTags = patternTable(
	[2]string{`dd\+\s*5\.1|dolby\s*digital\s*plus\s*5\.1|ddp\s*5\.1`, "DD+5.1"},
	[2]string{`dd\s*5\.1|dolby\s*digital\s*5\.1`, "DD 5.1"},
	[2]string{`dd\+\s*7\.1|ddp\s*7\.1`, "DD+7.1"},
	[2]string{`dts[-\s]?hd|dts-ma`, "DTS-HD MA"},
	[2]string{`\bdts\b`, "DTS"},
	[2]string{`truehd\s*atmos|truehd`, "TrueHD"},
	[2]string{`aac\s*2\.0`, "AAC 2.0"},
	[2]string{`aac\s*5\.1`, "AAC 5.1"},
	[2]string{`\baac\b`, "AAC"},
	[2]string{`e-ac-3|eac3`, "EAC-3"},
	[2]string{`ac3\s*5\.1|ac3`, "AC3"},
	[2]string{`mp3`, "MP3"},
	[2]string{`opus`, "Opus"},
	[2]string{`flac`, "FLAC"},
)

var (
	subtitleMarker = regexp.MustCompile(`(?i)\besub\b`)
	audioBitrate   = regexp.MustCompile(`(?i)(\d{2,4})\s*kbps`)
	yearToken      = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	bracketGroup   = regexp.MustCompile(`[\[\(]([^\]\)]+)[\]\)]`)
	languageSplit  = regexp.MustCompile(`[+\-,&/|\[\](){}]|\s+`)

	// technicalToken marks where a title ends when no year is present.
	technicalToken = regexp.MustCompile(`(?i)\b(` +
		`bluray|blu-ray|bdrip|brrip|webrip|webdl|web-dl|hdrip|dvdrip|` +
		`x264|x265|hevc|h264|h265|` +
		`480p|720p|1080p|2160p|` +
		`aac|dd5|ddp|dts|mp3|` +
		`esub` +
		`)\b`)

	// junkTags is scene, tracker, and cut-edition vocabulary removed from titles.
	junkTags = regexp.MustCompile(`(?i)\b(` +
		`extended|theatrical|directors?\s*cut|unrated|remastered|proper|readnfo|internal|retail|scene|` +
		`yify|yts|rarbg|fgt|ganool|mkvcage|psarips|pahe|piracy|torrent|` +
		`www\.[a-z0-9]+\.[a-z]+|www\s+[a-z0-9]+\s+[a-z]+` +
		`)\b`)

	bracketChars = regexp.MustCompile(`[\[\(\{\]\)\}]+`)
	separatorRun = regexp.MustCompile(`[-_]{2,}`)
	innerDot     = regexp.MustCompile(`\.(\S)`)
	hexToken     = regexp.MustCompile(`^[0-9a-fA-F-]{8,}$`)
	idToken      = regexp.MustCompile(`^[0-9A-Za-z_-]{16,}$`)
)
