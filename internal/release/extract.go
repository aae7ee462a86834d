package release

import (
	"strconv"
	"strings"

	"reelpost/internal/language"
	"reelpost/internal/textutil"
)

// Extract parses a release filename and size into a Record. It never fails;
// an empty Title marks the input as unparseable. Options run before
// extraction so the returned record is complete.
func Extract(filename string, sizeBytes uint64, opts ...Option) Record {
	rec := Record{RawFilename: filename, SizeBytes: sizeBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(&rec)
		}
	}

	name, ext := splitExtension(strings.TrimSpace(strings.ToValidUTF8(filename, "")))
	rec.Extension = ext

	normalized := normalizeSeparators(textutil.NormalizeUnicode(name))

	rec.HasSubtitles = subtitleMarker.MatchString(normalized)
	rec.Resolution = firstLabel(resolutionTags, normalized)
	rec.Quality = firstLabel(qualityTags, normalized)
	rec.Codec = firstLabel(codecTags, normalized)
	rec.AudioFormat = firstLabel(audioTags, normalized)
	rec.AudioBitrate = extractBitrate(normalized)
	rec.Languages = extractLanguages(normalized)
	rec.Year = extractYear(normalized)
	rec.Title = extractTitle(normalized, rec.Year)
	return rec
}

func extractBitrate(s string) string {
	m := audioBitrate.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1] + "Kbps"
}

// extractLanguages reads the first bracketed or parenthesized group that
// names a known language, falling back to a whole-name scan. A nested group
// is matched from the outer opener, so stray brackets are split off tokens.
func extractLanguages(s string) []string {
	for _, m := range bracketGroup.FindAllStringSubmatch(s, -1) {
		var found []string
		for _, token := range languageSplit.Split(m[1], -1) {
			if display, ok := language.Lookup(token); ok {
				found = textutil.AppendUnique(found, display)
			}
		}
		if len(found) > 0 {
			return found
		}
	}
	return language.Scan(s)
}

// extractYear returns the last plausible release year in s, or zero.
func extractYear(s string) uint16 {
	matches := yearToken.FindAllString(s, -1)
	if len(matches) == 0 {
		return 0
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return 0
	}
	return uint16(year)
}

// extractTitle takes the prefix before the year, or before the first
// technical token when the year prefix is empty or missing. The whole name is
// used only when it carries neither a year nor a technical token.
func extractTitle(s string, year uint16) string {
	anchored := false
	if year != 0 {
		if idx := strings.Index(s, strconv.Itoa(int(year))); idx >= 0 {
			anchored = true
			if title := cleanTitle(s[:idx]); title != "" {
				return title
			}
		}
	}
	if loc := technicalToken.FindStringIndex(s); loc != nil {
		anchored = true
		if title := cleanTitle(s[:loc[0]]); title != "" {
			return title
		}
	}
	if anchored {
		return ""
	}
	return cleanTitle(s)
}

func cleanTitle(s string) string {
	s = innerDot.ReplaceAllString(s, " ${1}")
	s = junkTags.ReplaceAllString(s, "")
	s = bracketChars.ReplaceAllString(s, "")
	s = separatorRun.ReplaceAllString(s, "")
	s = strings.Trim(textutil.CollapseSpaces(s), " -_.,|:")
	s = textutil.CollapseSpaces(s)
	if s == "" || looksLikeIdentifier(s) {
		return ""
	}
	return textutil.TitleCase(s)
}

// looksLikeIdentifier rejects hash or id shaped names such as
// "3f9a2c01d4e7" that carry no title.
func looksLikeIdentifier(s string) bool {
	if strings.ContainsRune(s, ' ') {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if hexToken.MatchString(s) && digits > 0 && digits < len(s) {
		return true
	}
	return idToken.MatchString(s) && digits >= 3
}
