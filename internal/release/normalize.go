package release

import (
	"strings"
	"unicode"
)

// splitExtension separates a trailing extension. A suffix only counts as an
// extension when it is short, alphanumeric, and not itself a release token,
// so names such as "Movie.2019.1080p" keep their last token.
func splitExtension(filename string) (string, string) {
	idx := strings.LastIndex(filename, ".")
	if idx <= 0 || idx == len(filename)-1 {
		return filename, ""
	}
	ext := filename[idx+1:]
	if len(ext) > 5 || !isExtension(ext) {
		return filename, ""
	}
	return filename[:idx], strings.ToLower(ext)
}

func isExtension(ext string) bool {
	hasLetter := false
	for _, r := range ext {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	if !hasLetter {
		return false
	}
	return firstLabel(resolutionTags, ext) == "" && firstLabel(codecTags, ext) == ""
}

// normalizeSeparators replaces '.' and '_' separators with spaces. Bracketed
// and parenthesized groups pass through untouched, and dots that belong to a
// token are kept: the dot in front of a four-digit year, channel layouts
// such as "5.1", and codec names such as "h.264".
func normalizeSeparators(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '[' || r == '(' {
			if end := closingIndex(runes, i); end > i {
				out = append(out, runes[i:end+1]...)
				i = end
				continue
			}
		}
		switch {
		case r == '_':
			out = append(out, ' ')
		case r == '.' && !keepDot(runes, i):
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func closingIndex(runes []rune, open int) int {
	closer := ']'
	if runes[open] == '(' {
		closer = ')'
	}
	for j := open + 1; j < len(runes); j++ {
		if runes[j] == closer {
			return j
		}
	}
	return -1
}

func keepDot(runes []rune, i int) bool {
	return precedesYear(runes, i) || inChannelLayout(runes, i) || inCodecName(runes, i)
}

func precedesYear(runes []rune, i int) bool {
	if i+4 >= len(runes) {
		return false
	}
	for j := i + 1; j <= i+4; j++ {
		if !isDigit(runes, j) {
			return false
		}
	}
	after := i + 5
	if after == len(runes) {
		return true
	}
	next := runes[after]
	return next == '.' || next == ']' || next == ')' || unicode.IsSpace(next)
}

// inChannelLayout matches a dot between two single digits ("5.1", "2.0").
func inChannelLayout(runes []rune, i int) bool {
	return isDigit(runes, i-1) && isDigit(runes, i+1) && !isDigit(runes, i-2) && !isDigit(runes, i+2)
}

// inCodecName matches "h.264" and "h.265".
func inCodecName(runes []rune, i int) bool {
	if i < 1 || i+3 >= len(runes) {
		return false
	}
	if unicode.ToLower(runes[i-1]) != 'h' || (i >= 2 && isAlnum(runes[i-2])) {
		return false
	}
	digits := string(runes[i+1 : i+4])
	return (digits == "264" || digits == "265") && !isDigit(runes, i+4)
}

func isDigit(runes []rune, i int) bool {
	return i >= 0 && i < len(runes) && runes[i] >= '0' && runes[i] <= '9'
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
