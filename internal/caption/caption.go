package caption

import (
	"strconv"
	"strings"

	"reelpost/internal/release"
	"reelpost/internal/textutil"
)

const (
	placeholder = "—"
	footerNote  = "Note ❗: If the link is not working, copy it and paste into your browser."
)

// MaxPhotoCaption is Telegram's caption limit for photo messages, in characters.
const MaxPhotoCaption = 1024

// Assemble renders the post for records ordered by arrival. Title and year
// come from the authoritative merged record, never from the first file.
// It returns an empty string when there is nothing to describe.
func Assemble(records []release.Record, deepLink, title string, year uint16) string {
	if len(records) == 0 {
		return ""
	}

	var qualities, languages []string
	for _, rec := range records {
		qualities = textutil.AppendUnique(qualities, rec.Quality)
		languages = textutil.AppendUnique(languages, rec.Languages...)
	}

	yearText := placeholder
	if year != 0 {
		yearText = strconv.Itoa(int(year))
	}

	lines := []string{
		"🎬 <b>Title</b>: " + textutil.EscapeHTML(title),
		"📅 <b>Year</b>  : " + yearText,
		"📀 <b>Quality</b>: " + joinOr(qualities, " | "),
		"🎧 <b>Audio</b>: " + joinOr(languages, " + "),
		"",
		"🔺 <b>Telegram File</b> 🔻",
		"",
	}
	for _, rec := range records {
		lines = append(lines, "♨️ "+textutil.EscapeHTML(Line(rec)))
	}
	lines = append(lines,
		"",
		"📦 <b>Get all files in one link:</b>",
		"<code>"+textutil.EscapeHTML(deepLink)+"</code>",
		"",
		footerNote,
	)
	return strings.Join(lines, "\n")
}

// Line renders the display line for one file. The uploader's caption wins
// when present; otherwise a descriptive filename is rebuilt in fixed field
// order, omitting absent fields. A bitrate is only shown next to its format:
//
//	Title (Year) - Quality - Resolution - Codec - [Lang + Lang] - (Format - Bitrate) - Size - ESub.ext
func Line(rec release.Record) string {
	if caption := strings.TrimSpace(rec.UploaderCaption); caption != "" {
		return caption
	}

	head := rec.Title
	if rec.Year != 0 {
		head += " (" + strconv.Itoa(int(rec.Year)) + ")"
	}
	parts := []string{head}
	for _, field := range []string{rec.Quality, rec.Resolution, rec.Codec} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	if len(rec.Languages) > 0 {
		parts = append(parts, "["+strings.Join(rec.Languages, " + ")+"]")
	}
	switch {
	case rec.AudioFormat != "" && rec.AudioBitrate != "":
		parts = append(parts, "("+rec.AudioFormat+" - "+rec.AudioBitrate+")")
	case rec.AudioFormat != "":
		parts = append(parts, "("+rec.AudioFormat+")")
	}
	if size := textutil.HumanSize(rec.SizeBytes); size != "" {
		parts = append(parts, size)
	}
	if rec.HasSubtitles {
		parts = append(parts, "ESub")
	}

	line := strings.Join(parts, " - ")
	if rec.Extension != "" {
		line += "." + rec.Extension
	}
	return line
}

// FitsPhoto reports whether text can be sent as a photo caption.
func FitsPhoto(text string) bool {
	return len([]rune(text)) <= MaxPhotoCaption
}

func joinOr(values []string, sep string) string {
	if len(values) == 0 {
		return placeholder
	}
	return strings.Join(values, sep)
}
