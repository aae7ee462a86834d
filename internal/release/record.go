package release

import (
	"strconv"
	"strings"
)

// Record is the metadata extracted from one physical file. Records are
// values; callers must not mutate the Languages slice of a shared record.
type Record struct {
	RawFilename     string   `json:"raw_filename"`
	SizeBytes       uint64   `json:"size_bytes"`
	Title           string   `json:"title"`
	Year            uint16   `json:"year,omitempty"`
	Quality         string   `json:"quality,omitempty"`
	Resolution      string   `json:"resolution,omitempty"`
	Codec           string   `json:"codec,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	AudioFormat     string   `json:"audio_format,omitempty"`
	AudioBitrate    string   `json:"audio_bitrate,omitempty"`
	HasSubtitles    bool     `json:"has_subtitles"`
	Extension       string   `json:"extension,omitempty"`
	UploaderCaption string   `json:"uploader_caption,omitempty"`
	FileUniqueID    string   `json:"file_unique_id"`
	FileRef         string   `json:"file_ref,omitempty"`
}

// Parsed reports whether extraction isolated a title.
func (r Record) Parsed() bool {
	return r.Title != ""
}

// Key returns the movie key for the record.
func (r Record) Key() string {
	return MovieKey(r.Title, r.Year)
}

// MovieKey normalizes a title and optional year (zero means unknown) into the
// grouping key, e.g. "the dark knight_2008" or "nomad_".
func MovieKey(title string, year uint16) string {
	key := strings.ToLower(strings.TrimSpace(title)) + "_"
	if year != 0 {
		key += strconv.Itoa(int(year))
	}
	return key
}

// Option enriches a record while it is being built.
type Option func(*Record)

// WithCaption attaches the uploader's free-text caption.
func WithCaption(caption string) Option {
	return func(r *Record) {
		r.UploaderCaption = strings.TrimSpace(caption)
	}
}

// WithFile attaches the transport's stable file identity and retrieval handle.
func WithFile(uniqueID, ref string) Option {
	return func(r *Record) {
		r.FileUniqueID = strings.TrimSpace(uniqueID)
		r.FileRef = ref
	}
}
