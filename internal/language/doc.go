// Package language maps the audio-language tokens found in release filenames
// (full names and common three-letter abbreviations) to display names.
//
// The vocabulary lives in a single ordered table. Table order is the priority
// used when scanning free text, so entries must never be reordered casually.
package language
