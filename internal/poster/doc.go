// Package poster resolves a movie title and year to a poster image URL.
//
// Lookup never fails: no match, a match without artwork, a disabled TMDB
// client, or a transport failure after retries all resolve to the configured
// fallback image.
package poster
