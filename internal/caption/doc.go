// Package caption renders the channel post text for a movie: a header
// summarising every file, one descriptive line per file in arrival order,
// and a footer carrying the deep link. Output uses Telegram's HTML parse mode
// and is a pure function of its inputs, so re-rendering unchanged state
// produces byte-identical text.
package caption
