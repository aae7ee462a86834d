// Package textutil provides text processing helpers shared by the release
// extractor and the caption assembler.
//
// The primary use cases are:
//   - Unicode compatibility normalization of raw filenames
//   - Title-casing cleaned release titles
//   - Collapsing whitespace runs
//   - Rendering byte counts as short human-readable sizes
//   - Escaping free text for Telegram's HTML parse mode
package textutil
