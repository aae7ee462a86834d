// Package release turns arbitrarily formatted movie release filenames into
// structured metadata records and derives the movie key used to group every
// physical file of one logical movie.
//
// Extraction is deterministic rule-based matching against ordered token
// tables. Every table is an explicit slice; when several tokens of one kind
// appear in a name, the first table entry that matches wins, regardless of
// where the tokens sit in the name. Extract never fails: a record whose Title
// is empty means the name carried no usable title and must be dropped.
package release
