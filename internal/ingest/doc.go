// Package ingest connects uploads to posts.
//
// Handler.HandleUpload extracts a release record, drops names without a
// title, merges the record into the catalog and re-arms the movie's settle
// window. Handler.Publish is the settle action: it re-reads the merged record,
// assembles the caption and either creates the downstream post or edits the
// existing one. Dispatcher fans uploads out to key-sharded workers so
// arrivals for one movie merge in order while different movies proceed in
// parallel.
package ingest
