package testsupport

import (
	"testing"

	"reelpost/internal/release"
)

// Arrival extracts filename as if it had been uploaded with the given file
// identity, failing the test when no title can be isolated.
func Arrival(t testing.TB, filename string, size uint64, uniqueID string) release.Record {
	t.Helper()

	rec := release.Extract(filename, size, release.WithFile(uniqueID, "ref-"+uniqueID))
	if !rec.Parsed() {
		t.Fatalf("extract %q: no title", filename)
	}
	return rec
}
