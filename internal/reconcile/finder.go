package reconcile

import "context"

// PageFetch returns one page of records from a remote listing. Page
// numbering starts at zero. A malformed remote response must be reported
// as an empty page, not an error.
type PageFetch[T any] func(ctx context.Context, page, limit int) ([]T, error)

// FindByRef scans a paged remote listing for the first record whose
// reference equals target after normalization. Scanning stops at the
// first empty page, or after maxPages pages; maxPages bounds the walk
// against unbounded or misbehaving listings. Within a page the first
// match in remote order wins, and later pages are never fetched once a
// match is found.
//
// refsOf yields the candidate reference strings of a record; a record
// matches when any of them normalizes to target.
func FindByRef[T any](ctx context.Context, target string, fetch PageFetch[T], refsOf func(T) []string, pageSize, maxPages int) (T, bool, error) {
	var zero T

	want := Normalize(target)
	if want == "" {
		return zero, false, nil
	}

	for page := 0; page < maxPages; page++ {
		records, err := fetch(ctx, page, pageSize)
		if err != nil {
			return zero, false, err
		}
		if len(records) == 0 {
			return zero, false, nil
		}
		for _, rec := range records {
			for _, ref := range refsOf(rec) {
				if Normalize(ref) == want {
					return rec, true, nil
				}
			}
		}
	}
	return zero, false, nil
}
