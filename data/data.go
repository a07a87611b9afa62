// Package data holds the records passed between the scraper, the discovery
// service, the task store, and the http api.
//
// Counters scraped from the platform are pointers: nil means the page didn't
// expose the value, which is different from zero.
package data

// Int64 returns a pointer to n.
func Int64(n int64) *int64 { return &n }

// String returns a pointer to s.
func String(s string) *string { return &s }

// Count dereferences a counter, treating an absent value as zero.
func Count(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}
