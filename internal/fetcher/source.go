// Package fetcher retrieves pothole tickets from a Socrata (SODA) open-data
// endpoint.
package fetcher

import "context"

// Source is anything that can produce pothole records.
//
//go:generate mockgen -package mockfetcher -source=source.go -destination=mockfetcher/mockfetcher.go
type Source interface {
	// FetchRecords runs the configured query and returns every matching record.
	FetchRecords(ctx context.Context) ([]Record, error)
	// FetchCategories lists the distinct issue sub-categories the portal knows,
	// used to explain an empty result.
	FetchCategories(ctx context.Context) ([]string, error)
}
