// Package app contains the application services orchestrating the
// domain packages against their repositories.
package app

import "github.com/phishsim/api/pkg/pagination"

// paginationFor returns a first-page pagination with the given size.
func paginationFor(limit int) pagination.Pagination {
	return pagination.New(1, limit)
}
