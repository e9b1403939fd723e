// Package filters narrows, orders and caps the rows of list views from query parameters,
// and reports which filters were applied.
package filters
