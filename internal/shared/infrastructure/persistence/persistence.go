// Package persistence carries database transactions through a context so
// that repositories join the unit of work a command handler opened.
package persistence

import "errors"

// ErrNoTransaction is returned by Commit and Rollback on a context that
// never went through Begin.
var ErrNoTransaction = errors.New("no transaction in context")
