// Package storage defines persistent word-list stores. A store keeps one
// ordered list; saving replaces it entirely.
package storage

import (
	"context"
	"fmt"
	"strings"
)

var (
	ErrNoWords         = fmt.Errorf("no words stored")
	ErrConnectDB       = fmt.Errorf("unable to establish DB connection")
	ErrDBNotResponding = fmt.Errorf("DB not responding")
)

type Store interface {
	// Words returns the stored list in order, or ErrNoWords when nothing is stored.
	Words(ctx context.Context) ([]string, error)
	// SaveWords atomically replaces the stored list.
	SaveWords(ctx context.Context, words []string) error
	Close()
}

// Clean drops blank entries and surrounding whitespace before a list is saved.
func Clean(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}
