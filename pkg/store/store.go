// Package store holds storage helpers shared by the persistence backends.
package store

import (
	"github.com/introduceourtown/townrec/internal"
)

var log = internal.GetLogger()

// ErrPostgresDSNNotSet is returned when persistence is enabled without a DSN.
const ErrPostgresDSNNotSet = "persistence.postgres.dsn must be set"

// LogClose closes c and logs a failure, for use in shutdown paths.
func LogClose(name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		log.Errorf("error closing %s: %v", name, err)
	}
}
