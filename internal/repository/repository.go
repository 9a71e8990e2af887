// Package repository holds the gorm-backed persistence for the API.
package repository

import (
	"errors"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique constraint violation
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps gorm errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func track(operation string) func() {
	start := time.Now()
	return func() { prometheus.TrackDBOperation(operation)(start) }
}
