// Package services defines the business logic for poem submission, random
// selection, and deletion. This file centralizes service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into chat replies or HTTP status codes is performed by the
// chat dispatcher and the HTTP handlers.
package services

import (
	"errors"

	"github.com/tbourn/go-poem-bot/internal/domain"
)

var (
	// ErrNoMatchingPoems is returned by PickRandom when no stored poem of the
	// requested type satisfies the filter.
	ErrNoMatchingPoems = errors.New("no matching poems")

	// ErrUnknownPoemType is returned before any storage access when the
	// requested type is not one of the supported ones.
	ErrUnknownPoemType = domain.ErrUnknownPoemType
)
