// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openxosc/xosc-core/xosc"
)

// Sentinel errors for catalog operations.
var (
	// ErrDiscovery is returned when a catalog directory cannot be scanned.
	ErrDiscovery = errors.New("catalog discovery failed")

	// ErrParse is returned when a catalog file cannot be read or decoded.
	ErrParse = errors.New("catalog file parse failed")

	// ErrLookup is returned when no discovered entry has the requested name.
	ErrLookup = errors.New("catalog entry not found")

	// ErrDuplicateEntry is returned when more than one discovered entry has
	// the requested name and duplicates are not allowed.
	ErrDuplicateEntry = errors.New("duplicate catalog entry")

	// ErrCycle is returned when a resolution re-enters a key that is still
	// being resolved.
	ErrCycle = errors.New("circular catalog reference")
)

// DiscoveryError reports a directory that cannot be scanned.
type DiscoveryError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	msg := fmt.Sprintf("%s: %q: %s", ErrDiscovery, e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrDiscovery and the underlying error, if any.
func (e *DiscoveryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDiscovery}
	}
	return []error{ErrDiscovery, e.Err}
}

// ParseError reports a catalog file that failed to load.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrParse, e.Path, e.Err)
}

// Unwrap returns ErrParse and the underlying error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// LookupError reports an entry name that matched nothing.
type LookupError struct {
	Kind      xosc.Kind
	Catalog   string
	Entry     string
	Directory string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s %q in catalog %q (searched %s)", ErrLookup, e.Kind, e.Entry, e.Catalog, e.Directory)
}

// Unwrap returns ErrLookup.
func (e *LookupError) Unwrap() error {
	return ErrLookup
}

// DuplicateEntryError reports an entry name defined in more than one place.
type DuplicateEntryError struct {
	Kind  xosc.Kind
	Entry string
	// Paths lists every file defining the entry, in scan order.
	Paths []string
}

// Error implements the error interface.
func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("%s: %s %q defined in %s", ErrDuplicateEntry, e.Kind, e.Entry, strings.Join(e.Paths, ", "))
}

// Unwrap returns ErrDuplicateEntry.
func (e *DuplicateEntryError) Unwrap() error {
	return ErrDuplicateEntry
}

// CycleError reports a resolution key that was re-entered.
type CycleError struct {
	Key string
	// InFlight is the sorted set of keys being resolved when the cycle was
	// detected.
	InFlight []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if len(e.InFlight) == 0 {
		return fmt.Sprintf("%s: %s", ErrCycle, e.Key)
	}
	return fmt.Sprintf("%s: %s (in flight: %s)", ErrCycle, e.Key, strings.Join(e.InFlight, ", "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error {
	return ErrCycle
}
