// SPDX-FileCopyrightText: Copyright 2026 The OpenXOSC Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"slices"
	"sync"

	"github.com/openxosc/xosc-core/xosc"
)

// ResolutionKey identifies one entry resolution: "{kind}:{catalog}:{entry}".
func ResolutionKey(kind xosc.Kind, catalogName, entryName string) string {
	return string(kind) + ":" + catalogName + ":" + entryName
}

// Resolver tracks the resolutions in flight so that a chain of references
// that re-enters itself is reported instead of recursing forever.
//
// The set is guarded for map safety only. Two goroutines resolving the same
// key at the same time will see a CycleError; callers that need to
// deduplicate concurrent same-key resolutions must serialize them.
type Resolver struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{inFlight: make(map[string]struct{})}
}

// Begin marks key as in flight. It returns a *CycleError if it already is.
func (r *Resolver) Begin(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inFlight[key]; ok {
		return &CycleError{Key: key, InFlight: r.snapshotLocked()}
	}
	r.inFlight[key] = struct{}{}
	return nil
}

// End clears key. Ending a key that is not in flight is a no-op.
func (r *Resolver) End(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, key)
}

// Guard begins key and returns the function that ends it. Callers defer the
// release so the key is cleared on every return path:
//
//	release, err := r.Guard(key)
//	if err != nil {
//		return err
//	}
//	defer release()
func (r *Resolver) Guard(key string) (func(), error) {
	if err := r.Begin(key); err != nil {
		return func() {}, err
	}
	var once sync.Once
	return func() { once.Do(func() { r.End(key) }) }, nil
}

// InFlight returns the keys currently in flight, sorted.
func (r *Resolver) InFlight() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Resolver) snapshotLocked() []string {
	keys := make([]string, 0, len(r.inFlight))
	for k := range r.inFlight {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
