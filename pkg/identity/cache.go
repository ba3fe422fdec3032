// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package identity resolves character identifiers to display names through
// the game's public identity service, with caching and graceful degradation:
// a caller always gets a label for every id, even with the network down.
package identity

import (
	"sync"
	"time"

	"github.com/walteh/toonsync/pkg/charid"
)

// ResolutionState tracks where a cache record is in its lifecycle.
type ResolutionState int

const (
	StateUnresolved ResolutionState = iota
	StateResolved
	StateFailed
)

// String returns a string representation of ResolutionState
func (s ResolutionState) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unresolved"
	}
}

// Record is one cached resolution result. For a Failed record, ResolvedAt is
// the time of the failed attempt and Reason says what went wrong.
type Record struct {
	ID         charid.CharacterID
	Name       string
	ResolvedAt time.Time
	State      ResolutionState
	Reason     error
}

// IsStale reports whether a record should be re-resolved given the freshness
// window. Failed and unresolved records are always eligible for another
// attempt; retry pacing for failures is the resolver's concern.
func IsStale(rec Record, maxAge time.Duration) bool {
	if rec.State != StateResolved {
		return true
	}
	return time.Since(rec.ResolvedAt) > maxAge
}

// Cache is an in-memory id-to-name cache. It holds at most one record per
// id: Put replaces. The zero lifetime is the process; nothing is persisted.
type Cache struct {
	mu      sync.RWMutex
	records map[charid.CharacterID]Record
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		records: make(map[charid.CharacterID]Record),
	}
}

// Get returns the record for id, if any.
func (c *Cache) Get(id charid.CharacterID) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	return rec, ok
}

// Put stores a record, replacing any existing record for the same id.
func (c *Cache) Put(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[rec.ID] = rec
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Reset drops every record.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[charid.CharacterID]Record)
}
