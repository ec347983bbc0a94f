// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is a cached resolution result.
type Entry struct {
	// Record is nil for addresses no provider could locate.
	Record *Record
	// InsertedAt is the time the entry was stored.
	InsertedAt time.Time
}

// Cache stores resolution results per address for a fixed time to live.
// Expired entries are only dropped when they are read.
// It is safe for concurrent use.
type Cache struct {
	ttl   time.Duration
	store *gocache.Cache
	now   func() time.Time
}

// NewCache creates an empty cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl: ttl,
		// A cleanup interval of 0 disables the background janitor.
		store: gocache.New(gocache.NoExpiration, 0),
		now:   time.Now,
	}
}

// Get returns the entry of the address.
// It reports false if the address was never stored or its entry has expired.
func (c *Cache) Get(addr string) (Entry, bool) {
	v, ok := c.store.Get(addr)
	if !ok {
		return Entry{}, false
	}
	entry, ok := v.(Entry)
	if !ok {
		c.store.Delete(addr)
		return Entry{}, false
	}

	if c.now().Sub(entry.InsertedAt) > c.ttl {
		c.store.Delete(addr)
		return Entry{}, false
	}
	return entry, true
}

// Put stores the record of the address, replacing any existing entry.
// A nil record marks the address as unresolvable.
func (c *Cache) Put(addr string, rec *Record) {
	c.store.Set(addr, Entry{Record: rec, InsertedAt: c.now()}, gocache.NoExpiration)
}

// Len returns the number of stored entries including expired ones not read yet.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
