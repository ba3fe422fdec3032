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

package identity

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/walteh/toonsync/pkg/charid"
)

const (
	DefaultMaxAge       = 15 * time.Minute
	DefaultFailureRetry = 30 * time.Second
	DefaultFanOut       = 4
)

// ResolverOptions tunes a Resolver. Zero values take defaults.
type ResolverOptions struct {
	// MaxAge is how long a resolved name stays fresh before it is eligible
	// for re-resolution.
	MaxAge time.Duration

	// FailureRetry is the minimum wait before a failed id is retried, so
	// repeated refreshes cannot hammer an unreachable service.
	FailureRetry time.Duration

	// FanOut bounds how many lookup batches are in flight at once.
	FanOut int
}

// Resolver turns character ids into display labels. It consults the cache
// first, batches the rest through the lookup transport, and absorbs every
// failure into cache state: the caller always receives a label per id, at
// worst the id's decimal form.
type Resolver struct {
	cache  *Cache
	client LookupClient
	opts   ResolverOptions
	flight singleflight.Group
}

// NewResolver creates a resolver over the given cache and transport.
func NewResolver(cache *Cache, client LookupClient, opts ResolverOptions) *Resolver {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.FailureRetry <= 0 {
		opts.FailureRetry = DefaultFailureRetry
	}
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}
	return &Resolver{
		cache:  cache,
		client: client,
		opts:   opts,
	}
}

// ResolveAll resolves a set of ids to display labels. It never fails: ids
// the service does not know, and ids it cannot reach the service for, come
// back labeled with their decimal form and are recorded as Failed in the
// cache for later retry.
func (r *Resolver) ResolveAll(ctx context.Context, ids []charid.CharacterID) map[charid.CharacterID]string {
	logger := zerolog.Ctx(ctx)

	labels := make(map[charid.CharacterID]string, len(ids))
	var needy []charid.CharacterID
	for _, id := range ids {
		if _, dup := labels[id]; dup {
			continue
		}
		labels[id] = id.String()

		rec, ok := r.cache.Get(id)
		if !ok {
			needy = append(needy, id)
			continue
		}
		switch {
		case rec.State == StateResolved && !IsStale(rec, r.opts.MaxAge):
			labels[id] = rec.Name
		case rec.State == StateFailed && time.Since(rec.ResolvedAt) < r.opts.FailureRetry:
			// Too soon to retry; keep the fallback label.
		default:
			if rec.State == StateResolved {
				// Stale name: still the best label we have if the refresh fails.
				labels[id] = rec.Name
			}
			needy = append(needy, id)
		}
	}

	if len(needy) == 0 {
		return labels
	}

	sort.Slice(needy, func(i, j int) bool { return needy[i] < needy[j] })
	batches := chunk(needy, r.client.BatchLimit())

	logger.Debug().
		Int("requested", len(ids)).
		Int("cached", len(ids)-len(needy)).
		Int("batches", len(batches)).
		Msg("resolving character names")

	results := make([]map[charid.CharacterID]string, len(batches))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.opts.FanOut)
	for i, batch := range batches {
		i, batch := i, batch
		eg.Go(func() error {
			results[i] = r.lookupBatch(ctx, batch)
			return nil
		})
	}
	// Workers never return errors; failures are recorded per id.
	_ = eg.Wait()

	for _, names := range results {
		for id, name := range names {
			labels[id] = name
		}
	}
	return labels
}

// lookupBatch resolves one batch through the transport and folds the result
// into the cache. Identical batches in flight at the same time share a
// single call. The returned map holds only successfully resolved names;
// everything else keeps its fallback label.
func (r *Resolver) lookupBatch(ctx context.Context, batch []charid.CharacterID) map[charid.CharacterID]string {
	logger := zerolog.Ctx(ctx)

	v, err, shared := r.flight.Do(batchKey(batch), func() (interface{}, error) {
		return r.client.Lookup(ctx, batch)
	})
	if shared {
		logger.Debug().Int("ids", len(batch)).Msg("coalesced concurrent lookup")
	}

	now := time.Now()
	if err != nil {
		logger.Debug().Err(err).Int("ids", len(batch)).Msg("lookup batch failed")
		for _, id := range batch {
			r.cache.Put(Record{ID: id, ResolvedAt: now, State: StateFailed, Reason: err})
		}
		return nil
	}

	names := v.(map[charid.CharacterID]string)
	resolved := make(map[charid.CharacterID]string, len(names))
	for _, id := range batch {
		name, ok := names[id]
		if !ok {
			// The service answered and does not know this id.
			r.cache.Put(Record{ID: id, ResolvedAt: now, State: StateFailed, Reason: ErrNotFound})
			continue
		}
		r.cache.Put(Record{ID: id, Name: name, ResolvedAt: now, State: StateResolved})
		resolved[id] = name
	}
	return resolved
}

func chunk(ids []charid.CharacterID, size int) [][]charid.CharacterID {
	if size <= 0 {
		size = 1
	}
	var out [][]charid.CharacterID
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func batchKey(ids []charid.CharacterID) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	return b.String()
}
