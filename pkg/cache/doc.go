// Package cache persists individual VSAC response pages keyed by request
// identity, so repeated invocations skip network calls for pages already
// fetched.
//
// A cache entry is the raw response payload for one (oid, version, offset)
// key. Entries are written immediately after a successful fetch and read
// before any network call for that exact key; a hit bypasses the retry
// executor and the network entirely.
//
// Two backends implement the Store interface:
//
//   - FileStore: one file per key in a cache directory, the default.
//     Writes are temp-file-then-rename so a concurrently starting run
//     never reads a partial page.
//   - RedisStore: shared cache across hosts, optional.
//
// # Basic Usage
//
//	store, err := cache.NewFileStore(".vsac-cache")
//	if err != nil {
//		return err
//	}
//
//	key := cache.Key{
//		OID:    "2.16.840.1.113883.3.526.3.1567",
//		Offset: 0,
//	}
//
//	payload, err := store.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from VSAC, then store.Put(ctx, key, payload)
//	}
package cache
