package offline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
)

// WorkerFileName is the artifact written into each branch output root.
const WorkerFileName = "service-worker.js"

type precacheEntry struct {
	URL      string `json:"url"`
	Revision string `json:"revision"`
}

const workerTemplate = `/* generated by webforge, do not edit */
'use strict';

const CACHE_NAME = %q;
const PRECACHE = %s;
const NAVIGATE_FALLBACK = %q;

self.addEventListener('install', (event) => {
  event.waitUntil(
    caches.open(CACHE_NAME).then((cache) =>
      cache.addAll(PRECACHE.map((entry) => new Request(entry.url, {cache: 'reload'})))
    ).then(() => self.skipWaiting())
  );
});

self.addEventListener('activate', (event) => {
  event.waitUntil(
    caches.keys().then((names) =>
      Promise.all(names.filter((n) => n !== CACHE_NAME).map((n) => caches.delete(n)))
    ).then(() => self.clients.claim())
  );
});

self.addEventListener('fetch', (event) => {
  if (event.request.method !== 'GET') {
    return;
  }
  event.respondWith(
    caches.match(event.request).then((cached) => {
      if (cached) {
        return cached;
      }
      return fetch(event.request).catch(() => {
        if (NAVIGATE_FALLBACK && event.request.mode === 'navigate') {
          return caches.match(NAVIGATE_FALLBACK);
        }
        return Response.error();
      });
    })
  );
});
`

// GenerateWorker is the post-processing step for a build branch: it walks
// the branch output root, computes a content revision for every eligible
// file, and writes a service worker precaching them. cfg may be nil, in
// which case defaults apply.
func GenerateWorker(ctx context.Context, root, cacheName string, cfg *Config) error {
	entries, err := collectEntries(ctx, root, cfg)
	if err != nil {
		return err
	}

	name := cacheName
	fallback := ""
	if cfg != nil {
		if cfg.CacheName != "" {
			name = cfg.CacheName
		}
		fallback = cfg.NavigateFallback
	}

	manifest, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWorker, "encode precache manifest").Build()
	}

	worker := fmt.Sprintf(workerTemplate, name, manifest, fallback)
	target := filepath.Join(root, WorkerFileName)
	if err := os.WriteFile(target, []byte(worker), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWorker, "write service worker").
			WithContext("path", target).Build()
	}
	return nil
}

func collectEntries(ctx context.Context, root string, cfg *Config) ([]precacheEntry, error) {
	entries := make([]precacheEntry, 0, 16)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == WorkerFileName || !included(rel, cfg) {
			return nil
		}

		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		sum := sha256.Sum256(data)
		entries = append(entries, precacheEntry{
			URL:      "/" + rel,
			Revision: hex.EncodeToString(sum[:])[:12],
		})
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryWorker, "collect precache entries").
			WithContext("root", root).Build()
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })
	return entries, nil
}

func included(rel string, cfg *Config) bool {
	if cfg == nil {
		return true
	}
	for _, pattern := range cfg.Exclude {
		if ok, _ := path.Match(pattern, rel); ok {
			return false
		}
	}
	if len(cfg.Include) == 0 {
		return true
	}
	for _, pattern := range cfg.Include {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
