package annotation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/tiles/internal/db"
	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/record"
)

// store is the consumer interface for annotations (ISP).
type store interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo keeps the durable annotations of each content context. All annotations
// of one context live in a single hash, one field per annotation key.
type Repo struct {
	store  store
	prefix string
}

// New creates an annotation repository. Hash keys start with keyPrefix,
// or domain.KeyPrefix when it is empty.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: keyPrefix + "annotations:"}
}

// Get loads one annotation. The boolean is false when the key is absent.
func (r *Repo) Get(ctx context.Context, contextPath, key string) (record.Record, bool, error) {
	raw, err := r.store.HGet(ctx, r.hashKey(contextPath), key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget annotation %s: %w", key, err)
	}
	rec, err := unmarshalRecord(raw)
	if err != nil {
		return nil, false, fmt.Errorf("parse annotation %s: %w", key, err)
	}
	return rec, true, nil
}

// Set stores one annotation, replacing any previous value.
func (r *Repo) Set(ctx context.Context, contextPath, key string, rec record.Record) error {
	raw, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("marshal annotation %s: %w", key, err)
	}
	if err := r.store.HSet(ctx, r.hashKey(contextPath), map[string]string{key: raw}); err != nil {
		return fmt.Errorf("hset annotation %s: %w", key, err)
	}
	return nil
}

// Delete removes one annotation. Deleting an absent key is not an error.
func (r *Repo) Delete(ctx context.Context, contextPath, key string) error {
	if err := r.store.HDel(ctx, r.hashKey(contextPath), key); err != nil {
		return fmt.Errorf("hdel annotation %s: %w", key, err)
	}
	return nil
}

// Keys lists the annotation keys of a context in sorted order.
func (r *Repo) Keys(ctx context.Context, contextPath string) ([]string, error) {
	m, err := r.store.HGetAll(ctx, r.hashKey(contextPath))
	if err != nil {
		return nil, fmt.Errorf("hgetall annotations: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Contexts lists the paths of all contexts holding annotations.
func (r *Repo) Contexts(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, db.EscapeGlob(r.prefix)+"*")
	if err != nil {
		return nil, fmt.Errorf("scan annotations: %w", err)
	}
	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		paths = append(paths, r.contextPathFromKey(k))
	}
	slices.Sort(paths)
	return paths, nil
}

// Purge removes every annotation of a context.
func (r *Repo) Purge(ctx context.Context, contextPath string) error {
	if err := r.store.Del(ctx, r.hashKey(contextPath)); err != nil {
		return fmt.Errorf("del annotations: %w", err)
	}
	return nil
}

// Key pattern: {prefix}annotations:{context path}, the root context is "/".

func (r *Repo) hashKey(contextPath string) string {
	if contextPath == "" {
		contextPath = "/"
	}
	return r.prefix + contextPath
}

func (r *Repo) contextPathFromKey(key string) string {
	p := strings.TrimPrefix(key, r.prefix)
	if p == "/" {
		return ""
	}
	return p
}
