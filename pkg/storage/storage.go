package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// StorageType identifies a backend scheme.
type StorageType string

const (
	StorageTypeLocal StorageType = "file"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrNoBackend       = errors.New("no storage backend for location")
	ErrInvalidLocation = errors.New("invalid storage location")
)

// Storage is a keyed document store.
type Storage interface {
	// Exists reports whether key refers to an existing object.
	Exists(ctx context.Context, key string) (bool, error)
	// Get opens the object; missing objects return ErrObjectNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Store writes the object and returns its key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Delete removes the object.
	Delete(ctx context.Context, key string) error
}

// Location is a parsed document reference.
type Location struct {
	Scheme StorageType
	Bucket string
	Key    string
}

// ParseLocation splits "scheme://bucket/key". Anything without a known
// scheme, or with file://, is a local path, so a relative path such as
// "x://a.txt" still reaches the filesystem.
func ParseLocation(raw string) (Location, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{Scheme: StorageTypeLocal, Key: raw}, nil
	}

	switch st := StorageType(strings.ToLower(scheme)); st {
	case StorageTypeLocal:
		return Location{Scheme: StorageTypeLocal, Key: rest}, nil
	case StorageTypeS3, StorageTypeMinio:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return Location{}, fmt.Errorf("%w: %s", ErrInvalidLocation, raw)
		}
		return Location{Scheme: st, Bucket: bucket, Key: key}, nil
	default:
		return Location{Scheme: StorageTypeLocal, Key: raw}, nil
	}
}

// String renders the location back into reference form.
func (l Location) String() string {
	if l.Scheme == StorageTypeLocal {
		return l.Key
	}
	return string(l.Scheme) + "://" + l.Bucket + "/" + l.Key
}

func (l Location) backendKey() string {
	if l.Scheme == StorageTypeLocal {
		return string(StorageTypeLocal)
	}
	return string(l.Scheme) + "://" + l.Bucket
}

// Resolver routes document references to the backend that owns them.
type Resolver struct {
	mu       sync.RWMutex
	backends map[string]Storage
}

// NewResolver creates a resolver; local serves scheme-less paths.
func NewResolver(local Storage) *Resolver {
	r := &Resolver{backends: make(map[string]Storage)}
	if local != nil {
		r.backends[string(StorageTypeLocal)] = local
	}
	return r
}

// Register mounts a bucket-backed store under scheme://bucket.
func (r *Resolver) Register(scheme StorageType, bucket string, s Storage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[Location{Scheme: scheme, Bucket: bucket}.backendKey()] = s
}

// Resolve returns the backend and parsed location for a reference.
func (r *Resolver) Resolve(raw string) (Storage, Location, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, Location{}, err
	}

	r.mu.RLock()
	s, ok := r.backends[loc.backendKey()]
	r.mu.RUnlock()
	if !ok {
		return nil, loc, fmt.Errorf("%w: %s", ErrNoBackend, raw)
	}
	return s, loc, nil
}

// Exists reports whether the referenced document exists.
func (r *Resolver) Exists(ctx context.Context, raw string) (bool, error) {
	s, loc, err := r.Resolve(raw)
	if err != nil {
		return false, err
	}
	return s.Exists(ctx, loc.Key)
}

// Open returns a reader over the referenced document.
func (r *Resolver) Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	s, loc, err := r.Resolve(raw)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, loc.Key)
}
