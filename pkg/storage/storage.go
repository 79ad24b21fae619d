// Package storage persists gesture assets and preview artifacts and hands
// out the URLs the rest of the system references them by.
package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned for a blob name that does not exist.
var ErrNotFound = errors.New("blob not found")

// Blob stores named artifacts and returns stable URLs for them.
//
// UploadTemporary blobs expire: the store removes them after their TTL, so
// callers must not hand their URLs to anything long-lived.
type Blob interface {
	Upload(name string, data []byte) (url string, err error)
	UploadTemporary(name string, data []byte, ttl time.Duration) (url string, err error)
	Remove(name string) error
}
