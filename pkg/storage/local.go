package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/KrystelLucin/go-loly/internal/log"
)

// SweepInterval is how often expired temporaries are collected.
const SweepInterval = time.Minute

// LocalStore keeps blobs on disk under a single directory and serves them
// through the web server's /blobs/ route.
type LocalStore struct {
	dir     string
	baseURL string

	mu      sync.Mutex
	expires map[string]time.Time

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewLocalStore opens (creating if needed) a blob directory. baseURL is the
// public prefix blobs are served under, e.g. "http://host:8000/blobs".
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	s := &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		expires: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s, nil
}

// Upload writes the blob atomically and returns its serving URL.
func (s *LocalStore) Upload(name string, data []byte) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := s.write(name, data); err != nil {
		return "", err
	}
	s.mu.Lock()
	delete(s.expires, name)
	s.mu.Unlock()
	return s.urlFor(name), nil
}

// UploadTemporary stores a blob that the sweeper removes after ttl.
func (s *LocalStore) UploadTemporary(name string, data []byte, ttl time.Duration) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := s.write(name, data); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.expires[name] = s.now().Add(ttl)
	s.mu.Unlock()
	return s.urlFor(name), nil
}

// Remove deletes a blob. Removing an absent blob reports ErrNotFound.
func (s *LocalStore) Remove(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.expires, name)
	s.mu.Unlock()
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove blob %s: %w", name, err)
	}
	return nil
}

// Open returns the blob's contents.
func (s *LocalStore) Open(name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

// Dir exposes the backing directory for static file serving.
func (s *LocalStore) Dir() string { return s.dir }

// Close stops the background sweeper.
func (s *LocalStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *LocalStore) urlFor(name string) string {
	return s.baseURL + "/" + url.PathEscape(name)
}

// write lands the blob through a rename so readers never see partials.
func (s *LocalStore) write(name string, data []byte) error {
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit blob %s: %w", name, err)
	}
	return nil
}

func (s *LocalStore) sweepLoop() {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep removes temporaries whose TTL has elapsed.
func (s *LocalStore) sweep() {
	now := s.now()
	s.mu.Lock()
	var expired []string
	for name, deadline := range s.expires {
		if !deadline.After(now) {
			expired = append(expired, name)
			delete(s.expires, name)
		}
	}
	s.mu.Unlock()

	for _, name := range expired {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			log.Warn("expired blob not removed", "blob", name, "error", err)
		} else {
			log.Debug("expired blob removed", "blob", name)
		}
	}
}

// cleanName rejects names that would escape the blob directory.
func cleanName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return name, nil
}
