// Package filesource reads and writes the product collection as a JSON or
// YAML file, and can watch that file for edits made outside stockgrid.
package filesource

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/state"
)

var _ state.Loader = (*Source)(nil)

// debounce collapses the burst of events editors produce for one save.
const debounce = 200 * time.Millisecond

// Source is a product file on disk.
type Source struct {
	path   string
	yaml   bool
	logger *zap.Logger

	mu        sync.Mutex
	lastWrite [sha256.Size]byte
}

// New returns a source for path. Files ending in .yaml or .yml are YAML,
// everything else is JSON.
func New(path string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	ext := strings.ToLower(filepath.Ext(path))
	return &Source{
		path:   path,
		yaml:   ext == ".yaml" || ext == ".yml",
		logger: logger,
	}
}

// Path returns the file location.
func (s *Source) Path() string { return s.path }

// Fetch reads and decodes the whole file. A missing file is an empty catalog.
func (s *Source) Fetch(ctx context.Context) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []product.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return s.decode(data)
}

// Save writes items to the file, replacing it atomically.
func (s *Source) Save(ctx context.Context, items []product.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []product.Product{}
	}
	data, err := s.encode(items)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}

	s.mu.Lock()
	s.lastWrite = sha256.Sum256(data)
	s.mu.Unlock()

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Watch calls onChange whenever the file content changes on disk, skipping
// changes made by Save. It blocks until ctx is done.
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: atomic saves replace the inode, which would drop
	// a watch on the file itself.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.logger.Debug("watching data file", zap.String("path", s.path))

	target := filepath.Clean(s.path)
	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if s.isOwnWrite() {
				continue
			}
			s.logger.Info("data file changed on disk", zap.String("path", s.path))
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("data file watcher error", zap.Error(err))
		}
	}
}

func (s *Source) isOwnWrite() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	return sum == s.lastWrite
}

func (s *Source) decode(data []byte) ([]product.Product, error) {
	var items []product.Product
	if len(bytes.TrimSpace(data)) == 0 {
		return []product.Product{}, nil
	}
	var err error
	if s.yaml {
		err = yaml.Unmarshal(data, &items)
	} else {
		err = json.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if items == nil {
		items = []product.Product{}
	}
	return items, nil
}

func (s *Source) encode(items []product.Product) ([]byte, error) {
	if s.yaml {
		data, err := yaml.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(data, '\n'), nil
}
