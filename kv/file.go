package kv

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// FileStore is a durable Store: one file per key under a base directory,
// named by the key's hex encoding so ordering and prefix scans don't depend
// on filesystem directory order. An in-memory key index keeps ScanPrefix
// and ordering cheap without re-reading the directory on every call.
// Storage is unbounded and never evicts: a runtime module must never lose
// a persisted nonce or balance. Lifecycle events log via logrus; the hot
// read/write path logs via zap.
type FileStore struct {
	mu      sync.RWMutex
	dir     string
	index   map[string]struct{} // hex(key) -> present
	log     *logrus.Logger
	fastLog *zap.SugaredLogger
}

// Open creates dir if necessary and hydrates the key index by listing it.
// Opening the same path twice from different FileStore values is safe but
// not coordinated — the node opens one global handle at startup and treats
// a second Open call elsewhere as a programmer error.
func Open(dir string, log *logrus.Logger) (*FileStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create store dir: %w", err)
	}
	fs := &FileStore{
		dir:     dir,
		index:   make(map[string]struct{}),
		log:     log,
		fastLog: zap.L().Sugar(),
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("kv: list store dir: %w", err)
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		fs.index[ent.Name()] = struct{}{}
	}
	log.Infof("kv: opened file store at %s (%d keys)", dir, len(fs.index))
	return fs, nil
}

func (s *FileStore) path(key []byte) string {
	return filepath.Join(s.dir, hex.EncodeToString(key))
}

func (s *FileStore) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	_, ok := s.index[hex.EncodeToString(key)]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		s.fastLog.Warnw("kv: read failed despite indexed key", "err", err)
		return nil, false
	}
	return b, true
}

func (s *FileStore) Put(key, value []byte) error {
	if err := os.WriteFile(s.path(key), value, 0o644); err != nil {
		s.log.Warnf("kv: put failed for key %x: %v", key, err)
		return fmt.Errorf("kv: put: %w", err)
	}
	s.mu.Lock()
	s.index[hex.EncodeToString(key)] = struct{}{}
	s.mu.Unlock()
	s.fastLog.Debugw("kv: put", "key", hex.EncodeToString(key), "bytes", len(value))
	return nil
}

func (s *FileStore) Delete(key []byte) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		s.log.Warnf("kv: delete failed for key %x: %v", key, err)
		return fmt.Errorf("kv: delete: %w", err)
	}
	s.mu.Lock()
	delete(s.index, hex.EncodeToString(key))
	s.mu.Unlock()
	return nil
}

func (s *FileStore) ScanPrefix(prefix []byte) ([]Pair, error) {
	s.mu.RLock()
	hexKeys := make([]string, 0, len(s.index))
	for h := range s.index {
		hexKeys = append(hexKeys, h)
	}
	s.mu.RUnlock()
	sort.Strings(hexKeys)

	var out []Pair
	for _, h := range hexKeys {
		key, err := hex.DecodeString(h)
		if err != nil {
			continue
		}
		if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
			continue
		}
		v, err := os.ReadFile(s.path(key))
		if err != nil {
			s.fastLog.Warnw("kv: scan read failed", "key", h, "err", err)
			continue
		}
		out = append(out, Pair{Key: key, Value: v})
	}
	return out, nil
}
