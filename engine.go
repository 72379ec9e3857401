// Package bitcask implements a single-file, log-structured key/value
// storage engine in the Bitcask family: an append-only log on disk,
// backed by an in-memory KeyDir index of where each live key's value
// lives. Writes append; reads resolve through the index with a single
// positioned read; Compact rewrites the log to drop superseded entries.
package bitcask

import (
	"log/slog"
	"os"
	"sync"
)

// Engine is a single open Bitcask data file plus its in-memory KeyDir.
// It is safe for concurrent use: Engine serializes its own operations
// with an internal mutex, and Scan/ScanReverse hold it exclusively for
// the life of the returned Iterator.
type Engine struct {
	mu sync.RWMutex

	path     string
	log      *Log
	keydir   *KeyDir
	lockFile *os.File
}

// Open opens the data file at path, creating it and any missing parent
// directories if necessary, and rebuilds the KeyDir by scanning it.
// By default Open takes a non-blocking exclusive lock on a sibling
// lock file so a second Open against the same path fails instead of
// corrupting the log; pass WithoutLock to disable this.
func Open(path string, opts ...Option) (*Engine, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	// The lock file lives beside the data file, so the parent directory
	// has to exist before the lock is taken.
	if err := ensureParentDir(path); err != nil {
		return nil, internalError(err)
	}

	var lockFile *os.File
	if !cfg.disableLock {
		lf, err := acquireLock(path)
		if err != nil {
			return nil, internalError(err)
		}
		lockFile = lf
	}

	lg, err := openLog(path)
	if err != nil {
		if lockFile != nil {
			releaseLock(lockFile)
		}
		return nil, internalError(err)
	}

	keydir, err := lg.buildKeyDir()
	if err != nil {
		lg.Close()
		if lockFile != nil {
			releaseLock(lockFile)
		}
		return nil, internalError(err)
	}

	return &Engine{
		path:     path,
		log:      lg,
		keydir:   keydir,
		lockFile: lockFile,
	}, nil
}

// OpenWithCompact opens path as Open does, then compacts it if its
// garbage ratio (garbage_disk_size / total_disk_size) exceeds
// garbageRatio. garbageRatio is a caller-provided value in [0.0, 1.0];
// the engine does not choose a default.
func OpenWithCompact(path string, garbageRatio float64, opts ...Option) (*Engine, error) {
	e, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}

	status, err := e.Status()
	if err != nil {
		e.Close()
		return nil, err
	}

	if status.TotalDiskSize > 0 && float64(status.GarbageDiskSize)/float64(status.TotalDiskSize) > garbageRatio {
		slog.Info("compacting on open",
			"path", path,
			"garbage_disk_size", status.GarbageDiskSize,
			"total_disk_size", status.TotalDiskSize,
			"garbage_ratio", garbageRatio,
		)
		if err := e.Compact(); err != nil {
			e.Close()
			return nil, err
		}
	}

	return e, nil
}

// Close closes the data file and releases the advisory lock, if held.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.log.Close()
	if e.lockFile != nil {
		if unlockErr := releaseLock(e.lockFile); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	if err != nil {
		return internalError(err)
	}
	return nil
}

// Set appends a put record for (key, value) and publishes it in the
// KeyDir, replacing any prior entry for key.
func (e *Engine) Set(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, length, err := e.log.appendPut(key, value)
	if err != nil {
		return internalError(err)
	}
	e.keydir.set(key, pos, length)
	return nil
}

// Get looks up key in the KeyDir and, on a hit, reads its value from
// the log. ok reports whether key was present; a present key always
// returns a value, possibly empty.
func (e *Engine) Get(key []byte) (value []byte, ok bool, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	item, found := e.keydir.get(key)
	if !found {
		return nil, false, nil
	}

	value, err = e.log.readValue(item.pos, item.length)
	if err != nil {
		return nil, false, internalError(err)
	}
	return value, true, nil
}

// Delete appends a tombstone record for key and removes it from the
// KeyDir, if present. Deleting an absent key is not an error: a
// tombstone is still appended, keeping recovery semantics identical
// regardless of whether the key existed (see the open-question decisions
// in DESIGN.md).
func (e *Engine) Delete(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.log.appendTombstone(key); err != nil {
		return internalError(err)
	}
	e.keydir.delete(key)
	return nil
}

// Status reports the Engine's size accounting: live key count, live
// payload size, total file size on disk, live size including headers,
// and the difference between the two (garbage).
func (e *Engine) Status() (Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var size int64
	keys := e.keydir.len()
	e.keydir.ascend(nil, nil, func(item *keydirItem) bool {
		size += int64(len(item.key)) + int64(item.length)
		return true
	})

	total, err := e.log.size()
	if err != nil {
		return Status{}, internalError(err)
	}

	live := size + 8*int64(keys)
	return Status{
		Name:            "Bitcask",
		Keys:            keys,
		Size:            size,
		TotalDiskSize:   total,
		LiveDiskSize:    live,
		GarbageDiskSize: total - live,
	}, nil
}

// Scan returns an Iterator over (key, value) pairs in ascending key
// order for every key in r. It holds the Engine exclusively until the
// Iterator is closed.
func (e *Engine) Scan(r Range) *Iterator {
	e.mu.Lock()

	entries := make([]*keydirItem, 0, e.keydir.len())
	e.keydir.ascend(r.Lower, r.Upper, func(item *keydirItem) bool {
		entries = append(entries, item)
		return true
	})

	return &Iterator{engine: e, entries: entries, idx: -1}
}

// ScanReverse is Scan in descending key order.
func (e *Engine) ScanReverse(r Range) *Iterator {
	e.mu.Lock()

	entries := make([]*keydirItem, 0, e.keydir.len())
	e.keydir.descend(r.Lower, r.Upper, func(item *keydirItem) bool {
		entries = append(entries, item)
		return true
	})

	return &Iterator{engine: e, entries: entries, idx: -1}
}

// Status is the set of size-accounting fields describing an Engine.
type Status struct {
	Name            string
	Keys            int
	Size            int64
	TotalDiskSize   int64
	LiveDiskSize    int64
	GarbageDiskSize int64
}
