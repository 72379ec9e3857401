package bitcask

import "os"

// compactSuffix names the temporary file a compaction writes to before
// it is renamed over the original path.
const compactSuffix = ".new"

// Compact rewrites the log to contain only the latest record for each
// live key, then atomically replaces the original file with it.
//
// It writes the new log to a sibling path (original path + ".new"),
// appends every live key's current value through it in ascending key
// order, and renames it over the original once every value has been
// copied successfully. If any step before the rename fails, the
// temporary file is removed and the Engine is left untouched.
func (e *Engine) Compact() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tmpPath := e.path + compactSuffix

	// Start from an empty file: records left behind by an earlier,
	// interrupted compaction must not end up in the new log.
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return internalError(err)
	}

	newLog, err := openLog(tmpPath)
	if err != nil {
		return internalError(err)
	}

	newKeydir := newKeyDir()
	var readErr error
	e.keydir.ascend(nil, nil, func(item *keydirItem) bool {
		value, err := e.log.readValue(item.pos, item.length)
		if err != nil {
			readErr = err
			return false
		}

		pos, length, err := newLog.appendPut(item.key, value)
		if err != nil {
			readErr = err
			return false
		}

		newKeydir.set(item.key, pos, length)
		return true
	})

	if readErr != nil {
		newLog.Close()
		os.Remove(tmpPath)
		return internalError(readErr)
	}

	// Rename while the new log's file descriptor is still open: the
	// descriptor stays valid across the rename, so the new log can be
	// adopted directly without a redundant close-then-reopen round trip.
	if err := os.Rename(tmpPath, e.path); err != nil {
		newLog.Close()
		os.Remove(tmpPath)
		return internalError(err)
	}
	newLog.path = e.path

	oldLog := e.log
	e.log = newLog
	e.keydir = newKeydir

	return internalError(oldLog.Close())
}
