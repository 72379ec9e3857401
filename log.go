package bitcask

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// headerSize is the fixed-width frame header: a uint32 key length
// followed by an int32 value length (-1 marks a tombstone).
const headerSize = 8

// Log owns the single backing file for an Engine: it encodes and
// decodes the record frame, appends records, performs positioned
// reads, and rebuilds a KeyDir by scanning the file from the start.
type Log struct {
	path string
	file *os.File
}

// openLog opens (creating if absent) the data file at path for reading
// and writing, creating any missing parent directories first.
func openLog(path string) (*Log, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	return &Log{path: path, file: file}, nil
}

// Close closes the underlying file handle.
func (l *Log) Close() error {
	return l.file.Close()
}

// size returns the current length of the log file.
func (l *Log) size() (int64, error) {
	info, err := l.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// appendPut appends a put record and returns the offset and length of
// the value bytes it just wrote.
func (l *Log) appendPut(key, value []byte) (valuePos int64, valueLen int32, err error) {
	return l.appendRecord(key, value, false)
}

// appendTombstone appends a tombstone record for key.
func (l *Log) appendTombstone(key []byte) error {
	_, _, err := l.appendRecord(key, nil, true)
	return err
}

func (l *Log) appendRecord(key, value []byte, tombstone bool) (int64, int32, error) {
	keyLen := uint32(len(key))

	var marker int32
	if tombstone {
		marker = -1
	} else {
		marker = int32(len(value))
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header[0:4], keyLen)
	binary.BigEndian.PutUint32(header[4:8], uint32(marker))

	start, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, err
	}

	if _, err := l.file.Write(header); err != nil {
		return 0, 0, err
	}
	if len(key) > 0 {
		if _, err := l.file.Write(key); err != nil {
			return 0, 0, err
		}
	}
	if !tombstone && len(value) > 0 {
		if _, err := l.file.Write(value); err != nil {
			return 0, 0, err
		}
	}

	valuePos := start + headerSize + int64(keyLen)
	var valueLen int32
	if !tombstone {
		valueLen = int32(len(value))
	}

	return valuePos, valueLen, nil
}

// readValue reads exactly length bytes starting at pos, without
// disturbing the file's append position.
func (l *Log) readValue(pos int64, length int32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, length)
	if _, err := l.file.ReadAt(buf, pos); err != nil {
		return nil, err
	}
	return buf, nil
}

// buildKeyDir scans the log from offset 0 to its current length and
// reconstructs the KeyDir, applying later records over earlier ones for
// the same key. A record whose header, key, or value bytes run past
// the end of the file is a trailing partial write: the file is
// truncated back to the start of that record and the scan stops. This
// is the engine's sole recovery action.
func (l *Log) buildKeyDir() (*KeyDir, error) {
	fileLen, err := l.size()
	if err != nil {
		return nil, err
	}

	kd := newKeyDir()
	header := make([]byte, headerSize)

	var pos int64
	for pos < fileLen {
		recordStart := pos

		if _, err := l.file.ReadAt(header, pos); err != nil {
			if isShortRead(err) {
				return kd, l.file.Truncate(recordStart)
			}
			return nil, err
		}

		keyLen := binary.BigEndian.Uint32(header[0:4])
		marker := int32(binary.BigEndian.Uint32(header[4:8]))

		keyStart := pos + headerSize
		key := make([]byte, keyLen)
		if keyLen > 0 {
			if _, err := l.file.ReadAt(key, keyStart); err != nil {
				if isShortRead(err) {
					return kd, l.file.Truncate(recordStart)
				}
				return nil, err
			}
		}

		valuePos := keyStart + int64(keyLen)

		if marker < 0 {
			kd.delete(key)
			pos = valuePos
			continue
		}

		valueLen := int64(marker)
		if valuePos+valueLen > fileLen {
			return kd, l.file.Truncate(recordStart)
		}

		kd.set(key, valuePos, marker)
		pos = valuePos + valueLen
	}

	return kd, nil
}

// isShortRead reports whether err indicates ReadAt hit the end of the
// file before filling its buffer, i.e. a partial trailing record.
func isShortRead(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
