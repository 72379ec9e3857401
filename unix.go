package bitcask

import (
	"os"

	"golang.org/x/sys/unix"
)

const lockFileSuffix = ".lock"

// acquireLock takes a non-blocking exclusive flock on a sibling lock
// file next to path, so a second Open against the same data file fails
// fast instead of corrupting the log with interleaved writes.
func acquireLock(path string) (*os.File, error) {
	lockFile, err := os.OpenFile(path+lockFileSuffix, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lockFile.Close()
		return nil, err
	}

	return lockFile, nil
}

// releaseLock unlocks and closes a lock file obtained from acquireLock.
func releaseLock(lockFile *os.File) error {
	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_UN); err != nil {
		lockFile.Close()
		return err
	}
	return lockFile.Close()
}
