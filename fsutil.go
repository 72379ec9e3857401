package bitcask

import (
	"fmt"
	"os"
	"path/filepath"
)

// ensureParentDir makes sure the directory that will contain path
// exists, creating it (and any missing ancestors) if necessary.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o755)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
