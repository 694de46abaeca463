package configdoc

import "os"

// atomicWriteFile writes data to a file atomically: a temp file first, then
// a rename onto the target path. Rename is atomic on POSIX systems, so a
// crash mid-save cannot leave a half-written config behind.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile := path + ".tmp"

	if err := os.WriteFile(tmpFile, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, path); err != nil {
		_ = os.Remove(tmpFile)
		return err
	}

	return nil
}
