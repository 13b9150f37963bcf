package errcheck

import "os"

func deleteSnapshot(path string) {
	os.Remove(path) // want "unchecked error"
}

func deleteIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func closeQuietly(f *os.File) {
	_ = f.Close()
}
