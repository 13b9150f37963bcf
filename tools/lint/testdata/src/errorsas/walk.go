package errorsas

import (
	"errors"
	"io/fs"
)

func unreadablePath(err error) string {
	var pathErr fs.PathError
	if errors.As(err, pathErr) { // want "second argument to errors.As must be a non-nil pointer"
		return pathErr.Path
	}
	return ""
}

func missingPath(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Path
	}
	return ""
}
