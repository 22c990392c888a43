package utils

import (
	"os"

	"go.viam.com/utils"
)

// RemoveFileNoError removes the file at path if it exists, ignoring any error.
func RemoveFileNoError(path string) {
	utils.UncheckedErrorFunc(func() error {
		if _, err := os.Stat(path); err == nil {
			return os.Remove(path)
		}
		return nil
	})
}
