package lib

import (
	"cems/src/config"
	"os"
	"path"
)

// MediaPath returns the on-disk location for a stored artifact under the
// media directory, creating the subdirectory on first use. The QR codes for
// tickets live under "qrcodes".
func MediaPath(subdir, filename string) (string, error) {
	dir := path.Join(config.MediaDir(), subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return path.Join(dir, filename), nil
}
