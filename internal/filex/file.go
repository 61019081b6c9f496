// Package filex holds small filesystem helpers used by the CLI.
package filex

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// MaxAttachmentBytes caps files read by DataURL.
const MaxAttachmentBytes = 5 << 20

// EnsureDir creates dirName when missing and returns its absolute path.
// Relative names are resolved against the working directory.
func EnsureDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// DataURL reads path and encodes it as a base64 data URL. The media type
// comes from the file extension, falling back to content sniffing.
func DataURL(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if fi.Size() > MaxAttachmentBytes {
		return "", fmt.Errorf("%s is larger than %d bytes", path, MaxAttachmentBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
