// Package storage persists downloaded attachments in a cloud object store and
// returns a shareable link for each.
package storage

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Uploader stores the file at localPath under displayName and returns a
// link to it. Implementations remove localPath whether or not the upload
// succeeds.
type Uploader interface {
	Upload(ctx context.Context, localPath, displayName string) (string, error)
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// cleanup removes the scratch file; a file that is already gone is fine.
func cleanup(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
