package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// BuildKey returns the object key for name under prefix. The random part
// keeps repeated filenames from overwriting each other.
func BuildKey(prefix, name string) string {
	name = strings.ReplaceAll(path.Base(strings.ReplaceAll(name, `\`, "/")), " ", "_")
	key := fmt.Sprintf("%s_%s", uuid.NewString(), name)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// PublicURL joins a public base URL and an object key, escaping each
// segment of the key.
func PublicURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

// Metadata is the user metadata stored with each object.
func Metadata(name, source string) map[string]string {
	return map[string]string{
		"original-name": url.QueryEscape(name),
		"source":        source,
	}
}
