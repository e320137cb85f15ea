// Package config loads configuration from environment variables, optionally
// layered over a YAML file. Environment variables always win.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendDrive = "drive"
	BackendS3    = "s3"
)

// Media URL modes.
const (
	URLModeAuto      = "auto"
	URLModeConstruct = "construct"
	URLModePayload   = "payload"
)

const (
	defaultMediaBaseURL = "https://kf.kobotoolbox.org/attachment/original"
	defaultNotionURL    = "https://api.notion.com"
	defaultNotionVer    = "2022-06-28"
	minMediaTimeout     = 30 * time.Second
	maxMediaTimeout     = 60 * time.Second
)

// Env holds the configuration values for the application.
type Env struct {
	// Shared secret expected on inbound webhooks; also the fallback
	// credential for media downloads.
	Token         string
	RequireToken  bool
	MediaToken    string
	MediaUsername string
	MediaPassword string
	MediaBaseURL  string
	MediaURLMode  string
	MediaTimeout  time.Duration

	NotionToken    string
	NotionVersion  string
	NotionBaseURL  string
	NotionMaxPages int
	NotionTimeout  time.Duration // zero means no timeout
	DBWorkSites    string
	DBSubmitters   string
	DBRecords      string

	StorageBackend    string
	DriveFolderID     string
	GoogleCredentials []byte // decoded service-account JSON
	S3Bucket          string
	S3Prefix          string
	S3PublicBaseURL   string

	Region        string
	AWSEndpoint   string
	SequenceTable string

	ScratchDir string
	HTTPAddr   string
	LogLevel   string
	LogFormat  string
	GelfAddr   string
}

// MustLoad reads the configuration named by CONFIG_FILE (if any) and the
// environment, and panics when it is incomplete.
func MustLoad() Env {
	e, err := Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		panic(err)
	}
	return e
}

// Load reads the optional YAML file at path and the environment.
func Load(path string) (Env, error) {
	src := source{file: map[string]string{}}
	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return Env{}, err
		}
		src.file = fc.values()
	}

	e := Env{
		Token:         src.get("KOBO_TOKEN", ""),
		RequireToken:  src.getBool("REQUIRE_TOKEN"),
		MediaUsername: src.get("KOBO_USERNAME", ""),
		MediaPassword: src.get("KOBO_PASSWORD", ""),
		MediaBaseURL:  src.get("KOBO_MEDIA_BASE_URL", defaultMediaBaseURL),
		MediaURLMode:  strings.ToLower(src.get("MEDIA_URL_MODE", URLModeAuto)),
		MediaTimeout:  clamp(src.getSeconds("MEDIA_TIMEOUT_SECONDS", maxMediaTimeout), minMediaTimeout, maxMediaTimeout),

		NotionToken:    src.get("NOTION_TOKEN", ""),
		NotionVersion:  src.get("NOTION_VERSION", defaultNotionVer),
		NotionBaseURL:  strings.TrimRight(src.get("NOTION_BASE_URL", defaultNotionURL), "/"),
		NotionMaxPages: src.getInt("NOTION_MAX_PAGES", 50),
		NotionTimeout:  src.getSeconds("NOTION_TIMEOUT_SECONDS", 0),
		DBWorkSites:    src.get("NOTION_DB_OBRAS", ""),
		DBSubmitters:   src.get("NOTION_DB_USUARIOS", ""),
		DBRecords:      src.get("NOTION_DB_APONTAMENTOS", ""),

		StorageBackend:  strings.ToLower(src.get("STORAGE_BACKEND", BackendDrive)),
		DriveFolderID:   src.get("GOOGLE_DRIVE_FOLDER_ID", ""),
		S3Bucket:        src.get("S3_BUCKET", ""),
		S3Prefix:        strings.Trim(src.get("S3_PREFIX", "fotos"), "/"),
		S3PublicBaseURL: strings.TrimRight(src.get("S3_PUBLIC_BASE_URL", ""), "/"),

		Region:        src.get("AWS_REGION", "us-east-1"),
		AWSEndpoint:   src.get("AWS_ENDPOINT_URL", ""),
		SequenceTable: src.get("SEQUENCE_TABLE", ""),

		ScratchDir: src.get("SCRATCH_DIR", filepath.Join(os.TempDir(), "fotos_recebidas")),
		HTTPAddr:   src.get("HTTP_ADDR", ":10000"),
		LogLevel:   strings.ToLower(src.get("LOG_LEVEL", "info")),
		LogFormat:  strings.ToLower(src.get("LOG_FORMAT", "json")),
		GelfAddr:   src.get("GELF_ADDR", ""),
	}
	// The media token defaults to the primary token, which makes the fetcher
	// fall through to primary bearer auth.
	e.MediaToken = src.get("KOBO_MEDIA_TOKEN", e.Token)

	var errs []error
	for _, req := range []struct{ key, val string }{
		{"KOBO_TOKEN", e.Token},
		{"NOTION_TOKEN", e.NotionToken},
		{"NOTION_DB_OBRAS", e.DBWorkSites},
		{"NOTION_DB_USUARIOS", e.DBSubmitters},
		{"NOTION_DB_APONTAMENTOS", e.DBRecords},
	} {
		if req.val == "" {
			errs = append(errs, fmt.Errorf("missing env %s", req.key))
		}
	}

	switch e.StorageBackend {
	case BackendDrive:
		if e.DriveFolderID == "" {
			errs = append(errs, errors.New("missing env GOOGLE_DRIVE_FOLDER_ID"))
		}
		creds, err := decodeCredentials(src.get("GOOGLE_CREDENTIALS_BASE64", ""))
		if err != nil {
			errs = append(errs, err)
		}
		e.GoogleCredentials = creds
	case BackendS3:
		if e.S3Bucket == "" {
			errs = append(errs, errors.New("missing env S3_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", e.StorageBackend))
	}

	switch e.MediaURLMode {
	case URLModeAuto, URLModeConstruct, URLModePayload:
	default:
		errs = append(errs, fmt.Errorf("unsupported MEDIA_URL_MODE %q", e.MediaURLMode))
	}

	if len(errs) > 0 {
		return Env{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return e, nil
}

// decodeCredentials decodes the base64 service-identity blob and checks that
// it holds a JSON object.
func decodeCredentials(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, errors.New("missing env GOOGLE_CREDENTIALS_BASE64")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS_BASE64: %w", err)
	}
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS_BASE64: not a JSON object: %w", err)
	}
	return raw, nil
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// source resolves a key from the environment first, then the config file.
type source struct {
	file map[string]string
}

// get returns the value of k or def if not set.
func (s source) get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	if v := s.file[k]; v != "" {
		return v
	}
	return def
}

func (s source) getInt(k string, def int) int {
	n, err := strconv.Atoi(s.get(k, ""))
	if err != nil {
		return def
	}
	return n
}

func (s source) getSeconds(k string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(s.get(k, ""))
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func (s source) getBool(k string) bool {
	b, _ := strconv.ParseBool(s.get(k, "false"))
	return b
}
