package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout of the optional config file.
type fileConfig struct {
	Kobo struct {
		Token          string `yaml:"token"`
		RequireToken   *bool  `yaml:"require_token"`
		MediaToken     string `yaml:"media_token"`
		Username       string `yaml:"username"`
		Password       string `yaml:"password"`
		MediaBaseURL   string `yaml:"media_base_url"`
		URLMode        string `yaml:"url_mode"` // auto | construct | payload
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"kobo"`
	Notion struct {
		Token          string `yaml:"token"`
		Version        string `yaml:"version"`
		BaseURL        string `yaml:"base_url"`
		MaxPages       int    `yaml:"max_pages"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		Databases      struct {
			WorkSites  string `yaml:"work_sites"`
			Submitters string `yaml:"submitters"`
			Records    string `yaml:"records"`
		} `yaml:"databases"`
	} `yaml:"notion"`
	Storage struct {
		Backend                 string `yaml:"backend"` // drive | s3
		DriveFolderID           string `yaml:"drive_folder_id"`
		GoogleCredentialsBase64 string `yaml:"google_credentials_base64"`
		S3Bucket                string `yaml:"s3_bucket"`
		S3Prefix                string `yaml:"s3_prefix"`
		S3PublicBaseURL         string `yaml:"s3_public_base_url"`
	} `yaml:"storage"`
	AWS struct {
		Region      string `yaml:"region"`
		EndpointURL string `yaml:"endpoint_url"`
	} `yaml:"aws"`
	SequenceTable string `yaml:"sequence_table"`
	ScratchDir    string `yaml:"scratch_dir"`
	HTTPAddr      string `yaml:"http_addr"`
	Log           struct {
		Level    string `yaml:"level"`
		Format   string `yaml:"format"`
		GelfAddr string `yaml:"gelf_addr"`
	} `yaml:"log"`
}

func readFile(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &fc, nil
}

// values flattens the file onto the environment variable names.
func (f *fileConfig) values() map[string]string {
	m := map[string]string{
		"KOBO_TOKEN":                f.Kobo.Token,
		"KOBO_MEDIA_TOKEN":          f.Kobo.MediaToken,
		"KOBO_USERNAME":             f.Kobo.Username,
		"KOBO_PASSWORD":             f.Kobo.Password,
		"KOBO_MEDIA_BASE_URL":       f.Kobo.MediaBaseURL,
		"MEDIA_URL_MODE":            f.Kobo.URLMode,
		"NOTION_TOKEN":              f.Notion.Token,
		"NOTION_VERSION":            f.Notion.Version,
		"NOTION_BASE_URL":           f.Notion.BaseURL,
		"NOTION_DB_OBRAS":           f.Notion.Databases.WorkSites,
		"NOTION_DB_USUARIOS":        f.Notion.Databases.Submitters,
		"NOTION_DB_APONTAMENTOS":    f.Notion.Databases.Records,
		"STORAGE_BACKEND":           f.Storage.Backend,
		"GOOGLE_DRIVE_FOLDER_ID":    f.Storage.DriveFolderID,
		"GOOGLE_CREDENTIALS_BASE64": f.Storage.GoogleCredentialsBase64,
		"S3_BUCKET":                 f.Storage.S3Bucket,
		"S3_PREFIX":                 f.Storage.S3Prefix,
		"S3_PUBLIC_BASE_URL":        f.Storage.S3PublicBaseURL,
		"AWS_REGION":                f.AWS.Region,
		"AWS_ENDPOINT_URL":          f.AWS.EndpointURL,
		"SEQUENCE_TABLE":            f.SequenceTable,
		"SCRATCH_DIR":               f.ScratchDir,
		"HTTP_ADDR":                 f.HTTPAddr,
		"LOG_LEVEL":                 f.Log.Level,
		"LOG_FORMAT":                f.Log.Format,
		"GELF_ADDR":                 f.Log.GelfAddr,
	}
	if f.Kobo.RequireToken != nil {
		m["REQUIRE_TOKEN"] = strconv.FormatBool(*f.Kobo.RequireToken)
	}
	if f.Kobo.TimeoutSeconds > 0 {
		m["MEDIA_TIMEOUT_SECONDS"] = strconv.Itoa(f.Kobo.TimeoutSeconds)
	}
	if f.Notion.MaxPages > 0 {
		m["NOTION_MAX_PAGES"] = strconv.Itoa(f.Notion.MaxPages)
	}
	if f.Notion.TimeoutSeconds > 0 {
		m["NOTION_TIMEOUT_SECONDS"] = strconv.Itoa(f.Notion.TimeoutSeconds)
	}
	return m
}
