// Package media downloads survey attachments into a local scratch directory.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/icholy/digest"
	"github.com/oklog/ulid/v2"

	"github.com/kylejryan/survey-sync/internal/logging"
)

// URL strategies.
const (
	ModeAuto      = "auto"
	ModeConstruct = "construct"
	ModePayload   = "payload"
)

// Auth strategies, in priority order.
const (
	AuthDigest       = "digest"
	AuthMediaToken   = "media_token"
	AuthPrimaryToken = "primary_token"
)

// DefaultBaseURL is the attachment endpoint of the public KoboToolbox server.
const DefaultBaseURL = "https://kf.kobotoolbox.org/attachment/original"

const maxLogBody = 500

var (
	// ErrNoFilename is returned for attachments without a filename.
	ErrNoFilename = errors.New("media: attachment has no filename")
	// ErrNoURL is returned in payload mode when the attachment carries no URL.
	ErrNoURL = errors.New("media: attachment has no download_url")
)

// Ref identifies one attachment of a submission.
type Ref struct {
	Filename string
	URL      string // explicit download_url from the payload, may be empty
}

// Download is an attachment saved to the scratch directory. The caller owns
// Path and must remove it.
type Download struct {
	Path        string
	Name        string // base name of the original filename
	Size        int64
	ContentType string
}

// Options configure a Fetcher.
type Options struct {
	BaseURL    string
	Mode       string
	Token      string // primary webhook token
	MediaToken string
	Username   string
	Password   string
	Timeout    time.Duration
	ScratchDir string
	Transport  http.RoundTripper // base transport; nil means http.DefaultTransport
	Logger     *slog.Logger
}

// Fetcher downloads attachments with the configured URL and auth strategies.
type Fetcher struct {
	client  *http.Client
	baseURL string
	mode    string
	auth    string
	bearer  string
	dir     string
	logger  *slog.Logger
}

// New builds a Fetcher and creates the scratch directory.
func New(opts Options) (*Fetcher, error) {
	f := &Fetcher{
		baseURL: opts.BaseURL,
		mode:    opts.Mode,
		dir:     opts.ScratchDir,
		logger:  opts.Logger,
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	if f.mode == "" {
		f.mode = ModeAuto
	}
	switch f.mode {
	case ModeAuto, ModeConstruct, ModePayload:
	default:
		return nil, fmt.Errorf("media: unknown url mode %q", f.mode)
	}
	if f.dir == "" {
		f.dir = filepath.Join(os.TempDir(), "fotos_recebidas")
	}
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return nil, fmt.Errorf("media: scratch dir: %w", err)
	}
	if f.logger == nil {
		f.logger = logging.Discard()
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	f.auth, f.bearer = selectAuth(opts)
	if f.auth == AuthDigest {
		rt = &digest.Transport{
			Username:  opts.Username,
			Password:  opts.Password,
			Transport: base,
		}
	}
	f.client = &http.Client{Transport: rt, Timeout: opts.Timeout}
	return f, nil
}

// selectAuth picks digest credentials when both are set, then a distinct
// media token, then the primary token.
func selectAuth(opts Options) (kind, bearer string) {
	switch {
	case opts.Username != "" && opts.Password != "":
		return AuthDigest, ""
	case opts.MediaToken != "" && opts.MediaToken != opts.Token:
		return AuthMediaToken, opts.MediaToken
	default:
		return AuthPrimaryToken, opts.Token
	}
}

// Auth reports the selected auth strategy.
func (f *Fetcher) Auth() string { return f.auth }

// URL resolves the download URL of ref under the configured mode.
func (f *Fetcher) URL(ref Ref) (string, error) {
	if ref.Filename == "" {
		return "", ErrNoFilename
	}
	switch f.mode {
	case ModePayload:
		if ref.URL == "" {
			return "", ErrNoURL
		}
		return ref.URL, nil
	case ModeAuto:
		if ref.URL != "" {
			return ref.URL, nil
		}
	}
	return f.baseURL + "?media_file=" + url.QueryEscape(ref.Filename), nil
}

// Fetch downloads ref into a fresh scratch file. On failure no file is left
// behind.
func (f *Fetcher) Fetch(ctx context.Context, ref Ref) (*Download, error) {
	u, err := f.URL(ref)
	if err != nil {
		return nil, err
	}
	log := f.logger.With("filename", ref.Filename, "auth", f.auth)
	log.Info("downloading attachment", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("media: build request: %w", err)
	}
	if f.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+f.bearer)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error("attachment download failed", "err", err)
		return nil, fmt.Errorf("media: get %s: %w", ref.Filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxLogBody))
		log.Error("attachment download failed", "status", resp.StatusCode, "body", string(snippet))
		return nil, fmt.Errorf("media: get %s: status %d", ref.Filename, resp.StatusCode)
	}

	name := baseName(ref.Filename)
	dst := filepath.Join(f.dir, ulid.Make().String()+"_"+name)
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("media: create scratch file: %w", err)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		log.Error("attachment download interrupted", "err", err, "bytes", n)
		return nil, fmt.Errorf("media: write %s: %w", ref.Filename, err)
	}
	log.Info("attachment downloaded", "bytes", n)

	return &Download{
		Path:        dst,
		Name:        name,
		Size:        n,
		ContentType: contentType(name, resp.Header.Get("Content-Type")),
	}, nil
}

// baseName strips any directory part of a payload filename, which may use
// either separator.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return "attachment"
	}
	return name
}

func contentType(name, header string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	if header != "" {
		return header
	}
	return "application/octet-stream"
}
