package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func newFetcher(t *testing.T, opts Options) *Fetcher {
	t.Helper()
	if opts.ScratchDir == "" {
		opts.ScratchDir = t.TempDir()
	}
	f, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestSelectAuth(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantKind   string
		wantBearer string
	}{
		{"digest wins", Options{Username: "u", Password: "p", Token: "t", MediaToken: "m"}, AuthDigest, ""},
		{"username only", Options{Username: "u", Token: "t", MediaToken: "m"}, AuthMediaToken, "m"},
		{"media token", Options{Token: "t", MediaToken: "m"}, AuthMediaToken, "m"},
		{"media token same as primary", Options{Token: "t", MediaToken: "t"}, AuthPrimaryToken, "t"},
		{"primary", Options{Token: "t"}, AuthPrimaryToken, "t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, bearer := selectAuth(tt.opts)
			if kind != tt.wantKind || bearer != tt.wantBearer {
				t.Errorf("selectAuth = (%q, %q), want (%q, %q)", kind, bearer, tt.wantKind, tt.wantBearer)
			}
		})
	}
}

func TestURL(t *testing.T) {
	base := "https://kobo.example/attachment/original"
	tests := []struct {
		mode    string
		ref     Ref
		want    string
		wantErr error
	}{
		{ModeAuto, Ref{Filename: "a.jpg", URL: "https://x/a"}, "https://x/a", nil},
		{ModeAuto, Ref{Filename: "a.jpg"}, base + "?media_file=a.jpg", nil},
		{ModeConstruct, Ref{Filename: "u/att/a b.jpg", URL: "https://x/a"}, base + "?media_file=u%2Fatt%2Fa+b.jpg", nil},
		{ModePayload, Ref{Filename: "a.jpg", URL: "https://x/a"}, "https://x/a", nil},
		{ModePayload, Ref{Filename: "a.jpg"}, "", ErrNoURL},
		{ModeAuto, Ref{URL: "https://x/a"}, "", ErrNoFilename},
	}
	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.ref.Filename, func(t *testing.T) {
			f := newFetcher(t, Options{BaseURL: base, Mode: tt.mode})
			got, err := f.URL(tt.ref)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New(Options{Mode: "guess", ScratchDir: t.TempDir()}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchBearer(t *testing.T) {
	var gotAuth, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFile = r.URL.Query().Get("media_file")
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprint(w, "jpegbytes")
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newFetcher(t, Options{BaseURL: srv.URL, Token: "primary", MediaToken: "media", ScratchDir: dir, Timeout: 30 * time.Second})
	dl, err := f.Fetch(context.Background(), Ref{Filename: "user/attachments/photo.jpg"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "Bearer media" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotFile != "user/attachments/photo.jpg" {
		t.Errorf("media_file = %q", gotFile)
	}
	if dl.Name != "photo.jpg" || dl.Size != int64(len("jpegbytes")) || dl.ContentType != "image/jpeg" {
		t.Errorf("download = %+v", dl)
	}
	if !strings.HasPrefix(dl.Path, dir) || !strings.HasSuffix(dl.Path, "_photo.jpg") {
		t.Errorf("path = %q", dl.Path)
	}
	b, err := os.ReadFile(dl.Path)
	if err != nil || string(b) != "jpegbytes" {
		t.Errorf("scratch file = %q, %v", b, err)
	}
}

func TestFetchNon2xxLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, strings.Repeat("x", 2000))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := newFetcher(t, Options{BaseURL: srv.URL, Token: "t", ScratchDir: dir})
	if _, err := f.Fetch(context.Background(), Ref{Filename: "a.jpg"}); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("scratch dir has %d entries", len(entries))
	}
}

func TestFetchMissingFilenameSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	f := newFetcher(t, Options{BaseURL: srv.URL})
	_, err := f.Fetch(context.Background(), Ref{URL: srv.URL})
	if !errors.Is(err, ErrNoFilename) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Error("server was contacted")
	}
}

func TestFetchDigest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Digest ") {
			w.Header().Set("WWW-Authenticate", `Digest realm="kobo", nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", qop="auth", algorithm=MD5`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := newFetcher(t, Options{BaseURL: srv.URL, Token: "t", Username: "field", Password: "secret"})
	if f.Auth() != AuthDigest {
		t.Fatalf("Auth = %q", f.Auth())
	}
	dl, err := f.Fetch(context.Background(), Ref{Filename: "a.png"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if dl.ContentType != "image/png" {
		t.Errorf("content type = %q", dl.ContentType)
	}
}

func TestBaseName(t *testing.T) {
	for in, want := range map[string]string{
		"photo.jpg":            "photo.jpg",
		"a/b/photo.jpg":        "photo.jpg",
		`C:\Users\x\photo.jpg`: "photo.jpg",
		"..":                   "attachment",
	} {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}
