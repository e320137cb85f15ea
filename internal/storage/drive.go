package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// driveChunkSize is the smallest chunk Drive accepts. Files larger than one
// chunk go through a resumable session; smaller ones are sent in one request.
const driveChunkSize = googleapi.MinUploadChunkSize

// driveScope is full Drive access; the narrower drive.file scope cannot
// write into folders shared with the service account.
const driveScope = drive.DriveScope

// fileCreator creates a file in Drive and returns its id.
type fileCreator interface {
	create(ctx context.Context, meta *drive.File, body io.Reader, contentType string) (string, error)
}

type driveFiles struct {
	svc *drive.Service
}

func (d driveFiles) create(ctx context.Context, meta *drive.File, body io.Reader, contentType string) (string, error) {
	f, err := d.svc.Files.Create(meta).
		Media(body, googleapi.ContentType(contentType), googleapi.ChunkSize(driveChunkSize)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// DriveUploader stores attachments in one Google Drive folder using a
// service account.
type DriveUploader struct {
	files    fileCreator
	folderID string
	logger   *slog.Logger
}

// NewDriveUploader authenticates with the service-account JSON in creds.
func NewDriveUploader(ctx context.Context, creds []byte, folderID string, logger *slog.Logger) (*DriveUploader, error) {
	conf, err := jwtConfig(creds)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("drive: new service: %w", err)
	}
	return &DriveUploader{files: driveFiles{svc: svc}, folderID: folderID, logger: logger}, nil
}

func jwtConfig(creds []byte) (*jwt.Config, error) {
	conf, err := google.JWTConfigFromJSON(creds, driveScope)
	if err != nil {
		return nil, fmt.Errorf("drive: credentials: %w", err)
	}
	return conf, nil
}

// Upload implements Uploader.
func (u *DriveUploader) Upload(ctx context.Context, localPath, displayName string) (string, error) {
	defer func() {
		if err := cleanup(localPath); err != nil {
			u.logger.Warn("scratch cleanup failed", "path", localPath, "err", err)
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("drive: open %s: %w", localPath, err)
	}
	defer f.Close()

	id, err := u.files.create(ctx, &drive.File{
		Name:    displayName,
		Parents: []string{u.folderID},
	}, f, contentType(displayName))
	if err != nil {
		return "", fmt.Errorf("drive: create %s: %w", displayName, err)
	}
	if id == "" {
		return "", errors.New("drive: created file has no id")
	}
	link := "https://drive.google.com/file/d/" + id + "/view"
	u.logger.Info("attachment stored", "folder", u.folderID, "file_id", id, "link", link)
	return link, nil
}
