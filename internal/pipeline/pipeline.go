// Package pipeline turns one inbound survey submission into one record in
// the records database.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kylejryan/survey-sync/internal/api"
	"github.com/kylejryan/survey-sync/internal/authz"
	"github.com/kylejryan/survey-sync/internal/media"
	"github.com/kylejryan/survey-sync/internal/metrics"
	"github.com/kylejryan/survey-sync/internal/models"
	"github.com/kylejryan/survey-sync/internal/notion"
	"github.com/kylejryan/survey-sync/internal/resolve"
	"github.com/kylejryan/survey-sync/internal/storage"
	"github.com/kylejryan/survey-sync/internal/validate"
)

const maxLoggedBody = 1000

// Resolver finds the work site and submitter pages.
type Resolver interface {
	WorkSite(ctx context.Context, name string) (string, error)
	Submitter(ctx context.Context, login string) (string, error)
}

// Titler computes the record title.
type Titler interface {
	Next(ctx context.Context, siteName, siteID string) string
}

// Fetcher downloads one attachment.
type Fetcher interface {
	Fetch(ctx context.Context, ref media.Ref) (*media.Download, error)
}

// Records creates the record page.
type Records interface {
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) (string, error)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Token        string
	RequireToken bool
	RecordsDB    string

	Resolver Resolver
	Titles   Titler
	Fetcher  Fetcher
	Uploader storage.Uploader
	Records  Records
	Metrics  *metrics.Metrics // optional
	Logger   *slog.Logger
}

// Pipeline processes submissions. It is safe for concurrent use when its
// dependencies are.
type Pipeline struct {
	d Deps
}

// New returns a Pipeline.
func New(d Deps) *Pipeline {
	return &Pipeline{d: d}
}

// Result is the HTTP status and JSON body to answer with.
type Result struct {
	Status int
	Body   any
}

// Process handles one webhook call. It always returns a Result; panics in
// collaborators are recovered and reported as 500.
func (p *Pipeline) Process(ctx context.Context, headers map[string]string, body []byte) (res Result) {
	start := time.Now()
	reqID := authz.HeaderLookup(headers, "X-Request-Id")
	if reqID == "" {
		reqID = ulid.Make().String()
	}
	log := p.d.Logger.With("request_id", reqID)
	log.Info("webhook received",
		"headers", authz.Redact(headers),
		"body", truncate(body, maxLoggedBody),
	)

	outcome := metrics.OutcomeError
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing submission", "panic", r, "stack", string(debug.Stack()))
			res = errorResult(backend(fmt.Errorf("%v", r)))
			outcome = metrics.OutcomeError
		}
		p.d.Metrics.Submission(outcome, time.Since(start))
	}()

	pageID, err := p.process(ctx, log, headers, body)
	if err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			pe = backend(err)
		}
		outcome = outcomeFor(pe.Kind)
		if pe.Kind == KindBackend {
			log.Error("submission failed", "err", err)
		} else {
			log.Warn("submission rejected", "kind", pe.Kind, "err", err)
		}
		return errorResult(pe)
	}

	outcome = metrics.OutcomeCreated
	log.Info("record created", "page_id", pageID, "took", time.Since(start))
	return Result{
		Status: http.StatusOK,
		Body:   api.WebhookResponse{Status: api.StatusOK, NotionPage: pageID},
	}
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, headers map[string]string, body []byte) (string, error) {
	sub, err := validate.Payload(body)
	if err != nil {
		return "", &Error{Kind: KindValidation, Msg: api.MsgMissingPayload, Err: err}
	}

	token := authz.Token(headers, sub.Token.String())
	if err := authz.Check(token, p.d.Token, p.d.RequireToken); err != nil {
		return "", &Error{Kind: KindUnauthorized, Msg: api.MsgInvalidToken, Err: err}
	}

	siteName := sub.WorkSite.String()
	if err := validate.WorkSite(siteName); err != nil {
		return "", &Error{Kind: KindValidation, Msg: api.MsgMissingWorkSite, Err: err}
	}

	siteID, err := p.d.Resolver.WorkSite(ctx, siteName)
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		return "", &Error{Kind: KindNotFound, Msg: api.MsgWorkSiteUnknown, Err: err}
	case err != nil:
		return "", backend(err)
	}
	log = log.With("work_site", siteName, "work_site_id", siteID)

	title := p.d.Titles.Next(ctx, siteName, siteID)

	submitterID, err := p.d.Resolver.Submitter(ctx, sub.SubmittedBy.String())
	if err != nil {
		log.Error("submitter unresolved, record will have no submitter", "login", sub.SubmittedBy.String(), "err", err)
		submitterID = ""
	}

	links := p.attachments(ctx, log, sub.Attachments)

	rec := models.Record{
		Title:       title,
		WorkSiteID:  siteID,
		SubmitterID: submitterID,
		Location:    sub.Location.String(),
		Note:        sub.Note.String(),
		Status:      sub.Status.String(),
		CreatedAt:   sub.SubmissionTime.String(),
		UUID:        sub.UUID.String(),
		PhotoLinks:  links,
	}
	pageID, err := p.d.Records.CreatePage(ctx, p.d.RecordsDB, Properties(rec))
	if err != nil {
		return "", backend(err)
	}
	return pageID, nil
}

// attachments fetches and stores each attachment in payload order and
// returns one link per stored file. Failures are logged and skipped.
func (p *Pipeline) attachments(ctx context.Context, log *slog.Logger, list []models.Attachment) []string {
	log.Info("attachments received", "count", len(list))
	var links []string
	for i, a := range list {
		alog := log.With("index", i, "filename", a.Filename.String())
		if a.Filename == "" {
			alog.Warn("attachment without filename skipped")
			p.d.Metrics.Attachment(metrics.AttachmentSkipped)
			continue
		}
		dl, err := p.d.Fetcher.Fetch(ctx, media.Ref{Filename: a.Filename.String(), URL: a.DownloadURL.String()})
		if err != nil {
			alog.Error("attachment download failed", "err", err)
			p.d.Metrics.Attachment(metrics.AttachmentDownloadFailed)
			continue
		}
		link, err := p.d.Uploader.Upload(ctx, dl.Path, dl.Name)
		if err != nil {
			alog.Error("attachment upload failed", "err", err)
			p.d.Metrics.Attachment(metrics.AttachmentUploadFailed)
			continue
		}
		p.d.Metrics.Attachment(metrics.AttachmentUploaded)
		links = append(links, link)
	}
	return links
}

// Properties builds the record page properties.
func Properties(r models.Record) notion.Properties {
	props := notion.Properties{
		models.PropTitle:    notion.Title(r.Title),
		models.PropWorkSite: notion.Relation(r.WorkSiteID),
		models.PropLocation: notion.RichText(r.Location),
		models.PropNote:     notion.RichText(r.Note),
		models.PropStatus:   notion.Select(r.Status),
		models.PropUUID:     notion.RichText(r.UUID),
	}
	if r.CreatedAt != "" {
		props[models.PropCreatedAt] = notion.Date(r.CreatedAt)
	}
	if r.SubmitterID != "" {
		props[models.PropSubmitter] = notion.Relation(r.SubmitterID)
	}
	if len(r.PhotoLinks) > 0 {
		lines := make([]string, len(r.PhotoLinks))
		for i, l := range r.PhotoLinks {
			lines[i] = "Foto: " + l
		}
		photos := strings.Join(lines, "\n")
		props[models.PropPhotos] = notion.RichText(photos)
		props[models.PropDocs] = notion.RichText(photos)
	}
	return props
}

func errorResult(e *Error) Result {
	return Result{Status: e.Status(), Body: api.ErrorResponse{Erro: e.Msg}}
}

func outcomeFor(k Kind) string {
	switch k {
	case KindValidation:
		return metrics.OutcomeInvalid
	case KindUnauthorized:
		return metrics.OutcomeUnauthorized
	case KindNotFound:
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
