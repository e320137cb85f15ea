// Package resolve maps names from a submission onto pages in the workspace
// databases.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kylejryan/survey-sync/internal/models"
	"github.com/kylejryan/survey-sync/internal/notion"
)

// ErrNotFound is returned when no work site has the requested name.
var ErrNotFound = errors.New("resolve: not found")

// Store is the datastore surface the resolver needs.
type Store interface {
	Query(ctx context.Context, databaseID string, filter notion.Filter) ([]notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) (string, error)
}

// Resolver looks up work sites and submitters by title.
type Resolver struct {
	store        Store
	workSitesDB  string
	submittersDB string
	logger       *slog.Logger
}

// New returns a Resolver over the given databases.
func New(store Store, workSitesDB, submittersDB string, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:        store,
		workSitesDB:  workSitesDB,
		submittersDB: submittersDB,
		logger:       logger,
	}
}

// WorkSite returns the id of the first work site titled exactly name.
// Work sites are never created here.
func (r *Resolver) WorkSite(ctx context.Context, name string) (string, error) {
	pages, err := r.store.Query(ctx, r.workSitesDB, notion.TitleEquals(models.PropTitle, name))
	if err != nil {
		return "", fmt.Errorf("resolve work site %q: %w", name, err)
	}
	if len(pages) == 0 {
		r.logger.Warn("work site not found", "work_site", name)
		return "", ErrNotFound
	}
	r.logger.Info("work site found", "work_site", name, "id", pages[0].ID)
	return pages[0].ID, nil
}

// Submitter returns the id of the submitter titled exactly login, creating
// the page when none exists. An empty login is looked up like any other.
func (r *Resolver) Submitter(ctx context.Context, login string) (string, error) {
	pages, err := r.store.Query(ctx, r.submittersDB, notion.TitleEquals(models.PropTitle, login))
	if err != nil {
		return "", fmt.Errorf("resolve submitter %q: %w", login, err)
	}
	if len(pages) > 0 {
		return pages[0].ID, nil
	}
	id, err := r.store.CreatePage(ctx, r.submittersDB, notion.Properties{
		models.PropTitle: notion.Title(login),
	})
	if err != nil {
		return "", fmt.Errorf("create submitter %q: %w", login, err)
	}
	r.logger.Info("submitter created", "login", login, "id", id)
	return id, nil
}
