// Package app wires the pipeline and its collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/kylejryan/survey-sync/internal/awsutil"
	"github.com/kylejryan/survey-sync/internal/config"
	"github.com/kylejryan/survey-sync/internal/ddb"
	"github.com/kylejryan/survey-sync/internal/logging"
	"github.com/kylejryan/survey-sync/internal/media"
	"github.com/kylejryan/survey-sync/internal/metrics"
	"github.com/kylejryan/survey-sync/internal/notion"
	"github.com/kylejryan/survey-sync/internal/pipeline"
	"github.com/kylejryan/survey-sync/internal/resolve"
	"github.com/kylejryan/survey-sync/internal/sequence"
	"github.com/kylejryan/survey-sync/internal/storage"
)

// App holds the application state shared by the entry points.
type App struct {
	Env      config.Env
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Notion   *notion.Client
	Pipeline *pipeline.Pipeline
}

// Logger builds the process logger from env.
func Logger(env config.Env, service string) *slog.Logger {
	return logging.New(logging.Options{
		Level:    env.LogLevel,
		Format:   env.LogFormat,
		GelfAddr: env.GelfAddr,
		Service:  service,
	})
}

// Build constructs every collaborator. AWS configuration is only loaded
// when the S3 backend or the sequence table needs it.
func Build(ctx context.Context, env config.Env, logger *slog.Logger) (*App, error) {
	m := metrics.New()

	nc := notion.New(notion.Options{
		BaseURL:  env.NotionBaseURL,
		Token:    env.NotionToken,
		Version:  env.NotionVersion,
		MaxPages: env.NotionMaxPages,
		Timeout:  env.NotionTimeout,
		Logger:   logger.With("component", "notion"),
	})

	fetcher, err := media.New(media.Options{
		BaseURL:    env.MediaBaseURL,
		Mode:       env.MediaURLMode,
		Token:      env.Token,
		MediaToken: env.MediaToken,
		Username:   env.MediaUsername,
		Password:   env.MediaPassword,
		Timeout:    env.MediaTimeout,
		ScratchDir: env.ScratchDir,
		Logger:     logger.With("component", "media"),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("media fetcher ready", "auth", fetcher.Auth(), "url_mode", env.MediaURLMode)

	var awsConf *aws.Config
	loadAWS := func() error {
		if awsConf != nil {
			return nil
		}
		cfg, err := awsutil.Load(ctx, env.Region, env.AWSEndpoint)
		if err != nil {
			return fmt.Errorf("aws config: %w", err)
		}
		awsConf = &cfg
		return nil
	}

	var uploader storage.Uploader
	storeLog := logger.With("component", "storage")
	switch env.StorageBackend {
	case config.BackendS3:
		if err := loadAWS(); err != nil {
			return nil, err
		}
		uploader = storage.NewS3Uploader(awsutil.S3(*awsConf, env.AWSEndpoint), env.S3Bucket, env.S3Prefix, env.S3PublicBaseURL, storeLog)
	default:
		uploader, err = storage.NewDriveUploader(ctx, env.GoogleCredentials, env.DriveFolderID, storeLog)
		if err != nil {
			return nil, err
		}
	}

	var counter sequence.Counter
	if env.SequenceTable != "" {
		if err := loadAWS(); err != nil {
			return nil, err
		}
		counter = &ddb.Counter{DB: awsutil.DynamoDB(*awsConf), Table: env.SequenceTable}
		logger.Info("sequence counter enabled", "table", env.SequenceTable)
	}

	p := pipeline.New(pipeline.Deps{
		Token:        env.Token,
		RequireToken: env.RequireToken,
		RecordsDB:    env.DBRecords,
		Resolver:     resolve.New(nc, env.DBWorkSites, env.DBSubmitters, logger.With("component", "resolve")),
		Titles:       sequence.New(nc, env.DBRecords, counter, m, logger.With("component", "sequence")),
		Fetcher:      fetcher,
		Uploader:     uploader,
		Records:      nc,
		Metrics:      m,
		Logger:       logger.With("component", "pipeline"),
	})

	return &App{Env: env, Logger: logger, Metrics: m, Notion: nc, Pipeline: p}, nil
}
