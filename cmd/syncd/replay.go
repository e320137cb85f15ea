package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kylejryan/survey-sync/internal/api"
	"github.com/kylejryan/survey-sync/internal/models"
	"github.com/kylejryan/survey-sync/internal/notion"
	"github.com/kylejryan/survey-sync/internal/server"
)

// pageGetter reads a created record back.
type pageGetter interface {
	GetPage(ctx context.Context, pageID string) (*notion.Page, error)
}

// recordProps is the order in which a replayed record is printed.
var recordProps = []string{
	models.PropTitle,
	models.PropWorkSite,
	models.PropSubmitter,
	models.PropLocation,
	models.PropNote,
	models.PropStatus,
	models.PropCreatedAt,
	models.PropUUID,
	models.PropPhotos,
}

func replayCmd() *cobra.Command {
	var (
		file    string
		headers []string
		verify  bool
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run one stored payload through the pipeline",
		Long: `Run one stored payload through the pipeline and print the JSON result.
With --verify the created record is read back and its properties printed.

Examples:
  syncd replay --file submission.json
  syncd replay --file submission.json --header "Authorization=Bearer $KOBO_TOKEN"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readPayload(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			h, err := parseHeaders(headers)
			if err != nil {
				return err
			}
			a, _, err := build(cmd.Context(), "survey-sync-replay")
			if err != nil {
				return err
			}
			var pages pageGetter
			if verify {
				pages = a.Notion
			}
			return replay(cmd.Context(), a.Pipeline, pages, cmd.OutOrStdout(), h, body)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "payload file (- for stdin)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header as Key=Value (repeatable)")
	cmd.Flags().BoolVar(&verify, "verify", false, "read the created record back from Notion")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// replay prints the pipeline result and fails when the status is an error.
// When pages is set the created record is fetched and printed.
func replay(ctx context.Context, p server.Processor, pages pageGetter, w io.Writer, headers map[string]string, body []byte) error {
	res := p.Process(ctx, headers, body)
	out, err := json.Marshal(res.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d %s\n", res.Status, out)
	if res.Status >= 400 {
		return fmt.Errorf("replay failed with status %d", res.Status)
	}
	created, ok := res.Body.(api.WebhookResponse)
	if pages == nil || !ok {
		return nil
	}
	page, err := pages.GetPage(ctx, created.NotionPage)
	if err != nil {
		return fmt.Errorf("read back %s: %w", created.NotionPage, err)
	}
	for _, prop := range recordProps {
		fmt.Fprintf(w, "  %s: %q\n", prop, page.PlainText(prop))
	}
	return nil
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(io.LimitReader(stdin, server.MaxBodyBytes+1))
	}
	return os.ReadFile(path)
}

func parseHeaders(kv []string) (map[string]string, error) {
	h := make(map[string]string, len(kv))
	for _, s := range kv {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, want Key=Value", s)
		}
		h[k] = v
	}
	return h, nil
}
