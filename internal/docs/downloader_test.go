package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
	"github.com/lexel-search/caselaw-pipeline/internal/fetch"
)

type stubFetcher struct {
	body []byte
	err  error
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (fetch.Page, error) {
	if s.err != nil {
		return fetch.Page{}, s.err
	}
	return fetch.Page{URL: rawURL, FinalURL: rawURL, StatusCode: 200, Body: s.body}, nil
}

func (s *stubFetcher) FetchPage(ctx context.Context, rawURL string) (*goquery.Document, error) {
	page, err := s.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(string(page.Body)))
}

func TestDownload_WritesUnderCaseFolder(t *testing.T) {
	root := t.TempDir()
	d := NewDownloader(&stubFetcher{body: []byte("%PDF-content")}, root, zap.NewNop())

	state := d.Download(context.Background(), caselaw.Case{Name: "C-104/16"}, caselaw.Document{
		ID:     7,
		Link:   caselaw.StringPtr("http://eurlex/doc.pdf"),
		Format: caselaw.StringPtr("pdf"),
	})
	require.Equal(t, caselaw.DownloadOK, state)

	data, err := os.ReadFile(filepath.Join(root, "C-104_16", "7.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-content", string(data))
}

func TestDownload_FetchFailure(t *testing.T) {
	d := NewDownloader(&stubFetcher{err: errors.New("boom")}, t.TempDir(), zap.NewNop())

	state := d.Download(context.Background(), caselaw.Case{Name: "C-104/16"}, caselaw.Document{
		ID:     7,
		Link:   caselaw.StringPtr("http://eurlex/doc.pdf"),
		Format: caselaw.StringPtr("pdf"),
	})
	require.Equal(t, caselaw.DownloadFailed, state)
}

func TestDownload_MissingLink(t *testing.T) {
	d := NewDownloader(&stubFetcher{}, t.TempDir(), zap.NewNop())
	state := d.Download(context.Background(), caselaw.Case{Name: "C-104/16"}, caselaw.Document{ID: 7})
	require.Equal(t, caselaw.DownloadFailed, state)
}
