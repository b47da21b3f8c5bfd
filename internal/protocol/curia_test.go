package protocol

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/fetch"
)

type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (fetch.Page, error) {
	s.calls = append(s.calls, rawURL)
	body, ok := s.pages[rawURL]
	if !ok {
		return fetch.Page{}, fmt.Errorf("fetch %s: not found", rawURL)
	}
	return fetch.Page{URL: rawURL, FinalURL: rawURL, StatusCode: 200, Body: []byte(body)}, nil
}

func (s *stubFetcher) FetchPage(ctx context.Context, rawURL string) (*goquery.Document, error) {
	page, err := s.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(string(page.Body)))
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestCrawlCases_Listing(t *testing.T) {
	listing := parseHTML(t, `<html><body><table>
<tr><td><b><a href="javascript:window.open('http://curia/c104','w');">C-104/16 P</a></b>
<i>Council v Front Polisario</i></td></tr>
<tr><td><b><a href="http://curia/t12">T-12/16</a></b><i>Some dispute</i></td></tr>
<tr><td><b><a href="http://curia/c7">C-7/16</a></b>
<i>APPEAL : <a href="http://curia/t512">T-512/14</a></i></td></tr>
<tr><td>no anchor, dropped</td></tr>
<tr><td><b><a href="http://curia/bare">C-9/16</a></b></td></tr>
</table></body></html>`)

	c := NewCuria(&stubFetcher{}, zap.NewNop())
	cases, appeals := c.CrawlCases(listing)

	require.Len(t, cases, 3, "rows without a link or description are dropped")
	require.Equal(t, "C-104/16 P", cases[0].Name)
	require.Equal(t, "http://curia/c104", cases[0].URL, "javascript href is unwrapped")
	require.Equal(t, "Council v Front Polisario", cases[0].Desc)
	require.Equal(t, "COJ", cases[0].Court)
	require.Equal(t, "GC", cases[1].Court)

	require.Len(t, appeals, 1)
	require.Equal(t, "C-7/16", appeals[0].OrigName)
	require.Equal(t, "T-512/14", appeals[0].AppealName)
}

func TestCrawlCases_AppealAnchorFollowsMarker(t *testing.T) {
	listing := parseHTML(t, `<html><body><table>
<tr><td><b><a href="http://curia/c7">C-7/16</a></b>
<i>See also <a href="http://curia/c0">C-0/15</a> APPEAL : <a href="http://curia/t512">T-512/14</a></i></td></tr>
<tr><td><b><a href="http://curia/c8">C-8/16</a></b>
<i>Cross-reference only: <a href="http://curia/c1">C-1/15</a></i></td></tr>
</table></body></html>`)

	c := NewCuria(&stubFetcher{}, zap.NewNop())
	_, appeals := c.CrawlCases(listing)

	require.Len(t, appeals, 1, "rows without the marker yield no appeal")
	require.Equal(t, "C-7/16", appeals[0].OrigName)
	require.Equal(t, "T-512/14", appeals[0].AppealName,
		"anchors before the marker must not be mistaken for the appeal case")
}

func TestDocsURL(t *testing.T) {
	c := NewCuria(&stubFetcher{}, zap.NewNop())

	url, ok := c.DocsURL(parseHTML(t,
		`<html><body><a id="mainForm:j_id56" href="http://curia/dir">Docs</a></body></html>`))
	require.True(t, ok)
	require.Equal(t, "http://curia/dir", url)

	_, ok = c.DocsURL(parseHTML(t, `<html><body><a href="#">other</a></body></html>`))
	require.False(t, ok)
}

func TestCrawlDocs_NoTable(t *testing.T) {
	c := NewCuria(&stubFetcher{}, zap.NewNop())
	docs, err := c.CrawlDocs(context.Background(), parseHTML(t, `<html><body></body></html>`), []string{"pdf"})
	require.NoError(t, err)
	require.Nil(t, docs)
}

func docRow(cells string) string {
	return `<html><body><table class="detail_table_documents"><tbody>
<tr class="table_document_ligne">` + cells + `</tr>
</tbody></table></body></html>`
}

func TestCrawlDocs_FullRow(t *testing.T) {
	directory := parseHTML(t, docRow(`
<td class="table_cell_doc">Judgment
ECLI below</td>
<td><span class="outputEcli">ECLI:EU:C:2016:973</span></td>
<td class="table_cell_date">21/12/2016</td>
<td class="table_cell_nom_usuel"> Council v Front Polisario </td>
<td class="table_cell_links_curia"><span class="tooltipLink">External relations</span></td>
<td class="table_cell_aff"></td>
<td class="table_cell_aff"><a href="http://eurlex/doc.pdf"><img title="View pdf documents"/></a></td>`))

	c := NewCuria(&stubFetcher{}, zap.NewNop())
	docs, err := c.CrawlDocs(context.Background(), directory, []string{"pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	require.Equal(t, "Judgment", *doc.Name, "only the first line of the doc cell is kept")
	require.Equal(t, "ECLI:EU:C:2016:973", *doc.ECLI)
	require.Equal(t, "21/12/2016", *doc.Date)
	require.Equal(t, "Council", *doc.Party1)
	require.Equal(t, "Front Polisario", *doc.Party2)
	require.Equal(t, "External relations", *doc.Subject)
	require.Equal(t, "http://eurlex/doc.pdf", *doc.Link)
	require.Equal(t, "pdf", *doc.Format)
	require.Equal(t, "eurlex", *doc.Source)
}

func TestCrawlDocs_MissingCellsYieldNilFields(t *testing.T) {
	directory := parseHTML(t, docRow(`<td class="table_cell_date">01/01/2016</td>`))

	c := NewCuria(&stubFetcher{}, zap.NewNop())
	docs, err := c.CrawlDocs(context.Background(), directory, []string{"pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	require.Nil(t, doc.Name)
	require.Nil(t, doc.ECLI)
	require.Nil(t, doc.Party1)
	require.Nil(t, doc.Subject)
	require.Nil(t, doc.Link)
	require.Nil(t, doc.Format)
	require.Nil(t, doc.Source)
	require.Equal(t, "01/01/2016", *doc.Date)
}

func TestCrawlDocs_SecondaryFetchForCuriaHTML(t *testing.T) {
	directory := parseHTML(t, docRow(`
<td class="table_cell_doc">Judgment</td>
<td class="table_cell_links_eurlex"><a href="http://curia/intermediate"><img title="View html documents"/></a></td>`))

	fetcher := &stubFetcher{pages: map[string]string{
		"http://curia/intermediate": `<html><body><a id="mainForm:j_id159" href="http://curia/full.html">full text</a></body></html>`,
	}}
	c := NewCuria(fetcher, zap.NewNop())

	docs, err := c.CrawlDocs(context.Background(), directory, []string{"html"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, []string{"http://curia/intermediate"}, fetcher.calls)
	require.Equal(t, "http://curia/full.html", *docs[0].Link)
	require.Equal(t, "html", *docs[0].Format)
	require.Equal(t, "curia", *docs[0].Source)
}

func TestCrawlDocs_SecondaryFetchFailureFallsThrough(t *testing.T) {
	directory := parseHTML(t, docRow(`
<td class="table_cell_doc">Judgment</td>
<td class="table_cell_links_eurlex"><a href="http://curia/intermediate"><img title="View html documents"/></a></td>
<td class="table_cell_aff"></td>
<td class="table_cell_aff"><a href="http://eurlex/doc.pdf"><img title="View pdf documents"/></a></td>`))

	// The intermediate page is unreachable; the candidate is skipped and the
	// pdf fallback wins.
	fetcher := &stubFetcher{pages: map[string]string{}}
	c := NewCuria(fetcher, zap.NewNop())

	docs, err := c.CrawlDocs(context.Background(), directory, []string{"html", "pdf"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "http://eurlex/doc.pdf", *docs[0].Link)
	require.Equal(t, "pdf", *docs[0].Format)
}

func TestStripJSWindowOpen(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`javascript:window.open('http://x/y','_blank');`, "http://x/y"},
		{`window.open("http://x/y", "w", "opts");`, "http://x/y"},
		{`http://plain/link`, "http://plain/link"},
		{``, ""},
	}
	for _, tt := range tests {
		if got := stripJSWindowOpen(tt.in); got != tt.want {
			t.Errorf("stripJSWindowOpen(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(CuriaProtocol, NewCuria(&stubFetcher{}, zap.NewNop()))

	a, err := r.Lookup(CuriaProtocol)
	require.NoError(t, err)
	require.NotNil(t, a)

	_, err = r.Lookup("nope")
	require.Error(t, err)
}
