package protocol

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
	"github.com/lexel-search/caselaw-pipeline/internal/fetch"
)

// CuriaProtocol is the identifier under which the CURIA adapter is registered
// and persisted with every case it produces.
const CuriaProtocol = "curia_cl"

// Hosting sources scanned per document, first to last, for each preferred
// format. curia HTML links are indirect and need a secondary fetch.
var curiaSources = []string{"curia", "eurlex"}

var (
	partiesRe    = regexp.MustCompile(`(.*) v (.*)`)
	appealMarker = "APPEAL :"
)

// Curia parses the CURIA case-law listing and per-case directory pages.
type Curia struct {
	fetcher fetch.Fetcher
	logger  *zap.Logger
}

// NewCuria constructs the CURIA adapter. The fetcher is only used to resolve
// indirect HTML document links.
func NewCuria(fetcher fetch.Fetcher, logger *zap.Logger) *Curia {
	return &Curia{fetcher: fetcher, logger: logger}
}

// CrawlCases parses the listing page's rows into cases and appeal references.
func (c *Curia) CrawlCases(page *goquery.Document) ([]caselaw.Case, []caselaw.AppealRef) {
	var cases []caselaw.Case
	var appeals []caselaw.AppealRef

	page.Find("body tr").Each(func(_ int, row *goquery.Selection) {
		if cs, ok := parseCaseRow(row); ok {
			cases = append(cases, cs)
		}
		if ref, ok := parseAppealRow(row); ok {
			appeals = append(appeals, ref)
		}
	})
	return cases, appeals
}

func parseCaseRow(row *goquery.Selection) (caselaw.Case, bool) {
	link := row.Find("b a").First()
	if link.Length() == 0 {
		return caselaw.Case{}, false
	}
	href, ok := link.Attr("href")
	if !ok {
		return caselaw.Case{}, false
	}
	name := strings.TrimSpace(link.Text())
	desc := row.Find("i").First()
	if name == "" || desc.Length() == 0 {
		return caselaw.Case{}, false
	}

	court := "COJ"
	if strings.HasPrefix(name, "T") {
		court = "GC"
	}
	return caselaw.Case{
		URL:   stripJSWindowOpen(href),
		Name:  name,
		Desc:  strings.TrimSpace(desc.Text()),
		Court: court,
	}, true
}

func parseAppealRow(row *goquery.Selection) (caselaw.AppealRef, bool) {
	link := row.Find("b a").First()
	name := strings.TrimSpace(link.Text())
	if name == "" {
		return caselaw.AppealRef{}, false
	}
	desc := row.Find("i").First()
	if desc.Length() == 0 {
		return caselaw.AppealRef{}, false
	}

	// The appeal case name is the first anchor after the marker text node;
	// anchors before it are unrelated cross-references.
	var appeal string
	seenMarker := false
	desc.Contents().EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if !seenMarker {
			if goquery.NodeName(node) == "#text" && strings.Contains(node.Text(), appealMarker) {
				seenMarker = true
			}
			return true
		}
		if goquery.NodeName(node) == "a" {
			appeal = strings.TrimSpace(node.Text())
			return false
		}
		return true
	})
	if appeal == "" {
		return caselaw.AppealRef{}, false
	}
	return caselaw.AppealRef{OrigName: name, AppealName: appeal}, true
}

// DocsURL locates the document-directory link on a case page.
func (c *Curia) DocsURL(casePage *goquery.Document) (string, bool) {
	href, ok := casePage.Find(`a[id='mainForm:j_id56']`).First().Attr("href")
	if !ok || href == "" {
		return "", false
	}
	return href, true
}

// CrawlDocs parses the directory page's document table. A missing table means
// the case exposes no documents and yields (nil, nil).
func (c *Curia) CrawlDocs(ctx context.Context, directory *goquery.Document, formats []string) ([]caselaw.Document, error) {
	rows := directory.Find("table.detail_table_documents tbody tr.table_document_ligne")
	if rows.Length() == 0 {
		return nil, nil
	}

	var docs []caselaw.Document
	rows.Each(func(_ int, row *goquery.Selection) {
		docs = append(docs, c.crawlDoc(ctx, row, formats))
	})
	return docs, nil
}

// crawlDoc processes one document row. Missing cells become nil fields,
// never errors.
func (c *Curia) crawlDoc(ctx context.Context, row *goquery.Selection, formats []string) caselaw.Document {
	doc := caselaw.Document{
		Name: cellText(row.Find("td.table_cell_doc").First(), firstLine),
		ECLI: cellText(row.Find("span.outputEcli").First(), nil),
		Date: cellText(row.Find("td.table_cell_date").First(), nil),
	}

	if party := cellText(row.Find("td.table_cell_nom_usuel").First(), strings.TrimSpace); party != nil {
		doc.Party1 = party
		if m := partiesRe.FindStringSubmatch(*party); m != nil && m[1] != "" && m[2] != "" {
			doc.Party1 = caselaw.StringPtr(m[1])
			doc.Party2 = caselaw.StringPtr(m[2])
		}
	}
	doc.Subject = cellText(row.Find("td.table_cell_links_curia span.tooltipLink").First(), nil)

	// Try every (format, source) combination in preference order and stop at
	// the first one with a working link.
	for _, format := range formats {
		for _, source := range curiaSources {
			link := c.resolveLink(ctx, row, format, source)
			if link != nil {
				doc.Link = link
				doc.Format = caselaw.StringPtr(format)
				doc.Source = caselaw.StringPtr(source)
				return doc
			}
		}
	}
	return doc
}

func (c *Curia) resolveLink(ctx context.Context, row *goquery.Selection, format, source string) *string {
	switch {
	case format == "pdf" && source == "curia":
		return imageLink(row.Find("td.table_cell_links_eurlex").First().
			Find(`img[title='View pdf documents']`))

	case format == "pdf" && source == "eurlex":
		return imageLink(row.Find("td.table_cell_aff").Eq(1).
			Find(`img[title='View pdf documents']`))

	case format == "html" && source == "curia":
		docURL := imageLink(row.Find("td.table_cell_links_eurlex").First().
			Find(`img[title='View html documents']`))
		if docURL == nil {
			return nil
		}
		// The curia HTML link points at an intermediate page; the true
		// document URL sits behind a second anchor. A failed secondary fetch
		// only disqualifies this candidate, the search continues.
		page, err := c.fetcher.FetchPage(ctx, *docURL)
		if err != nil {
			c.logger.Debug("secondary fetch for html link failed",
				zap.String("url", *docURL), zap.Error(err))
			return nil
		}
		href, ok := page.Find(`a[id='mainForm:j_id159']`).First().Attr("href")
		if !ok || href == "" {
			return nil
		}
		return &href

	case format == "html" && source == "eurlex":
		return imageLink(row.Find("td.table_cell_aff").Eq(1).
			Find(`img[title='View html documents']`))
	}
	return nil
}

// imageLink resolves the first matched icon to its parent anchor's href.
func imageLink(imgs *goquery.Selection) *string {
	href, ok := imgs.First().Parent().Attr("href")
	if !ok || href == "" {
		return nil
	}
	return &href
}

// cellText extracts a cell's text through an optional transform, mapping an
// absent cell or empty text to nil.
func cellText(sel *goquery.Selection, transform func(string) string) *string {
	if sel.Length() == 0 {
		return nil
	}
	text := sel.Text()
	if transform != nil {
		text = transform(text)
	}
	return caselaw.StringPtr(text)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// stripJSWindowOpen extracts the URL argument from a javascript
// window.open(...) href.
func stripJSWindowOpen(js string) string {
	start := strings.Index(js, "window.open(")
	end := strings.Index(js, ");")
	if start < 0 || end < 0 || end < start {
		return js
	}
	args := js[start:end]
	link := strings.SplitN(args, ",", 2)[0]
	if i := strings.IndexByte(link, '('); i >= 0 {
		link = link[i+1:]
	}
	link = strings.TrimSpace(link)
	return strings.Trim(link, `'"`)
}
