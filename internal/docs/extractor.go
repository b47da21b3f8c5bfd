package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Extractor turns downloaded documents into plain text. HTML documents are
// scraped directly; PDFs are rasterized first and then OCRed with tesseract.
type Extractor struct {
	renderer *Renderer
	run      CommandRunner
	logger   *zap.Logger
}

// NewExtractor constructs an Extractor sharing the renderer's tool boundary.
func NewExtractor(renderer *Renderer, run CommandRunner, logger *zap.Logger) *Extractor {
	if run == nil {
		run = ExecRunner
	}
	return &Extractor{renderer: renderer, run: run, logger: logger}
}

// ExtractFile extracts text from the artifact at path, dispatching on the
// document format.
func (e *Extractor) ExtractFile(ctx context.Context, path, format string) (string, error) {
	switch format {
	case "html":
		return e.extractHTML(path)
	case "pdf":
		return e.extractPDF(ctx, path)
	default:
		return "", fmt.Errorf("unsupported document format %q", format)
	}
}

// extractHTML parses the file and returns the body's text nodes joined with
// newlines, trimmed.
func (e *Extractor) extractHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	var parts []string
	body := doc.Find("body")
	for _, node := range body.Nodes {
		collectTextNodes(node, &parts)
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

func collectTextNodes(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	// script/style text is markup plumbing, not document text
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTextNodes(c, parts)
	}
}

// extractPDF renders the PDF to a temporary raster image, OCRs it, and reads
// the OCR output back. Both temporary artifacts are removed on every exit
// path.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	dir := filepath.Dir(path)
	stem := uuid.NewString()
	imgPath := filepath.Join(dir, stem+"."+e.renderer.Format())
	defer func() {
		if err := os.Remove(imgPath); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("remove render artifact", zap.String("path", imgPath), zap.Error(err))
		}
	}()

	if err := e.renderer.Render(ctx, path, imgPath); err != nil {
		return "", err
	}
	return e.ocr(ctx, imgPath)
}

// ocr runs tesseract on the image and reads back its text output. The output
// file is removed before returning.
func (e *Extractor) ocr(ctx context.Context, imgPath string) (string, error) {
	base := strings.TrimSuffix(imgPath, filepath.Ext(imgPath))
	outPath := base + ".txt"
	defer func() {
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("remove ocr artifact", zap.String("path", outPath), zap.Error(err))
		}
	}()

	if err := e.run(ctx, "tesseract", imgPath, base, "--psm", "3"); err != nil {
		return "", fmt.Errorf("ocr %s: %w", imgPath, err)
	}
	text, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("read ocr output %s: %w", outPath, err)
	}
	return strings.TrimSpace(string(text)), nil
}
