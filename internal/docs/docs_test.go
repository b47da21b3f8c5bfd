package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCaseFolderRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		folder string
	}{
		{"C-104/16 P", "C-104_16 P"},
		{"T-12/98", "T-12_98"},
		{"no-slash", "no-slash"},
	}
	for _, tt := range tests {
		if got := CaseFolder(tt.name); got != tt.folder {
			t.Errorf("CaseFolder(%q) = %q, want %q", tt.name, got, tt.folder)
		}
		if got := FolderToCaseName(tt.folder); got != tt.name {
			t.Errorf("FolderToCaseName(%q) = %q, want %q", tt.folder, got, tt.name)
		}
	}
}

func TestDocPath(t *testing.T) {
	got := DocPath("doc_dir", "C-104/16", 7, "pdf")
	want := filepath.Join("doc_dir", "C-104_16", "7.pdf")
	require.Equal(t, want, got)
}

// recordingRunner captures tool invocations and optionally fabricates the
// side-effect files a real tool would leave behind.
type recordingRunner struct {
	calls  [][]string
	onCall func(name string, args []string) error
}

func (r *recordingRunner) run(_ context.Context, name string, args ...string) error {
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)
	if r.onCall != nil {
		return r.onCall(name, args)
	}
	return nil
}

func TestRenderer_GhostscriptArgs(t *testing.T) {
	runner := &recordingRunner{}
	r := NewRenderer("tiff", 300, runner.run, zap.NewNop())

	require.NoError(t, r.Render(context.Background(), "in.pdf", "out.tiff"))
	require.Len(t, runner.calls, 1)
	require.Equal(t, []string{
		"gs", "-q", "-r300", "-sDEVICE=tiff24nc", "-sCompression=lzw",
		"-o", "out.tiff", "in.pdf", "-c", "quit",
	}, runner.calls[0])
}

func TestRenderer_PNGDevice(t *testing.T) {
	runner := &recordingRunner{}
	r := NewRenderer("png", 150, runner.run, zap.NewNop())

	require.NoError(t, r.Render(context.Background(), "in.pdf", "out.png"))
	require.Contains(t, runner.calls[0], "-sDEVICE=png16m")
	require.NotContains(t, runner.calls[0], "-sCompression=lzw")
}

func TestRenderer_UnsupportedFormat(t *testing.T) {
	r := NewRenderer("tiff", 300, (&recordingRunner{}).run, zap.NewNop())
	err := r.Render(context.Background(), "in.pdf", "out.bmp")
	require.Error(t, err)
}

func TestExtractHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><head>
<style>p { color: red }</style></head><body>
<script>var ignored = 1;</script>
<h1>Judgment of the Court</h1>
<p>First paragraph.</p>
<p>Second <b>paragraph</b>.</p>
</body></html>`), 0o600))

	e := NewExtractor(NewRenderer("tiff", 300, nil, zap.NewNop()), nil, zap.NewNop())
	text, err := e.ExtractFile(context.Background(), path, "html")
	require.NoError(t, err)
	require.Equal(t, "Judgment of the Court\nFirst paragraph.\nSecond\nparagraph\n.", text)
}

func TestExtractPDF_CleansUpArtifacts(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "3.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-fake"), 0o600))

	runner := &recordingRunner{}
	runner.onCall = func(name string, args []string) error {
		switch name {
		case "gs":
			// last positional args are: -o <img> <pdf> -c quit
			return os.WriteFile(args[len(args)-4], []byte("img"), 0o600)
		case "tesseract":
			return os.WriteFile(args[1]+".txt", []byte("  recognized text \n"), 0o600)
		default:
			return errors.New("unexpected tool " + name)
		}
	}

	e := NewExtractor(NewRenderer("tiff", 300, runner.run, zap.NewNop()), runner.run, zap.NewNop())
	text, err := e.ExtractFile(context.Background(), pdfPath, "pdf")
	require.NoError(t, err)
	require.Equal(t, "recognized text", text)
	require.Len(t, runner.calls, 2)
	require.Equal(t, "gs", runner.calls[0][0])
	require.Equal(t, "tesseract", runner.calls[1][0])

	// only the original pdf survives
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "3.pdf", entries[0].Name())
}

func TestExtractPDF_CleansUpOnOCRFailure(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "3.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-fake"), 0o600))

	runner := &recordingRunner{}
	runner.onCall = func(name string, args []string) error {
		if name == "gs" {
			return os.WriteFile(args[len(args)-4], []byte("img"), 0o600)
		}
		return errors.New("tesseract crashed")
	}

	e := NewExtractor(NewRenderer("tiff", 300, runner.run, zap.NewNop()), runner.run, zap.NewNop())
	_, err := e.ExtractFile(context.Background(), pdfPath, "pdf")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "render artifact removed even when ocr fails")
}

func TestExtractFile_UnknownFormat(t *testing.T) {
	e := NewExtractor(NewRenderer("tiff", 300, nil, zap.NewNop()), nil, zap.NewNop())
	_, err := e.ExtractFile(context.Background(), "x.doc", "doc")
	require.Error(t, err)
}
