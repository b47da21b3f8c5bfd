// Package docs handles local document artifacts: download targets, PDF
// rasterization via ghostscript, and text extraction via tesseract or HTML
// scraping. Paths are keyed by case name and document id, so no two tasks
// ever write the same file.
package docs

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CaseFolder converts a case name to its storage folder name.
// Case names contain '/' (e.g. "C-104/16"), which cannot appear in paths.
func CaseFolder(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

// FolderToCaseName is the inverse of CaseFolder.
func FolderToCaseName(folder string) string {
	return strings.ReplaceAll(folder, "_", "/")
}

// DocPath returns the local path of a document's downloaded artifact.
func DocPath(root, caseName string, docID int64, format string) string {
	return filepath.Join(root, CaseFolder(caseName), fmt.Sprintf("%d.%s", docID, format))
}
