package docs

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// CommandRunner executes an external tool. The default runs the command via
// os/exec; tests substitute a fake.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the named tool, surfacing combined output in the error.
func ExecRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)", name, err, out)
	}
	return nil
}

// Renderer converts a downloaded PDF to a raster image at a fixed resolution
// by invoking ghostscript.
type Renderer struct {
	format     string // tiff or png
	resolution int
	run        CommandRunner
	logger     *zap.Logger
}

// NewRenderer constructs a Renderer. format must be tiff or png.
func NewRenderer(format string, resolution int, run CommandRunner, logger *zap.Logger) *Renderer {
	if run == nil {
		run = ExecRunner
	}
	return &Renderer{format: format, resolution: resolution, run: run, logger: logger}
}

// Format returns the raster format's file extension.
func (r *Renderer) Format() string {
	return r.format
}

// Render rasterizes pdfPath into outPath.
func (r *Renderer) Render(ctx context.Context, pdfPath, outPath string) error {
	var device, compression string
	switch filepath.Ext(outPath) {
	case ".png":
		device = "-sDEVICE=png16m"
	case ".tiff":
		device = "-sDEVICE=tiff24nc"
		compression = "-sCompression=lzw"
	default:
		return fmt.Errorf("unsupported render format %q", filepath.Ext(outPath))
	}

	args := []string{"-q", fmt.Sprintf("-r%d", r.resolution), device}
	if compression != "" {
		args = append(args, compression)
	}
	args = append(args, "-o", outPath, pdfPath, "-c", "quit")

	if err := r.run(ctx, "gs", args...); err != nil {
		return fmt.Errorf("render %s: %w", pdfPath, err)
	}
	return nil
}
