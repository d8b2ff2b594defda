package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Renderer rasterizes one document page (0-based) into an image file under
// destDir and returns its path.
type Renderer interface {
	RenderPage(ctx context.Context, pdfPath string, page int, destDir string) (string, error)
}

// PopplerRenderer renders pages with pdftoppm and falls back to pulling the
// page's embedded images when poppler is unavailable. Scanned documents are
// usually a single full-page image, which makes the fallback workable.
type PopplerRenderer struct {
	dpi  int
	conf *model.Configuration
}

var _ Renderer = (*PopplerRenderer)(nil)

// NewPopplerRenderer creates a renderer. dpi <= 0 selects 300, the usual
// sweet spot for OCR quality.
func NewPopplerRenderer(dpi int) *PopplerRenderer {
	if dpi <= 0 {
		dpi = 300
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PopplerRenderer{dpi: dpi, conf: conf}
}

// RenderPage rasterizes the page to PNG.
func (r *PopplerRenderer) RenderPage(ctx context.Context, pdfPath string, page int, destDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := r.renderPoppler(ctx, pdfPath, page, destDir)
	if err == nil {
		return path, nil
	}

	fallbackPath, fallbackErr := r.extractPageImage(pdfPath, page, destDir)
	if fallbackErr != nil {
		return "", fmt.Errorf("rendering page %d: %w (image fallback: %v)", page, err, fallbackErr)
	}
	return fallbackPath, nil
}

func (r *PopplerRenderer) renderPoppler(ctx context.Context, pdfPath string, page int, destDir string) (string, error) {
	prefix := filepath.Join(destDir, fmt.Sprintf("page-%05d", page))
	// pdftoppm pages are 1-based.
	pageNr := strconv.Itoa(page + 1)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-r", strconv.Itoa(r.dpi),
		"-f", pageNr,
		"-l", pageNr,
		"-singlefile",
		pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, out)
	}

	path := prefix + ".png"
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("pdftoppm produced no output: %w", err)
	}
	return path, nil
}

// extractPageImage pulls the page's embedded images and returns the largest
// one, on the assumption that a scanned page is one big raster.
func (r *PopplerRenderer) extractPageImage(pdfPath string, page int, destDir string) (string, error) {
	dir, err := os.MkdirTemp(destDir, "images-*")
	if err != nil {
		return "", err
	}

	pageSpec := []string{strconv.Itoa(page + 1)}
	if err := api.ExtractImagesFile(pdfPath, dir, pageSpec, r.conf); err != nil {
		return "", fmt.Errorf("extracting page images: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var best string
	var bestSize int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best = filepath.Join(dir, entry.Name())
			bestSize = info.Size()
		}
	}
	if best == "" {
		return "", fmt.Errorf("page %d has no embedded images", page)
	}
	return best, nil
}
