package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// FileSink writes each raster as a PNG, atomically replacing the previous
// frame. The e-paper refresh daemon watches this path and only redraws when
// the file changes, which keeps partial writes off the panel.
type FileSink struct {
	path string
}

// NewFileSink writes frames to path. The extension should be .png.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) WriteFrame(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".frame-*")
	if err != nil {
		return fmt.Errorf("render: frame temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := imaging.Encode(tmp, img, imaging.PNG); err != nil {
		tmp.Close()
		return fmt.Errorf("render: encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("render: close frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("render: publish frame: %w", err)
	}
	return nil
}
