package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/familyalbum/faces/internal/domain"
)

const jpegQuality = 92

// Store returns photo images ready for detection.
type Store interface {
	Load(ctx context.Context, fileName string) ([]byte, error)
}

// LocalStore reads originals from a directory on disk. Images are decoded
// with EXIF auto-orientation and re-encoded as JPEG so that detector
// coordinates match what a viewer sees.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) Load(ctx context.Context, fileName string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(fileName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrPhotoUnavailable.WithMessage(fmt.Sprintf("Photo file %q not found", fileName)).WithError(err)
		}
		return nil, domain.ErrPhotoUnavailable.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.ErrPhotoUnavailable.WithMessage(fmt.Sprintf("Photo file %q is not a decodable image", fileName)).WithError(err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", fileName, err)
	}
	return buf.Bytes(), nil
}

// resolve maps a gallery file name to a path under root, refusing names
// that would escape it.
func (s *LocalStore) resolve(fileName string) (string, error) {
	if fileName == "" || !filepath.IsLocal(fileName) {
		return "", domain.ErrValidationFailed.WithMessage(fmt.Sprintf("Invalid photo file name %q", fileName))
	}
	return filepath.Join(s.root, fileName), nil
}

var _ Store = (*LocalStore)(nil)
