package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go-storefront/models"

	"github.com/google/uuid"
)

// MaxProductImages is the upload limit per product request.
const MaxProductImages = 6

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// ErrUnsupportedImage is returned for files outside the allowed formats.
var ErrUnsupportedImage = errors.New("only jpg, jpeg, png and webp images are allowed")

// ImageStore persists product images.
type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (models.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// IsValidImageExtension reports whether filename has an allowed image extension.
func IsValidImageExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// LocalImageStore writes images under Dir and serves them from BaseURL.
type LocalImageStore struct {
	Dir     string
	BaseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	return &LocalImageStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalImageStore) Save(_ context.Context, filename string, r io.Reader) (models.Image, error) {
	if !IsValidImageExtension(filename) {
		return models.Image{}, ErrUnsupportedImage
	}
	publicID := path.Join("products", uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	target := filepath.Join(s.Dir, filepath.FromSlash(publicID))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return models.Image{}, fmt.Errorf("create upload directory: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return models.Image{}, fmt.Errorf("create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(target)
		return models.Image{}, fmt.Errorf("save image: %w", err)
	}
	return models.Image{PublicID: publicID, URL: s.BaseURL + "/" + publicID}, nil
}

// Delete removes a stored image. Ids that are not local paths, such as seeded remote URLs, are ignored.
func (s *LocalImageStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" || strings.Contains(publicID, "://") {
		return nil
	}
	clean := path.Clean("/" + publicID)
	if strings.Contains(publicID, "..") || clean == "/" {
		return fmt.Errorf("invalid image id %q", publicID)
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
