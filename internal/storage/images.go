package storage

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"workdiary/internal/models"
	"workdiary/internal/providers"
	"workdiary/internal/structures"

	"github.com/google/uuid"
)

// DefaultMaxImageBytes is the decoded size ceiling for a single image.
const DefaultMaxImageBytes = 10 << 20

var dataURLPattern = regexp.MustCompile(`(?s)^data:image/([a-zA-Z0-9.+-]+);base64,(.+)$`)

// extensions maps accepted image subtypes to the file extension written.
var extensions = map[string]string{
	"png":  "png",
	"jpeg": "jpg",
	"jpg":  "jpg",
	"webp": "webp",
}

// ImageMeta selects the partition an image is written into.
type ImageMeta struct {
	ProjectID string
	TaskID    string
	// Date is the YYYY-MM-DD partition; today (UTC) when empty.
	Date string
}

type ImageStoreInterface interface {
	SaveDataURL(dataURL string, meta ImageMeta) (string, error)
	SaveBytes(data []byte, meta ImageMeta) (string, error)
	Remove(relPath string) error
	Exists(relPath string) bool
	Root() string
}

type ImageStore struct {
	root     string
	maxBytes int
	logger   providers.Logger
}

func NewImageStore(conf *structures.Config, logger providers.Logger) (*ImageStore, error) {
	root, err := filepath.Abs(conf.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	maxBytes := conf.Storage.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageStore{root: root, maxBytes: maxBytes, logger: logger}, nil
}

func (s *ImageStore) Root() string {
	return s.root
}

// SaveDataURL decodes a data:image/<subtype>;base64 URL and writes it.
func (s *ImageStore) SaveDataURL(dataURL string, meta ImageMeta) (string, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(dataURL))
	if m == nil {
		return "", &models.InvalidImageFormatError{Reason: "not a base64 image data URL"}
	}
	ext, ok := extensions[strings.ToLower(m[1])]
	if !ok {
		return "", &models.InvalidImageFormatError{Reason: "unsupported image type " + m[1]}
	}

	payload := stripSpace(m[2])
	// Padding accounts for at most two bytes of the estimate.
	if estimate := base64.StdEncoding.DecodedLen(len(payload)) - 2; estimate > s.maxBytes {
		return "", &models.ImageTooLargeError{Size: estimate, Limit: s.maxBytes}
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return "", &models.InvalidImageFormatError{Reason: "malformed base64 payload"}
	}
	return s.save(data, ext, meta)
}

// SaveBytes writes raw image bytes, identifying the format by content.
func (s *ImageStore) SaveBytes(data []byte, meta ImageMeta) (string, error) {
	if len(data) > s.maxBytes {
		return "", &models.ImageTooLargeError{Size: len(data), Limit: s.maxBytes}
	}
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", &models.InvalidImageFormatError{Reason: "content is not an image"}
	}
	ext, ok := extensions[strings.TrimPrefix(mediaType, "image/")]
	if !ok {
		return "", &models.InvalidImageFormatError{Reason: "unsupported image type " + mediaType}
	}
	return s.save(data, ext, meta)
}

func (s *ImageStore) save(data []byte, ext string, meta ImageMeta) (string, error) {
	if len(data) > s.maxBytes {
		return "", &models.ImageTooLargeError{Size: len(data), Limit: s.maxBytes}
	}
	if len(data) == 0 {
		return "", &models.InvalidImageFormatError{Reason: "empty image"}
	}

	date := meta.Date
	if date == "" {
		date = time.Now().UTC().Format(models.DateLayout)
	}
	dir := filepath.Join(s.root,
		"ProjectID_"+segment(meta.ProjectID),
		"TaskID_"+segment(meta.TaskID),
		segment(date),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	fullPath := filepath.Join(dir, uuid.NewString()+"."+ext)
	if err := writeAtomic(fullPath, data); err != nil {
		return "", err
	}

	rel, err := filepath.Rel(s.root, fullPath)
	if err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("relative image path: %w", err)
	}
	relPath := NormalizePath(filepath.ToSlash(rel))
	s.logger.Debugf(providers.TypePost, "Saved image %s (%d bytes)", relPath, len(data))
	return relPath, nil
}

// Remove deletes a previously saved image. Missing files are not an error.
func (s *ImageStore) Remove(relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether relPath names a regular file under the root.
func (s *ImageStore) Exists(relPath string) bool {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

func (s *ImageStore) resolve(relPath string) (string, error) {
	clean := NormalizePath(relPath)
	if clean == "" {
		return "", fmt.Errorf("empty image path")
	}
	fullPath := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(fullPath, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("image path %q escapes storage root", relPath)
	}
	return fullPath, nil
}

// writeAtomic writes data to a temp file next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), ".upload-*.tmp")
	if err != nil {
		return err
	}
	tmpFile := file.Name()

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Chmod(0o644); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}
	if err = os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return nil
}

func decodeBase64(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
