package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hrms/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedFile is returned for content that is neither an image nor a PDF.
var ErrUnsupportedFile = fmt.Errorf("only images and PDF documents are accepted")

// ErrFileTooLarge is returned when an upload exceeds the store's limit.
var ErrFileTooLarge = fmt.Errorf("file is too large")

// DocumentStore keeps uploaded documents on local disk under Dir.
type DocumentStore struct {
	Dir      string
	MaxBytes int64
	Now      func() time.Time
}

func NewDocumentStore(dir string, maxBytes int64) *DocumentStore {
	return &DocumentStore{Dir: dir, MaxBytes: maxBytes, Now: time.Now}
}

// SaveUploadedFile reads a multipart upload and stores it.
func (s *DocumentStore) SaveUploadedFile(file *multipart.FileHeader) (models.Document, error) {
	if s.MaxBytes > 0 && file.Size > s.MaxBytes {
		return models.Document{}, ErrFileTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return models.Document{}, err
	}
	defer src.Close()

	limit := s.MaxBytes
	if limit <= 0 {
		limit = 1 << 30
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return models.Document{}, err
	}
	return s.Save(data, file.Filename)
}

// Save sniffs the content type and writes data as <uuid><ext>.
func (s *DocumentStore) Save(data []byte, filename string) (models.Document, error) {
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return models.Document{}, ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") && !mt.Is("application/pdf") {
		return models.Document{}, ErrUnsupportedFile
	}

	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return models.Document{}, err
	}

	ref := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.Dir, ref), data, 0644); err != nil {
		return models.Document{}, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return models.Document{
		Filename:   filepath.Base(filename),
		StorageRef: ref,
		MimeType:   mt.String(),
		Size:       int64(len(data)),
		UploadedAt: now(),
	}, nil
}

// Remove deletes a stored document. Missing files are not an error.
func (s *DocumentStore) Remove(ref string) error {
	if ref == "" || strings.ContainsAny(ref, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, ref))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func GetFileURL(storageRef string) string {
	if storageRef == "" {
		return ""
	}
	return "/uploads/" + storageRef
}
