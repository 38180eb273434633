package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/yowaacademy/backend/internal/apperrors"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted image upload
const MaxImageSize = 5 << 20

// ImageKind describes where an image is stored and how large it may be
type ImageKind struct {
	Folder       string
	MaxDimension int
}

var (
	// CoverImage is a course cover
	CoverImage = ImageKind{Folder: "covers", MaxDimension: 1920}
	// AvatarImage is a user avatar
	AvatarImage = ImageKind{Folder: "avatars", MaxDimension: 512}
)

var allowedImageTypes = map[string][]string{
	".jpg":  {"image/jpeg", "image/jpg"},
	".jpeg": {"image/jpeg", "image/jpg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
}

// ImageProcessor validates, downsizes and stores uploaded images
type ImageProcessor struct {
	storage *localStorage
	logger  *zap.Logger
}

// NewImageProcessor creates a new image processor writing to storage
func NewImageProcessor(storage *localStorage, logger *zap.Logger) *ImageProcessor {
	return &ImageProcessor{
		storage: storage,
		logger:  logger,
	}
}

// Remove implements Cleaner
func (p *ImageProcessor) Remove(ctx context.Context, url string) error {
	return p.storage.Remove(ctx, url)
}

// ValidateImage checks the client file name, content type and size of an upload.
// It returns the normalized extension.
func ValidateImage(filename, contentType string, size int64) (string, error) {
	if !isSafeName(filename) {
		return "", apperrors.Validation("file name contains invalid characters")
	}
	if size > MaxImageSize {
		return "", apperrors.Validation("image must not exceed %dMB", MaxImageSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	mimeTypes, ok := allowedImageTypes[ext]
	if !ok {
		return "", apperrors.Validation("only jpeg, png, gif and webp images are allowed")
	}

	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if contentType != "" && contentType != "application/octet-stream" {
		matched := false
		for _, mimeType := range mimeTypes {
			if contentType == mimeType {
				matched = true
				break
			}
		}
		if !matched {
			return "", apperrors.Validation("content type %s does not match the file extension", contentType)
		}
	}

	return ext, nil
}

// Save validates an image, downsizes it to the kind's bounds and stores it under a generated name.
// It returns the public URL of the stored file.
func (p *ImageProcessor) Save(ctx context.Context, r io.Reader, filename, contentType string, kind ImageKind) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	ext, err := ValidateImage(filename, contentType, int64(len(data)))
	if err != nil {
		return "", err
	}

	payload, err := p.prepare(data, ext, kind)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := GenerateFileName(ext)
	w, err := p.storage.Create(name, kind.Folder)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	counter := &sizeWriter{}
	_, copyErr := io.Copy(io.MultiWriter(w, counter), bytes.NewReader(payload))
	closeErr := w.Close()
	if copyErr != nil || closeErr != nil {
		_ = p.storage.Delete(name, kind.Folder)
		return "", fmt.Errorf("failed to write file: %w", firstError(copyErr, closeErr))
	}

	p.logger.Debug("image stored",
		zap.String("folder", kind.Folder),
		zap.String("name", name),
		zap.Int64("size", counter.Size()),
	)

	return p.storage.URL(name, kind.Folder), nil
}

// prepare returns the bytes to store. Images above the bound are re-encoded at the bound.
func (p *ImageProcessor) prepare(data []byte, ext string, kind ImageKind) ([]byte, error) {
	if ext == ".webp" {
		// imaging has no WebP codec, so only the container signature is checked
		if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
			return nil, apperrors.Validation("file is not a valid image")
		}
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.Validation("file is not a valid image")
	}

	if !exceeds(img, kind.MaxDimension) {
		return data, nil
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, apperrors.Validation("unsupported image format")
	}

	resized := imaging.Fit(img, kind.MaxDimension, kind.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func exceeds(img image.Image, maxDimension int) bool {
	bounds := img.Bounds()
	return maxDimension > 0 && (bounds.Dx() > maxDimension || bounds.Dy() > maxDimension)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
