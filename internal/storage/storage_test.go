package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yowaacademy/backend/internal/apperrors"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func setupImageProcessor(t *testing.T) (*ImageProcessor, string) {
	t.Helper()
	dir := t.TempDir()
	return NewImageProcessor(NewLocalStorage(dir, "/uploads/"), zap.NewNop()), dir
}

func storedPath(dir, url string) string {
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/")))
}

func TestGenerateFileName(t *testing.T) {
	assert.True(t, strings.HasSuffix(GenerateFileName(".png"), ".png"))
	assert.True(t, strings.HasSuffix(GenerateFileName("jpg"), ".jpg"))
	assert.Len(t, GenerateFileName(""), 36)
	assert.NotEqual(t, GenerateFileName(".png"), GenerateFileName(".png"))
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name          string
		filename      string
		contentType   string
		size          int64
		expectedExt   string
		errorContains string
	}{
		{name: "png", filename: "cover.PNG", contentType: "image/png", size: 10, expectedExt: ".png"},
		{name: "jpeg without content type", filename: "photo.jpeg", size: 10, expectedExt: ".jpeg"},
		{name: "webp", filename: "a.webp", contentType: "image/webp", size: 10, expectedExt: ".webp"},
		{name: "executable", filename: "virus.exe", contentType: "application/x-msdownload", size: 10, errorContains: "only jpeg"},
		{name: "path traversal", filename: "../../etc/passwd.png", contentType: "image/png", size: 10, errorContains: "invalid characters"},
		{name: "oversize", filename: "big.png", contentType: "image/png", size: MaxImageSize + 1, errorContains: "must not exceed 5MB"},
		{name: "mismatched type", filename: "cover.png", contentType: "text/html", size: 10, errorContains: "does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := ValidateImage(tt.filename, tt.contentType, tt.size)

			if tt.errorContains != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedExt, ext)
		})
	}
}

func TestImageProcessor_Save(t *testing.T) {
	t.Run("small image is stored unchanged", func(t *testing.T) {
		processor, dir := setupImageProcessor(t)
		data := pngBytes(t, 100, 50)

		url, err := processor.Save(context.Background(), bytes.NewReader(data), "cover.png", "image/png", CoverImage)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/uploads/covers/"))
		stored, err := os.ReadFile(storedPath(dir, url))
		require.NoError(t, err)
		assert.Equal(t, data, stored)
	})

	t.Run("large avatar is downsized", func(t *testing.T) {
		processor, dir := setupImageProcessor(t)

		url, err := processor.Save(context.Background(), bytes.NewReader(pngBytes(t, 1024, 256)), "me.png", "image/png", AvatarImage)

		require.NoError(t, err)
		img, err := imaging.Open(storedPath(dir, url))
		require.NoError(t, err)
		assert.Equal(t, 512, img.Bounds().Dx())
		assert.Equal(t, 128, img.Bounds().Dy())
	})

	t.Run("corrupted image", func(t *testing.T) {
		processor, _ := setupImageProcessor(t)

		_, err := processor.Save(context.Background(), strings.NewReader("not a png"), "cover.png", "image/png", CoverImage)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("oversize stream", func(t *testing.T) {
		processor, _ := setupImageProcessor(t)

		_, err := processor.Save(context.Background(), bytes.NewReader(make([]byte, MaxImageSize+10)), "cover.png", "image/png", CoverImage)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not exceed")
	})

	t.Run("webp signature is checked", func(t *testing.T) {
		processor, _ := setupImageProcessor(t)
		webp := append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 16)...)

		url, err := processor.Save(context.Background(), bytes.NewReader(webp), "a.webp", "image/webp", CoverImage)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(url, ".webp"))

		_, err = processor.Save(context.Background(), strings.NewReader("RIFFxxxxJUNK"), "b.webp", "image/webp", CoverImage)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestLocalStorage_Remove(t *testing.T) {
	processor, dir := setupImageProcessor(t)

	url, err := processor.Save(context.Background(), bytes.NewReader(pngBytes(t, 10, 10)), "cover.png", "image/png", CoverImage)
	require.NoError(t, err)

	require.NoError(t, processor.Remove(context.Background(), url))
	_, err = os.Stat(storedPath(dir, url))
	assert.True(t, os.IsNotExist(err))

	// already removed
	assert.NoError(t, processor.Remove(context.Background(), url))
	// external and malformed URLs are ignored
	assert.NoError(t, processor.Remove(context.Background(), "https://cdn.example.com/cover.png"))
	assert.NoError(t, processor.Remove(context.Background(), "/uploads/../secret"))
}
