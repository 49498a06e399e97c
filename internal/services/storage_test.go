package services

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("cv", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["cv"][0]
}

func TestStorageService_SaveCV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewStorageService(dir, zap.NewNop())
	require.NoError(t, store.EnsureUploadDir())

	content := []byte("%PDF-1.4\nbody")
	stored, err := store.SaveCV(multipartFile(t, "Mario Rossi.PDF", content), 4211)
	require.NoError(t, err)

	assert.Equal(t, int64(len(content)), stored.Size)
	assert.Equal(t, filepath.Join(dir, stored.FileName), stored.Path)

	resID, ok := ResIDFromFileName(stored.FileName)
	require.True(t, ok)
	assert.Equal(t, int64(4211), resID)

	written, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, content, written)

	require.NoError(t, store.Delete(stored.FileName))
	assert.NoFileExists(t, stored.Path)
	assert.NoError(t, store.Delete(stored.FileName), "deleting a missing file is not an error")
}

func TestStorageService_SaveCVRejects(t *testing.T) {
	dir := t.TempDir()
	store := NewStorageService(dir, zap.NewNop())

	tests := []struct {
		name    string
		file    string
		content []byte
		resID   int64
	}{
		{name: "wrong extension", file: "cv.docx", content: []byte("%PDF-1.4"), resID: 1},
		{name: "not a pdf", file: "cv.pdf", content: []byte("hello world"), resID: 1},
		{name: "empty file", file: "cv.pdf", content: nil, resID: 1},
		{name: "invalid res_id", file: "cv.pdf", content: []byte("%PDF-1.4"), resID: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.SaveCV(multipartFile(t, tt.file, tt.content), tt.resID)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStorageService_PathStripsDirectories(t *testing.T) {
	store := NewStorageService("/data/uploads", zap.NewNop())
	assert.Equal(t, "/data/uploads/cv.pdf", store.Path("../../etc/cv.pdf"))
}
