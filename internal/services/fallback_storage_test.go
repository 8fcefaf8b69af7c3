package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorageService is a testify mock of StorageService
type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	args := m.Called(ctx, key, reader, contentType, size)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorageService) GetURL(key string) string {
	return m.Called(key).String(0)
}

func (m *MockStorageService) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func newTestLocalStorage(t *testing.T) (*LocalStorageService, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	dir := t.TempDir()
	service, err := NewLocalStorageService(dir, "http://localhost:8080/uploads/", logger)
	require.NoError(t, err)
	return service, dir
}

func TestLocalStorageService_UploadAndDelete(t *testing.T) {
	service, dir := newTestLocalStorage(t)
	ctx := context.Background()
	content := "test file content"

	url, err := service.Upload(ctx, "/2026/09/01/file.txt", strings.NewReader(content), "text/plain", int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/2026/09/01/file.txt", url)

	stored, err := os.ReadFile(filepath.Join(dir, "2026", "09", "01", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(stored))

	exists, err := service.Exists(ctx, "2026/09/01/file.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, service.Delete(ctx, "2026/09/01/file.txt"))

	exists, err = service.Exists(ctx, "2026/09/01/file.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	// empty date directories are removed, the base directory stays
	_, err = os.Stat(filepath.Join(dir, "2026"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.NoError(t, err)

	assert.NoError(t, service.Delete(ctx, "2026/09/01/file.txt"))
}

func TestLocalStorageService_SizeMismatch(t *testing.T) {
	service, dir := newTestLocalStorage(t)

	_, err := service.Upload(context.Background(), "short.txt", strings.NewReader("abc"), "text/plain", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size mismatch")

	_, statErr := os.Stat(filepath.Join(dir, "short.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalStorageService_KeysStayInsideBase(t *testing.T) {
	service, dir := newTestLocalStorage(t)

	_, err := service.Upload(context.Background(), "../../escape.txt", strings.NewReader("x"), "text/plain", 1)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)

	_, err = service.Upload(context.Background(), "/", strings.NewReader("x"), "text/plain", 1)
	assert.Error(t, err)
}

func TestStorageServiceWithFallback_Upload(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	t.Run("primary succeeds", func(t *testing.T) {
		primary := new(MockStorageService)
		fallback := new(MockStorageService)
		primary.On("Upload", ctx, "a.png", mock.Anything, "image/png", int64(4)).Return("https://cdn/a.png", nil)

		service := NewStorageServiceWithFallback(primary, fallback, logger)
		url, err := service.Upload(ctx, "a.png", strings.NewReader("data"), "image/png", 4)

		require.NoError(t, err)
		assert.Equal(t, "https://cdn/a.png", url)
		fallback.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("primary fails", func(t *testing.T) {
		primary := new(MockStorageService)
		local, dir := newTestLocalStorage(t)
		primary.On("Upload", ctx, "a.png", mock.Anything, "image/png", int64(4)).
			Run(func(args mock.Arguments) {
				io.ReadAll(args.Get(2).(io.Reader))
			}).
			Return("", errors.New("bucket unreachable"))

		service := NewStorageServiceWithFallback(primary, local, logger)
		url, err := service.Upload(ctx, "a.png", strings.NewReader("data"), "image/png", 4)

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/uploads/a.png", url)
		stored, err := os.ReadFile(filepath.Join(dir, "a.png"))
		require.NoError(t, err)
		assert.Equal(t, "data", string(stored))
	})

	t.Run("unseekable reader", func(t *testing.T) {
		primary := new(MockStorageService)
		fallback := new(MockStorageService)
		primary.On("Upload", ctx, "a.png", mock.Anything, "image/png", int64(4)).Return("", errors.New("bucket unreachable"))

		service := NewStorageServiceWithFallback(primary, fallback, logger)
		_, err := service.Upload(ctx, "a.png", io.LimitReader(strings.NewReader("data"), 4), "image/png", 4)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot reset reader")
	})
}

func TestStorageServiceWithFallback_DeleteAndExists(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	primary := new(MockStorageService)
	fallback := new(MockStorageService)
	primary.On("Delete", ctx, "a.png").Return(errors.New("gone"))
	fallback.On("Delete", ctx, "a.png").Return(nil)
	primary.On("Exists", ctx, "a.png").Return(false, nil)
	fallback.On("Exists", ctx, "a.png").Return(true, nil)
	primary.On("GetURL", "a.png").Return("https://cdn/a.png")

	service := NewStorageServiceWithFallback(primary, fallback, logger)

	assert.NoError(t, service.Delete(ctx, "a.png"))
	exists, err := service.Exists(ctx, "a.png")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "https://cdn/a.png", service.GetURL("a.png"))

	both := new(MockStorageService)
	both.On("Delete", ctx, "b.png").Return(errors.New("nope"))
	service = NewStorageServiceWithFallback(both, both, logger)
	assert.Error(t, service.Delete(ctx, "b.png"))
}
