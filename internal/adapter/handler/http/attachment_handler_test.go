package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	mimemultipart "mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	handlers "github.com/taskforge/attachment-service/internal/adapter/handler/http"
	"github.com/taskforge/attachment-service/internal/adapter/multipart"
	"github.com/taskforge/attachment-service/internal/domain/model"
	"github.com/taskforge/attachment-service/internal/infrastructure/storage/disk"
	"github.com/taskforge/attachment-service/internal/usecase"
)

// memAttachmentRepository is an in-memory AttachmentRepository for
// handler-level tests; the GORM adapter is exercised against a real
// database elsewhere.
type memAttachmentRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]model.Attachment
}

func newMemAttachmentRepository() *memAttachmentRepository {
	return &memAttachmentRepository{records: make(map[uuid.UUID]model.Attachment)}
}

func (r *memAttachmentRepository) Create(ctx context.Context, attachment *model.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[attachment.ID] = *attachment
	return nil
}

func (r *memAttachmentRepository) FindByTaskAndID(ctx context.Context, taskID string, id uuid.UUID) (*model.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.TaskID != taskID {
		return nil, nil
	}
	return &record, nil
}

func (r *memAttachmentRepository) ListByTask(ctx context.Context, taskID string) ([]model.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attachment
	for _, record := range r.records {
		if record.TaskID == taskID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *memAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return 0, nil
	}
	delete(r.records, id)
	return 1, nil
}

func (r *memAttachmentRepository) FilterKnownStorageNames(ctx context.Context, names []string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	known := make(map[string]struct{})
	byName := make(map[string]struct{}, len(r.records))
	for _, record := range r.records {
		byName[record.StorageName] = struct{}{}
	}
	for _, name := range names {
		if _, ok := byName[name]; ok {
			known[name] = struct{}{}
		}
	}
	return known, nil
}

type memTaskRepository struct {
	ids map[string]struct{}
}

func (r *memTaskRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.ids[id]
	return ok, nil
}

type fixture struct {
	echo  *echo.Echo
	repo  *memAttachmentRepository
	store *disk.Store
}

func newFixture(t *testing.T, tasks ...string) *fixture {
	t.Helper()
	logger := zap.NewNop()

	store, err := disk.New(t.TempDir(), logger)
	assert.NoError(t, err)

	repo := newMemAttachmentRepository()
	taskRepo := &memTaskRepository{ids: make(map[string]struct{})}
	for _, id := range tasks {
		taskRepo.ids[id] = struct{}{}
	}

	decoder := multipart.NewDecoder(t.TempDir(), 25_000_000, logger)
	validator := usecase.NewValidator(10_000_000, map[string]string{
		"png": "image/png",
		"pdf": "application/pdf",
		"txt": "text/plain; charset=utf-8",
	})
	names := usecase.NewNameGenerator()

	uploads := usecase.NewUploadService(validator, names, store, repo, taskRepo, logger)
	attachments := usecase.NewAttachmentService(validator, store, repo, logger)
	handler := handlers.NewAttachmentHandler(decoder, uploads, attachments, logger)

	e := echo.New()
	e.POST("/tasks/:task_id/attachments", handler.Upload)
	e.GET("/tasks/:task_id/attachments", handler.List)
	e.GET("/tasks/:task_id/attachments/:id", handler.Download)
	e.DELETE("/tasks/:task_id/attachments/:id", handler.Delete)

	return &fixture{echo: e, repo: repo, store: store}
}

func (f *fixture) upload(t *testing.T, taskID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := mimemultipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	req := httptest.NewRequest(nethttp.MethodPost, fmt.Sprintf("/tasks/%s/attachments", taskID), &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func decodeAttachment(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestAttachmentHandler_UploadAndDownloadRoundTrip(t *testing.T) {
	f := newFixture(t, "task-1")
	content := bytes.Repeat([]byte{0x7f}, 500_000)

	rec := f.upload(t, "task-1", "holiday photo.png", content)
	assert.Equal(t, nethttp.StatusCreated, rec.Code)

	payload := decodeAttachment(t, rec)
	assert.Equal(t, "holiday photo.png", payload["display_name"])
	assert.Equal(t, float64(len(content)), payload["size_bytes"])
	assert.NotEmpty(t, payload["id"])
	// The physical name stays server-side.
	assert.NotContains(t, payload, "storage_name")

	id := payload["id"].(string)
	download := f.request(nethttp.MethodGet, fmt.Sprintf("/tasks/task-1/attachments/%s", id))

	assert.Equal(t, nethttp.StatusOK, download.Code)
	assert.Equal(t, "image/png", download.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="holiday photo.png"`, download.Header().Get("Content-Disposition"))
	assert.Equal(t, "nosniff", download.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, fmt.Sprint(len(content)), download.Header().Get("Content-Length"))

	got, err := io.ReadAll(download.Body)
	assert.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestAttachmentHandler_UploadRejectsDisallowedType(t *testing.T) {
	f := newFixture(t, "task-1")

	rec := f.upload(t, "task-1", "virus.exe", []byte("MZ"))

	assert.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	payload := decodeAttachment(t, rec)
	assert.Contains(t, payload["error"], "File type not allowed")

	// Nothing was committed.
	names, err := f.store.List(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestAttachmentHandler_UploadRejectsOversizedFile(t *testing.T) {
	f := newFixture(t, "task-1")

	rec := f.upload(t, "task-1", "big.pdf", bytes.Repeat([]byte("a"), 11_000_000))

	assert.Equal(t, nethttp.StatusUnprocessableEntity, rec.Code)
	payload := decodeAttachment(t, rec)
	assert.Contains(t, payload["error"], "File is too large")

	names, err := f.store.List(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestAttachmentHandler_UploadRequestCeiling(t *testing.T) {
	f := newFixture(t, "task-1")

	// Over the 25 MB request ceiling even though no single file check runs.
	rec := f.upload(t, "task-1", "big.pdf", bytes.Repeat([]byte("a"), 26_000_000))

	assert.Equal(t, nethttp.StatusRequestEntityTooLarge, rec.Code)
}

func TestAttachmentHandler_UploadMissingFileField(t *testing.T) {
	f := newFixture(t, "task-1")

	var body bytes.Buffer
	w := mimemultipart.NewWriter(&body)
	assert.NoError(t, w.WriteField("note", "no file here"))
	assert.NoError(t, w.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/tasks/task-1/attachments", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestAttachmentHandler_UploadUnknownTask(t *testing.T) {
	f := newFixture(t, "task-1")

	rec := f.upload(t, "task-404", "photo.png", []byte("bytes"))

	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestAttachmentHandler_DownloadScopedToOwner(t *testing.T) {
	f := newFixture(t, "task-1", "task-2")

	rec := f.upload(t, "task-1", "secret.pdf", []byte("confidential"))
	assert.Equal(t, nethttp.StatusCreated, rec.Code)
	id := decodeAttachment(t, rec)["id"].(string)

	// The wrong owner sees nothing.
	wrong := f.request(nethttp.MethodGet, fmt.Sprintf("/tasks/task-2/attachments/%s", id))
	assert.Equal(t, nethttp.StatusNotFound, wrong.Code)

	// The right owner still can.
	right := f.request(nethttp.MethodGet, fmt.Sprintf("/tasks/task-1/attachments/%s", id))
	assert.Equal(t, nethttp.StatusOK, right.Code)
}

func TestAttachmentHandler_DownloadInvalidID(t *testing.T) {
	f := newFixture(t, "task-1")

	rec := f.request(nethttp.MethodGet, "/tasks/task-1/attachments/not-a-uuid")

	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestAttachmentHandler_DownloadEscapesDispositionQuotes(t *testing.T) {
	f := newFixture(t, "task-1")

	rec := f.upload(t, "task-1", `na"me.txt`, []byte("x"))
	assert.Equal(t, nethttp.StatusCreated, rec.Code)
	id := decodeAttachment(t, rec)["id"].(string)

	download := f.request(nethttp.MethodGet, fmt.Sprintf("/tasks/task-1/attachments/%s", id))

	assert.Equal(t, nethttp.StatusOK, download.Code)
	assert.Equal(t, `attachment; filename="na\"me.txt"`, download.Header().Get("Content-Disposition"))
}

func TestAttachmentHandler_List(t *testing.T) {
	f := newFixture(t, "task-1", "task-2")

	assert.Equal(t, nethttp.StatusCreated, f.upload(t, "task-1", "one.png", []byte("1")).Code)
	assert.Equal(t, nethttp.StatusCreated, f.upload(t, "task-1", "two.pdf", []byte("2")).Code)
	assert.Equal(t, nethttp.StatusCreated, f.upload(t, "task-2", "other.txt", []byte("3")).Code)

	rec := f.request(nethttp.MethodGet, "/tasks/task-1/attachments")
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	var payload []map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload, 2)
}

func TestAttachmentHandler_DeleteRemovesRecordAndBytes(t *testing.T) {
	f := newFixture(t, "task-1")

	rec := f.upload(t, "task-1", "doomed.txt", []byte("bytes"))
	assert.Equal(t, nethttp.StatusCreated, rec.Code)
	id := decodeAttachment(t, rec)["id"].(string)

	del := f.request(nethttp.MethodDelete, fmt.Sprintf("/tasks/task-1/attachments/%s", id))
	assert.Equal(t, nethttp.StatusOK, del.Code)
	assert.Empty(t, del.Body.Bytes())

	// Download afterwards reports absence.
	download := f.request(nethttp.MethodGet, fmt.Sprintf("/tasks/task-1/attachments/%s", id))
	assert.Equal(t, nethttp.StatusNotFound, download.Code)

	// The bytes are reclaimed too.
	names, err := f.store.List(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestAttachmentHandler_DeleteTwice(t *testing.T) {
	f := newFixture(t, "task-1")

	rec := f.upload(t, "task-1", "doomed.txt", []byte("bytes"))
	assert.Equal(t, nethttp.StatusCreated, rec.Code)
	id := decodeAttachment(t, rec)["id"].(string)

	first := f.request(nethttp.MethodDelete, fmt.Sprintf("/tasks/task-1/attachments/%s", id))
	assert.Equal(t, nethttp.StatusOK, first.Code)

	second := f.request(nethttp.MethodDelete, fmt.Sprintf("/tasks/task-1/attachments/%s", id))
	assert.Equal(t, nethttp.StatusNotFound, second.Code)
}

func TestAttachmentHandler_DeleteScopedToOwner(t *testing.T) {
	f := newFixture(t, "task-1", "task-2")

	rec := f.upload(t, "task-1", "keep.txt", []byte("bytes"))
	assert.Equal(t, nethttp.StatusCreated, rec.Code)
	id := decodeAttachment(t, rec)["id"].(string)

	wrong := f.request(nethttp.MethodDelete, fmt.Sprintf("/tasks/task-2/attachments/%s", id))
	assert.Equal(t, nethttp.StatusNotFound, wrong.Code)

	// Still intact for its true owner.
	download := f.request(nethttp.MethodGet, fmt.Sprintf("/tasks/task-1/attachments/%s", id))
	assert.Equal(t, nethttp.StatusOK, download.Code)
}
