package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories"
	"github.com/acme/product-importer/usecases"
)

type stubJobRepository struct {
	jobs map[string]models.ImportJob
}

func (r stubJobRepository) CreateImportJob(ctx context.Context, exec repositories.Executor,
	job models.ImportJob,
) error {
	r.jobs[job.Id] = job
	return nil
}

func (r stubJobRepository) UpdateImportJob(ctx context.Context, exec repositories.Executor,
	input models.UpdateImportJobInput,
) error {
	return nil
}

func (r stubJobRepository) GetImportJobById(ctx context.Context, exec repositories.Executor,
	jobId string,
) (models.ImportJob, error) {
	job, ok := r.jobs[jobId]
	if !ok {
		return models.ImportJob{}, errors.Wrap(models.NotFoundError, "import job not found")
	}
	return job, nil
}

func setupUploadRouter(t *testing.T, channel *repositories.InmemProgressChannel,
	jobs ...models.ImportJob,
) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobRepo := stubJobRepository{jobs: make(map[string]models.ImportJob)}
	for _, job := range jobs {
		jobRepo.jobs[job.Id] = job
	}

	uc := usecases.NewUsecases(repositories.Repositories{
		ImportJobRepository:       jobRepo,
		ProgressChannelRepository: channel,
	}, usecases.WithUploadDir(t.TempDir()))

	router := gin.New()
	New(uc, Configuration{}).addRoutes(router)
	return router
}

func multipartCsvBody(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHandleUploadCsvRejectsMissingFileField(t *testing.T) {
	router := setupUploadRouter(t, repositories.NewInmemProgressChannel())

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "file")
}

func TestHandleUploadCsvRejectsWrongFieldName(t *testing.T) {
	router := setupUploadRouter(t, repositories.NewInmemProgressChannel())

	body, contentType := multipartCsvBody(t, "document", "products.csv", "sku\nABC-1\n")
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleUploadCsvRejectsNonCsvExtension(t *testing.T) {
	router := setupUploadRouter(t, repositories.NewInmemProgressChannel())

	body, contentType := multipartCsvBody(t, "file", "products.xlsx", "sku\nABC-1\n")
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), ".csv")
}

func TestHandleGetImportJobStatus(t *testing.T) {
	job := models.ImportJob{
		Id:        "7c70f1f4-39e7-4517-b70e-5e6a17d1a0dd",
		FileName:  "products.csv",
		Status:    models.ImportJobLoading,
		TotalRows: 100,
	}
	router := setupUploadRouter(t, repositories.NewInmemProgressChannel(), job)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/upload/status/"+job.Id, nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"loading"`)
	assert.Contains(t, recorder.Body.String(), `"total_rows":100`)
}

func TestHandleImportJobProgressUnknownJob(t *testing.T) {
	router := setupUploadRouter(t, repositories.NewInmemProgressChannel())

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/upload/progress/dead-beef", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// A job already finished gets its terminal snapshot as a single event and the
// stream closes immediately, without waiting on the channel.
func TestHandleImportJobProgressTerminalSnapshotClosesStream(t *testing.T) {
	job := models.ImportJob{
		Id:           "7c70f1f4-39e7-4517-b70e-5e6a17d1a0dd",
		Status:       models.ImportJobDone,
		TotalRows:    3,
		RowsUpserted: 3,
	}
	router := setupUploadRouter(t, repositories.NewInmemProgressChannel(), job)

	server := httptest.NewServer(router)
	defer server.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(server.URL + "/upload/progress/" + job.Id)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(body), "event:progress"))
	assert.Contains(t, string(body), `"status":"done"`)
	assert.Contains(t, string(body), `"progress":1`)
}

// A running job streams its snapshot first, then live events, and the stream
// closes once a terminal event goes by.
func TestHandleImportJobProgressStreamsUntilTerminal(t *testing.T) {
	job := models.ImportJob{
		Id:        "7c70f1f4-39e7-4517-b70e-5e6a17d1a0dd",
		Status:    models.ImportJobLoading,
		TotalRows: 100,
	}
	channel := repositories.NewInmemProgressChannel()
	router := setupUploadRouter(t, channel, job)

	server := httptest.NewServer(router)
	defer server.Close()

	// keep publishing until the handler's subscription picks an event up;
	// events published before the subscribe are dropped by the channel
	stopPublishing := make(chan struct{})
	defer close(stopPublishing)
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopPublishing:
				return
			case <-ticker.C:
				_ = channel.Publish(context.Background(), models.ProgressEvent{
					JobId:    job.Id,
					Status:   string(models.ImportJobDone),
					Progress: 1.0,
				})
			}
		}
	}()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(server.URL + "/upload/progress/" + job.Id)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	frames := strings.Count(string(body), "event:progress")
	assert.GreaterOrEqual(t, frames, 2, "expected snapshot plus at least one live event")
	assert.Contains(t, string(body), `"status":"loading"`)
	assert.Contains(t, string(body), `"status":"done"`)
}
