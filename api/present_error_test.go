package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/acme/product-importer/models"
)

func TestPresentError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		written    bool
		wantStatus int
	}{
		{
			name:    "nil error writes nothing",
			err:     nil,
			written: false,
		},
		{
			name:       "bad parameter",
			err:        errors.Wrap(models.BadParameterError, "sku is required"),
			written:    true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "schema mismatch is a bad parameter",
			err:        models.SchemaMismatchError,
			written:    true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found",
			err:        errors.Wrap(models.NotFoundError, "import job not found"),
			written:    true,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "conflict",
			err:        errors.Wrap(models.ConflictError, "sku already exists"),
			written:    true,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unexpected error is internal",
			err:        errors.New("pool exhausted"),
			written:    true,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

			written := presentError(c, tt.err)
			assert.Equal(t, tt.written, written)
			if tt.written {
				assert.Equal(t, tt.wantStatus, recorder.Code)
			}
		})
	}
}

func TestSnapshotEvent(t *testing.T) {
	detail := "boom"
	job := models.ImportJob{
		Id:            "7c70f1f4-39e7-4517-b70e-5e6a17d1a0dd",
		Status:        models.ImportJobFailed,
		TotalRows:     10,
		ProcessedRows: 4,
		RowsSkipped:   1,
		ErrorDetail:   &detail,
	}

	event := snapshotEvent(job)
	assert.Equal(t, job.Id, event.JobId)
	assert.Equal(t, "failed", event.Status)
	assert.Equal(t, "boom", event.ErrorDetail)
	assert.True(t, event.IsTerminal())

	job.Status = models.ImportJobDone
	job.ErrorDetail = nil
	event = snapshotEvent(job)
	assert.Equal(t, 1.0, event.Progress)
	assert.Empty(t, event.ErrorDetail)
}
