package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acme/product-importer/dto"
	"github.com/acme/product-importer/models"
)

// handleUploadCsv accepts a multipart upload and submits it as an import job.
// The response returns immediately with the queued job, processing happens on
// the task queue.
func (api *API) handleUploadCsv(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing multipart field 'file'"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "could not read uploaded file"})
		return
	}
	defer file.Close()

	usecase := api.usecases.NewUploadUseCase()
	job, err := usecase.SubmitCsv(c.Request.Context(), fileHeader.Filename, file)
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job": dto.AdaptImportJobDto(job)})
}

func (api *API) handleGetImportJobStatus(c *gin.Context) {
	usecase := api.usecases.NewUploadUseCase()
	job, err := usecase.GetImportJob(c.Request.Context(), c.Param("job_id"))
	if presentError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": dto.AdaptImportJobDto(job)})
}

// handleImportJobProgress streams the job's progress events as server-sent
// events. A snapshot of the current job record is sent first, so a client
// connecting after the job finished still gets a terminal event before the
// stream closes.
func (api *API) handleImportJobProgress(c *gin.Context) {
	ctx := c.Request.Context()

	usecase := api.usecases.NewUploadUseCase()
	job, events, cancel, err := usecase.SubscribeToProgress(ctx, c.Param("job_id"))
	if presentError(c, err) {
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("progress", snapshotEvent(job))
	c.Writer.Flush()
	if job.Status.IsTerminal() {
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("progress", event)
			return !event.IsTerminal()
		case <-ctx.Done():
			return false
		}
	})
}

func snapshotEvent(job models.ImportJob) models.ProgressEvent {
	event := models.ProgressEvent{
		JobId:     job.Id,
		Status:    string(job.Status),
		Total:     job.TotalRows,
		Processed: job.ProcessedRows,
		Upserted:  job.RowsUpserted,
		Skipped:   job.RowsSkipped,
	}
	if job.ErrorDetail != nil {
		event.ErrorDetail = *job.ErrorDetail
	}
	if job.Status == models.ImportJobDone {
		event.Progress = 1.0
	}
	return event
}
