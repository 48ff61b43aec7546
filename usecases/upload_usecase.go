package usecases

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories"
	"github.com/acme/product-importer/utils"
)

// UploadUseCase is the submission gateway: it accepts a CSV stream, makes it
// durable on disk, and enqueues the import in the same transaction that
// creates the job record. Either both exist afterwards or neither does.
type UploadUseCase struct {
	transactionFactory  transactionFactory
	importJobRepository repositories.ImportJobRepository
	taskQueueRepository repositories.TaskQueueRepository
	progressChannel     repositories.ProgressChannelRepository
	uploadDir           string
}

// SubmitCsv streams the upload to the spool directory and registers the
// import job. The returned job is in the queued state; everything after this
// point happens on the task queue.
func (uc UploadUseCase) SubmitCsv(ctx context.Context, fileName string, file io.Reader) (models.ImportJob, error) {
	if !strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return models.ImportJob{}, errors.Wrap(models.BadParameterError,
			"only .csv files are accepted")
	}

	jobId := uuid.NewString()
	filePath := filepath.Join(uc.uploadDir, jobId+".csv")

	if err := uc.spoolFile(filePath, file); err != nil {
		return models.ImportJob{}, err
	}

	job := models.ImportJob{
		Id:        jobId,
		FileName:  filepath.Base(fileName),
		FilePath:  filePath,
		Status:    models.ImportJobQueued,
		StartedAt: time.Now(),
	}

	err := uc.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		if err := uc.importJobRepository.CreateImportJob(ctx, tx, job); err != nil {
			return err
		}
		return uc.taskQueueRepository.EnqueueCsvImportTask(ctx, tx, jobId)
	})
	if err != nil {
		// no job record exists, so nothing will ever pick the file up
		if removeErr := os.Remove(filePath); removeErr != nil {
			logger := utils.LoggerFromContext(ctx)
			logger.WarnContext(ctx, "Could not delete spooled file after failed submission",
				"file_path", filePath, "error", removeErr.Error())
		}
		return models.ImportJob{}, err
	}

	return job, nil
}

func (uc UploadUseCase) spoolFile(filePath string, file io.Reader) error {
	if err := os.MkdirAll(uc.uploadDir, 0o755); err != nil {
		return errors.Wrap(err, "error creating upload directory")
	}
	out, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "error creating spool file")
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(filePath)
		return errors.Wrap(err, "error writing spool file")
	}
	if err := out.Close(); err != nil {
		os.Remove(filePath)
		return errors.Wrap(err, "error closing spool file")
	}
	return nil
}

func (uc UploadUseCase) GetImportJob(ctx context.Context, jobId string) (models.ImportJob, error) {
	return uc.importJobRepository.GetImportJobById(ctx, uc.transactionFactory.GetExecutor(), jobId)
}

// SubscribeToProgress opens a live event stream for the job. Subscribing to
// an unknown job id is rejected so clients fail fast instead of waiting on a
// channel nothing will ever publish to.
//
// The subscription is opened before the job record is read. A job reaching a
// terminal state in between is then always observable: an event published
// before the read shows up in the snapshot, one published after arrives on
// the channel.
func (uc UploadUseCase) SubscribeToProgress(
	ctx context.Context,
	jobId string,
) (models.ImportJob, <-chan models.ProgressEvent, func(), error) {
	events, cancel, err := uc.progressChannel.Subscribe(ctx, jobId)
	if err != nil {
		return models.ImportJob{}, nil, nil, err
	}
	job, err := uc.importJobRepository.GetImportJobById(ctx, uc.transactionFactory.GetExecutor(), jobId)
	if err != nil {
		cancel()
		return models.ImportJob{}, nil, nil, err
	}
	return job, events, cancel, nil
}
