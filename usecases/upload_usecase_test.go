package usecases

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/repositories"
)

func TestSubmitCsvCreatesJobAndEnqueues(t *testing.T) {
	jobs := newFakeImportJobRepository()
	queue := &fakeTaskQueueRepository{}
	usecase := UploadUseCase{
		transactionFactory:  fakeTransactionFactory{},
		importJobRepository: jobs,
		taskQueueRepository: queue,
		uploadDir:           t.TempDir(),
	}

	job, err := usecase.SubmitCsv(context.Background(), "products.csv",
		strings.NewReader("sku,name\nABC-1,Widget\n"))
	require.NoError(t, err)

	assert.Equal(t, models.ImportJobQueued, job.Status)
	assert.Equal(t, "products.csv", job.FileName)
	require.NoError(t, uuid.Validate(job.Id))

	// the file was spooled under the job id
	content, err := os.ReadFile(job.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "sku,name\nABC-1,Widget\n", string(content))

	// the job record and the queue entry were created together
	stored, err := jobs.GetImportJobById(context.Background(), nil, job.Id)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobQueued, stored.Status)
	assert.Equal(t, []string{job.Id}, queue.csvImportJobIds)
}

func TestSubmitCsvRejectsNonCsvFiles(t *testing.T) {
	usecase := UploadUseCase{
		transactionFactory:  fakeTransactionFactory{},
		importJobRepository: newFakeImportJobRepository(),
		taskQueueRepository: &fakeTaskQueueRepository{},
		uploadDir:           t.TempDir(),
	}

	for _, fileName := range []string{"products.xlsx", "products", "products.csv.zip"} {
		_, err := usecase.SubmitCsv(context.Background(), fileName, strings.NewReader("sku\n"))
		assert.ErrorIs(t, err, models.BadParameterError, "file %q", fileName)
	}

	// extension matching is case-insensitive
	_, err := usecase.SubmitCsv(context.Background(), "PRODUCTS.CSV", strings.NewReader("sku\n"))
	assert.NoError(t, err)
}

type failingEnqueueRepository struct {
	fakeTaskQueueRepository
}

func (r *failingEnqueueRepository) EnqueueCsvImportTask(ctx context.Context,
	tx repositories.Transaction, jobId string,
) error {
	return assert.AnError
}

func TestSubmitCsvCleansUpFileOnEnqueueFailure(t *testing.T) {
	uploadDir := t.TempDir()
	usecase := UploadUseCase{
		transactionFactory:  fakeTransactionFactory{},
		importJobRepository: newFakeImportJobRepository(),
		taskQueueRepository: &failingEnqueueRepository{},
		uploadDir:           uploadDir,
	}

	_, err := usecase.SubmitCsv(context.Background(), "products.csv", strings.NewReader("sku\n"))
	require.Error(t, err)

	// nothing is left in the spool directory
	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubscribeToProgressUnknownJob(t *testing.T) {
	usecase := UploadUseCase{
		transactionFactory:  fakeTransactionFactory{},
		importJobRepository: newFakeImportJobRepository(),
		progressChannel:     repositories.NewInmemProgressChannel(),
	}

	_, _, _, err := usecase.SubscribeToProgress(context.Background(), "dead-beef")
	assert.ErrorIs(t, err, models.NotFoundError)
}

// publishingJobRepository publishes the job's terminal event while the job
// record is being read, emulating a worker finishing between the status read
// and the caller consuming the channel.
type publishingJobRepository struct {
	*fakeImportJobRepository
	channel *repositories.InmemProgressChannel
}

func (r *publishingJobRepository) GetImportJobById(ctx context.Context, exec repositories.Executor,
	jobId string,
) (models.ImportJob, error) {
	job, err := r.fakeImportJobRepository.GetImportJobById(ctx, exec, jobId)
	if err != nil {
		return models.ImportJob{}, err
	}
	if publishErr := r.channel.Publish(ctx, models.ProgressEvent{
		JobId: jobId, Status: string(models.ImportJobDone), Progress: 1.0,
	}); publishErr != nil {
		return models.ImportJob{}, publishErr
	}
	return job, nil
}

func TestSubscribeToProgressSeesTerminalEventDuringSnapshotRead(t *testing.T) {
	job := models.ImportJob{Id: "7c70f1f4-39e7-4517-b70e-5e6a17d1a0dd", Status: models.ImportJobLoading}
	channel := repositories.NewInmemProgressChannel()
	usecase := UploadUseCase{
		transactionFactory: fakeTransactionFactory{},
		importJobRepository: &publishingJobRepository{
			fakeImportJobRepository: newFakeImportJobRepository(job),
			channel:                 channel,
		},
		progressChannel: channel,
	}

	got, events, cancel, err := usecase.SubscribeToProgress(context.Background(), job.Id)
	require.NoError(t, err)
	defer cancel()

	// the snapshot still says loading, so the terminal event must arrive on
	// the channel instead of being lost
	assert.Equal(t, models.ImportJobLoading, got.Status)
	event, open := <-events
	require.True(t, open)
	assert.Equal(t, string(models.ImportJobDone), event.Status)
	assert.True(t, event.IsTerminal())
}

func TestSubscribeToProgressKnownJob(t *testing.T) {
	job := models.ImportJob{Id: "7c70f1f4-39e7-4517-b70e-5e6a17d1a0dd", Status: models.ImportJobLoading}
	channel := repositories.NewInmemProgressChannel()
	usecase := UploadUseCase{
		transactionFactory:  fakeTransactionFactory{},
		importJobRepository: newFakeImportJobRepository(job),
		progressChannel:     channel,
	}

	got, events, cancel, err := usecase.SubscribeToProgress(context.Background(), job.Id)
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, job.Id, got.Id)

	require.NoError(t, channel.Publish(context.Background(), models.ProgressEvent{
		JobId: job.Id, Status: string(models.ImportJobLoading), Progress: 0.5,
	}))
	event := <-events
	assert.Equal(t, 0.5, event.Progress)
}
