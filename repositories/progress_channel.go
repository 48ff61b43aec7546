package repositories

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"

	"github.com/acme/product-importer/models"
	"github.com/acme/product-importer/utils"
)

// ProgressChannelRepository is the broadcast channel carrying import progress
// from the worker to any number of live subscribers. Publication is
// fire-and-forget: nothing is buffered for subscribers that connect later,
// the import job record holds the authoritative final state.
type ProgressChannelRepository interface {
	// Publish delivers the event to every current subscriber of the event's
	// job. It never blocks on slow consumers.
	Publish(ctx context.Context, event models.ProgressEvent) error
	// Subscribe returns a channel of this job's events published from now
	// on. The channel is closed after a terminal event or when cancel is
	// called; cancel is safe to call more than once.
	Subscribe(ctx context.Context, jobId string) (<-chan models.ProgressEvent, func(), error)
}

func progressChannelName(jobId string) string {
	return "job:" + jobId
}

// RedisProgressChannel broadcasts events over redis Pub/Sub, which makes the
// channel work across processes: the worker publishing an event and the API
// process streaming it to a client need not share memory.
type RedisProgressChannel struct {
	client *redis.Client
}

func NewRedisProgressChannel(client *redis.Client) RedisProgressChannel {
	return RedisProgressChannel{client: client}
}

func (r RedisProgressChannel) Publish(ctx context.Context, event models.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "error marshalling progress event")
	}
	err = r.client.Publish(ctx, progressChannelName(event.JobId), payload).Err()
	return errors.Wrap(err, "error publishing progress event")
}

func (r RedisProgressChannel) Subscribe(
	ctx context.Context,
	jobId string,
) (<-chan models.ProgressEvent, func(), error) {
	pubsub := r.client.Subscribe(ctx, progressChannelName(jobId))
	// force the subscription to be established before events start flowing
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, errors.Wrap(err, "error subscribing to progress channel")
	}

	out := make(chan models.ProgressEvent)
	go func() {
		defer close(out)
		logger := utils.LoggerFromContext(ctx)
		for msg := range pubsub.Channel() {
			var event models.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.WarnContext(ctx, "Dropping malformed progress event",
					"job_id", jobId, "error", err.Error())
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
			if event.IsTerminal() {
				pubsub.Close()
				return
			}
		}
	}()

	cancel := func() { pubsub.Close() }
	return out, cancel, nil
}
