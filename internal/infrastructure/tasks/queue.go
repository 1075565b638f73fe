package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

// Publisher is satisfied by *helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Queue hands memory jobs to RabbitMQ for cmd/memory_worker. The publish
// itself runs on a Runner so a slow broker never holds the request.
type Queue struct {
	pub    Publisher
	runner application.Runner
}

func NewQueue(pub Publisher, runner application.Runner) *Queue {
	return &Queue{pub: pub, runner: runner}
}

func (q *Queue) Dispatch(job application.MemoryJob) {
	if q.pub == nil || q.runner == nil {
		return
	}
	q.runner.Go("publish."+job.Kind, func(ctx context.Context) error {
		return q.pub.PublishJSON(ctx, job)
	})
}

// MemoryConsumer decodes queued jobs and writes them. Undecodable messages
// and failed writes are dropped; embedding is best effort.
func MemoryConsumer(write JobHandler, logger *logrus.Logger) func(ctx context.Context, body []byte) error {
	return func(ctx context.Context, body []byte) error {
		var job application.MemoryJob
		if err := json.Unmarshal(body, &job); err != nil || job.ID == "" {
			if logger != nil {
				logger.WithField("bytes", len(body)).Warn("bad memory job")
			}
			return helpers.ErrDropMessage
		}
		if err := write(ctx, job); err != nil {
			if logger != nil {
				logger.WithError(err).WithFields(logrus.Fields{"id": job.ID, "kind": job.Kind}).Warn("memory write failed")
			}
			return fmt.Errorf("%w: %v", helpers.ErrDropMessage, err)
		}
		return nil
	}
}
