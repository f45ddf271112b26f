package scheduler

import (
	"context"
	"time"

	"github.com/damon-houk/fxconvert/internal/infrastructure/middleware"
	"github.com/google/uuid"
)

// Importer loads the upstream feed into storage
type Importer interface {
	Import(ctx context.Context) (int, error)
}

// ImportJob runs a feed import with a deadline
type ImportJob struct {
	importer Importer
	timeout  time.Duration
}

// NewImportJob creates an import job; a non-positive timeout defaults to five minutes
func NewImportJob(importer Importer, timeout time.Duration) *ImportJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ImportJob{importer: importer, timeout: timeout}
}

func (j *ImportJob) Name() string {
	return "rate_import"
}

// Run imports the feed under its own request ID
func (j *ImportJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	ctx = middleware.WithRequestID(ctx, "import-"+uuid.New().String())
	_, err := j.importer.Import(ctx)
	return err
}
