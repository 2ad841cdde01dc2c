// File: internal/runner/batch.go
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tubepilot/internal/session"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

// batch describes how one job type flows through the shared loop.
type batch[J any] struct {
	kind string
	// tolerant batches record per-job failures and move on; the others abort.
	tolerant  bool
	validate  func(i int, job J) error
	target    func(J) string
	channel   func(J) string
	onSuccess func(J) func(schemas.Result) error
	run       func(ctx context.Context, page browser.Page, job J) (string, error)
}

// RunUploads publishes every job in order and returns the video links. The
// first failure aborts the batch and no partial list is returned.
func (r *Runner) RunUploads(ctx context.Context, creds schemas.Credentials, launch browser.LaunchOptions, jobs []schemas.UploadJob) ([]string, error) {
	results, err := runBatch(ctx, r, creds, launch, jobs, batch[schemas.UploadJob]{
		kind:      "upload",
		validate:  validateUpload,
		target:    func(j schemas.UploadJob) string { return j.Path },
		channel:   func(j schemas.UploadJob) string { return j.ChannelName },
		onSuccess: func(j schemas.UploadJob) func(schemas.Result) error { return j.OnSuccess },
		run:       r.procs.Upload,
	})
	if err != nil {
		return nil, err
	}
	links := make([]string, len(results))
	for i, res := range results {
		links[i] = res.Value
	}
	return links, nil
}

// RunEdits applies every edit job and returns one Result per job.
func (r *Runner) RunEdits(ctx context.Context, creds schemas.Credentials, launch browser.LaunchOptions, jobs []schemas.EditJob) ([]schemas.Result, error) {
	return runBatch(ctx, r, creds, launch, jobs, batch[schemas.EditJob]{
		kind:      "edit",
		tolerant:  true,
		validate:  validateEdit,
		target:    func(j schemas.EditJob) string { return j.Link },
		channel:   func(j schemas.EditJob) string { return j.ChannelName },
		onSuccess: func(j schemas.EditJob) func(schemas.Result) error { return j.OnSuccess },
		run:       r.procs.Edit,
	})
}

// RunComments posts every comment job and returns one Result per job.
func (r *Runner) RunComments(ctx context.Context, creds schemas.Credentials, launch browser.LaunchOptions, jobs []schemas.CommentJob) ([]schemas.Result, error) {
	return runBatch(ctx, r, creds, launch, jobs, batch[schemas.CommentJob]{
		kind:      "comment",
		tolerant:  true,
		validate:  validateComment,
		target:    func(j schemas.CommentJob) string { return j.Link },
		channel:   func(j schemas.CommentJob) string { return j.ChannelName },
		onSuccess: func(j schemas.CommentJob) func(schemas.Result) error { return j.OnSuccess },
		run:       r.procs.Comment,
	})
}

func runBatch[J any](ctx context.Context, r *Runner, creds schemas.Credentials, launch browser.LaunchOptions, jobs []J, b batch[J]) ([]schemas.Result, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}
	for i, job := range jobs {
		if err := b.validate(i, job); err != nil {
			return nil, err
		}
	}

	log := r.logger.With(
		zap.String("batch_id", uuid.NewString()),
		zap.String("kind", b.kind),
		zap.Int("jobs", len(jobs)),
	)
	log.Info("Starting batch")

	sess, err := r.Open(ctx, creds, launch)
	if err != nil {
		log.Error("Could not establish a session", zap.Error(err))
		return nil, err
	}
	defer r.Close(ctx, sess)
	sess.ResetChannel()

	results := make([]schemas.Result, 0, len(jobs))
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := runJob(ctx, r, sess, job, b)
		jobLog := log.With(zap.Int("index", i), zap.String("target", res.Target))
		r.metrics.recordJob(b.kind, res.Err)

		if res.Err != nil {
			jobLog.Error("Job failed", zap.Error(res.Err))
			r.transport.Error(fmt.Sprintf("%s %s failed: %v", b.kind, res.Target, res.Err))
			if !b.tolerant || aborts(ctx, res.Err) {
				return nil, res.Err
			}
			results = append(results, res)
			continue
		}

		jobLog.Info("Job finished", zap.String("value", res.Value))
		results = append(results, res)
		notify(jobLog, b.onSuccess(job), res)
	}
	log.Info("Batch finished", zap.Int("results", len(results)))
	return results, nil
}

func runJob[J any](ctx context.Context, r *Runner, sess *session.Session, job J, b batch[J]) schemas.Result {
	res := schemas.Result{Target: b.target(job)}
	if err := r.channels.Select(ctx, sess, b.channel(job)); err != nil {
		res.Err = err
		return res
	}
	res.Value, res.Err = b.run(ctx, sess.Page(), job)
	return res
}

// aborts reports whether a tolerant batch must still stop after err.
func aborts(ctx context.Context, err error) bool {
	return schemas.IsFatal(err) ||
		errors.Is(err, schemas.ErrSessionInvalid) ||
		ctx.Err() != nil
}

// notify runs a success callback. Errors and panics are downgraded to warnings.
func notify(log *zap.Logger, cb func(schemas.Result) error, res schemas.Result) {
	if cb == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.Warn("Success callback panicked", zap.Any("panic", p))
		}
	}()
	if err := cb(res); err != nil {
		log.Warn("Success callback failed", zap.Error(err))
	}
}
