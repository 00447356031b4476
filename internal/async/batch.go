package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/pipeline"
)

// ErrBatchCancelled settles documents that had not started when the batch context ended.
var ErrBatchCancelled = errors.New("batch cancelled")

// Extractor runs one document through the extraction pipeline.
type Extractor interface {
	Extract(ctx context.Context, doc entity.Document, tpl *entity.Template, opts pipeline.ExtractOptions) (*pipeline.Outcome, error)
}

// StatusEvent is emitted on every status transition of a document in a batch.
type StatusEvent struct {
	Index     int                     `json:"index"`
	FileName  string                  `json:"file_name"`
	Status    constants.ResultStatus  `json:"status"`
	Result    entity.ExtractionResult `json:"result"`
	Completed int                     `json:"completed"`
	Total     int                     `json:"total"`
}

// Observer receives status events. Calls are serialized.
type Observer func(StatusEvent)

type BatchRunner struct {
	extractor   Extractor
	logger      *slog.Logger
	concurrency int
	timeout     time.Duration
	observer    Observer
	extractOpts pipeline.ExtractOptions
}

type Option func(*BatchRunner)

// WithConcurrency bounds the number of documents processed at once.
func WithConcurrency(n int) Option {
	return func(r *BatchRunner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithDocumentTimeout caps each document's processing time. Zero leaves the
// bound to the model client.
func WithDocumentTimeout(d time.Duration) Option {
	return func(r *BatchRunner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *BatchRunner) {
		r.observer = o
	}
}

func WithExtractOptions(opts pipeline.ExtractOptions) Option {
	return func(r *BatchRunner) {
		r.extractOpts = opts
	}
}

func NewBatchRunner(extractor Extractor, logger *slog.Logger, opts ...Option) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &BatchRunner{
		extractor:   extractor,
		logger:      logger,
		concurrency: constants.DefaultBatchConcurrency,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run extracts every document with tpl and returns one settled result per
// document, in input order. Per-call options override the runner's.
//
// A failing document never stops the batch. When ctx ends, documents already
// processing run to completion and the rest are settled with ErrBatchCancelled.
func (r *BatchRunner) Run(ctx context.Context, docs []entity.Document, tpl *entity.Template, opts ...Option) []entity.ExtractionResult {
	run := *r
	for _, o := range opts {
		o(&run)
	}
	return run.run(ctx, docs, tpl)
}

func (r *BatchRunner) run(ctx context.Context, docs []entity.Document, tpl *entity.Template) []entity.ExtractionResult {
	logger := common.LoggerFrom(ctx, r.logger).With("template_id", tpl.ID)
	start := time.Now()
	total := len(docs)

	results := make([]entity.ExtractionResult, total)
	for i, d := range docs {
		results[i] = entity.NewExtractionResult(d.FileName)
	}

	var (
		mu        sync.Mutex
		completed atomic.Int64
	)
	emit := func(i int, settled bool) {
		mu.Lock()
		defer mu.Unlock()
		n := completed.Load()
		if settled {
			n = completed.Add(1)
		}
		if r.observer != nil {
			r.observer(StatusEvent{
				Index:     i,
				FileName:  results[i].FileName,
				Status:    results[i].Status,
				Result:    results[i],
				Completed: int(n),
				Total:     total,
			})
		}
	}

	logger.Info("batch.start", "documents", total, "concurrency", r.concurrency)
	for i := range results {
		emit(i, false)
	}

	// in-flight documents keep the caller's values but not its cancellation
	detached := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range docs {
		g.Go(func() error {
			res := &results[i]
			if ctx.Err() != nil {
				_ = res.Fail(ErrBatchCancelled)
				emit(i, true)
				return nil
			}

			_ = res.Start()
			emit(i, false)

			out, err := r.extractOne(detached, docs[i], tpl)
			if err != nil {
				logger.Warn("batch.document.failed", "index", i, "file", docs[i].FileName, "error", err)
				_ = res.Fail(err)
			} else {
				_ = res.Succeed(out.Data, out.Validation, out.Warnings)
				res.PromptVersion = out.PromptVersion
				res.Duration = out.Duration
			}
			emit(i, true)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, res := range results {
		if res.Status == constants.ResultStatusError {
			failed++
		}
	}
	logger.Info("batch.done",
		"documents", total,
		"succeeded", total-failed,
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results
}

func (r *BatchRunner) extractOne(ctx context.Context, doc entity.Document, tpl *entity.Template) (out *pipeline.Outcome, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("extract %q: panic: %v", doc.FileName, p)
		}
	}()
	return r.extractor.Extract(ctx, doc, tpl, r.extractOpts)
}
