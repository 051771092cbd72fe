package indexer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"courserag/internal/docbuilder"
	"courserag/internal/domain"
	"courserag/internal/logger"
	"courserag/internal/sources"
)

// Run phases, in order. FAILED is reachable from any step.
const (
	PhaseFetchingCatalog   = "FETCHING_CATALOG"
	PhaseEnriching         = "ENRICHING"
	PhaseBuildingDocuments = "BUILDING_DOCUMENTS"
	PhaseEmbeddingBatches  = "EMBEDDING_BATCHES"
	PhaseUpserting         = "UPSERTING"
	PhaseComplete          = "COMPLETE"
	PhaseFailed            = "FAILED"
)

// Progress is one indexing progress event.
type Progress struct {
	Phase      string
	Processed  int
	Total      int
	ETASeconds float64
}

// ProgressFunc receives progress events during a run.
type ProgressFunc func(Progress)

// Report summarizes a completed (or partially completed) indexing run.
// Skipped and failed counts are always surfaced, never dropped.
type Report struct {
	Indexed        int
	SkippedInvalid int
	FailedBatches  int
	FailedSubjects []string
	Elapsed        time.Duration
}

// Options tunes a run.
type Options struct {
	BatchSize       int
	MaxBatchRetries int
	OnProgress      ProgressFunc
}

// Orchestrator rebuilds the vector index end to end: fetch catalog, attach
// enrichment, build documents, embed in batches, upsert. One run at a time;
// a concurrent attempt is rejected with ErrRunInProgress.
type Orchestrator struct {
	catalog         sources.CatalogSource
	descriptors     sources.DescriptorSource
	reviews         sources.ReviewSource
	builder         *docbuilder.Builder
	embedder        domain.Embedder
	store           domain.VectorStore
	log             *logger.Logger
	batchSize       int
	maxBatchRetries int
	onProgress      ProgressFunc

	running atomic.Bool
}

func New(
	catalog sources.CatalogSource,
	descriptors sources.DescriptorSource,
	reviews sources.ReviewSource,
	builder *docbuilder.Builder,
	embedder domain.Embedder,
	store domain.VectorStore,
	log *logger.Logger,
	opts Options,
) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxBatchRetries < 0 {
		opts.MaxBatchRetries = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		catalog:         catalog,
		descriptors:     descriptors,
		reviews:         reviews,
		builder:         builder,
		embedder:        embedder,
		store:           store,
		log:             log.With("component", "indexer"),
		batchSize:       opts.BatchSize,
		maxBatchRetries: opts.MaxBatchRetries,
		onProgress:      opts.OnProgress,
	}
}

// Run indexes all sections of the given subjects for one term. A failed
// subject or batch is recorded and the run continues; only an unusable index
// aborts the whole run. Cancellation is honored between batches: an in-flight
// provider call may complete, but no further batch starts.
func (o *Orchestrator) Run(ctx context.Context, term string, subjects []string, forceRefresh bool) (*Report, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, domain.ErrRunInProgress
	}
	defer o.running.Store(false)

	start := time.Now()
	report := &Report{}

	sections := o.fetchCatalog(ctx, term, subjects, forceRefresh, report)
	descriptors, reviews := o.enrich(ctx, sections)
	docs := o.buildDocuments(sections, descriptors, reviews, report)

	if err := o.store.Init(ctx, o.embedder.Dimension()); err != nil {
		o.emit(Progress{Phase: PhaseFailed})
		report.Elapsed = time.Since(start)
		return report, err
	}

	if err := o.indexBatches(ctx, docs, start, report); err != nil {
		o.emit(Progress{Phase: PhaseFailed, Processed: report.Indexed, Total: len(docs)})
		report.Elapsed = time.Since(start)
		return report, err
	}

	report.Elapsed = time.Since(start)
	o.emit(Progress{Phase: PhaseComplete, Processed: len(docs), Total: len(docs)})
	o.log.Info("indexing run complete",
		"indexed", report.Indexed,
		"skipped_invalid", report.SkippedInvalid,
		"failed_batches", report.FailedBatches,
		"failed_subjects", report.FailedSubjects,
		"elapsed", report.Elapsed,
	)
	return report, nil
}

func (o *Orchestrator) fetchCatalog(ctx context.Context, term string, subjects []string, forceRefresh bool, report *Report) []domain.Section {
	var sections []domain.Section
	for i, subject := range subjects {
		o.emit(Progress{Phase: PhaseFetchingCatalog, Processed: i, Total: len(subjects)})
		secs, err := o.catalog.FetchSections(ctx, term, subject, forceRefresh)
		if err != nil {
			// Partial success across subjects is acceptable.
			o.log.Warn("catalog fetch failed, continuing", "subject", subject, "term", term, "error", err)
			report.FailedSubjects = append(report.FailedSubjects, subject)
			continue
		}
		o.log.Info("fetched catalog", "subject", subject, "sections", len(secs))
		sections = append(sections, secs...)
	}
	return sections
}

type courseKey struct {
	subject string
	catalog string
}

// enrich fetches descriptor and review data once per unique course. A failed
// lookup downgrades to "enrichment absent" for that course.
func (o *Orchestrator) enrich(ctx context.Context, sections []domain.Section) (map[courseKey]*domain.CourseDescriptor, map[courseKey][]domain.ReviewAggregate) {
	var order []courseKey
	unique := make(map[courseKey]struct{})
	for _, sec := range sections {
		key := courseKey{subject: sec.Subject, catalog: sec.CatalogNumber}
		if _, ok := unique[key]; ok {
			continue
		}
		unique[key] = struct{}{}
		order = append(order, key)
	}

	descriptors := make(map[courseKey]*domain.CourseDescriptor, len(order))
	reviews := make(map[courseKey][]domain.ReviewAggregate, len(order))
	for i, key := range order {
		o.emit(Progress{Phase: PhaseEnriching, Processed: i, Total: len(order)})
		desc, err := o.descriptors.FetchDescriptor(ctx, key.subject, key.catalog)
		if err != nil {
			o.log.Debug("descriptor lookup failed", "subject", key.subject, "catalog_number", key.catalog, "error", err)
			desc = nil
		}
		descriptors[key] = desc

		revs, err := o.reviews.FetchReviews(ctx, key.subject, key.catalog)
		if err != nil {
			o.log.Debug("review lookup failed", "subject", key.subject, "catalog_number", key.catalog, "error", err)
			revs = nil
		}
		reviews[key] = revs
	}
	return descriptors, reviews
}

// buildDocuments builds one document per section, skipping records that fail
// identity validation and deduplicating ids within the run.
func (o *Orchestrator) buildDocuments(
	sections []domain.Section,
	descriptors map[courseKey]*domain.CourseDescriptor,
	reviews map[courseKey][]domain.ReviewAggregate,
	report *Report,
) []domain.IndexedDocument {
	var docs []domain.IndexedDocument
	seen := make(map[string]struct{}, len(sections))
	for i, sec := range sections {
		o.emit(Progress{Phase: PhaseBuildingDocuments, Processed: i, Total: len(sections)})
		key := courseKey{subject: sec.Subject, catalog: sec.CatalogNumber}
		doc, err := o.builder.Build(sec, descriptors[key], reviews[key])
		if err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				o.log.Warn("skipping invalid section", "error", err, "title", sec.Title)
				report.SkippedInvalid++
				continue
			}
			o.log.Warn("skipping section", "error", err)
			report.SkippedInvalid++
			continue
		}
		if _, dup := seen[doc.ID]; dup {
			continue
		}
		seen[doc.ID] = struct{}{}
		docs = append(docs, doc)
	}
	return docs
}

// indexBatches embeds and upserts documents batch by batch. A batch is
// retried with backoff up to the configured limit, then marked failed and the
// run moves on. Failure isolation is at batch granularity because embedding
// calls are batched.
func (o *Orchestrator) indexBatches(ctx context.Context, docs []domain.IndexedDocument, start time.Time, report *Report) error {
	totalBatches := (len(docs) + o.batchSize - 1) / o.batchSize
	batchStart := time.Now()
	for b := 0; b < totalBatches; b++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lo := b * o.batchSize
		hi := lo + o.batchSize
		if hi > len(docs) {
			hi = len(docs)
		}
		batch := docs[lo:hi]

		o.emit(Progress{Phase: PhaseEmbeddingBatches, Processed: lo, Total: len(docs), ETASeconds: o.eta(batchStart, b, totalBatches)})
		if err := o.indexOneBatch(ctx, batch); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			o.log.Error("batch failed after retries", "batch", b+1, "of", totalBatches, "error", err)
			report.FailedBatches++
			continue
		}
		report.Indexed += len(batch)
		o.emit(Progress{Phase: PhaseUpserting, Processed: hi, Total: len(docs), ETASeconds: o.eta(batchStart, b+1, totalBatches)})
	}
	return nil
}

func (o *Orchestrator) indexOneBatch(ctx context.Context, batch []domain.IndexedDocument) error {
	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.Text
	}
	var lastErr error
	for attempt := 0; attempt <= o.maxBatchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		vectors, err := o.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			lastErr = err
			continue
		}
		if len(vectors) != len(batch) {
			lastErr = errors.New("embedding count mismatch")
			continue
		}
		for i := range batch {
			batch[i].Vector = vectors[i]
		}
		if err := o.store.Upsert(ctx, batch); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (o *Orchestrator) eta(start time.Time, batchesDone, totalBatches int) float64 {
	if batchesDone == 0 {
		return 0
	}
	perBatch := time.Since(start) / time.Duration(batchesDone)
	return (time.Duration(totalBatches-batchesDone) * perBatch).Seconds()
}

func (o *Orchestrator) emit(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 500 * time.Millisecond
	d := base << attempt
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}
