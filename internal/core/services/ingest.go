package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/recallhq/recall/internal/chunker"
	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/core/ports/driven"
	"github.com/recallhq/recall/internal/core/ports/driving"
	"github.com/recallhq/recall/internal/dedupe"
	"github.com/recallhq/recall/internal/embedding"
	"github.com/recallhq/recall/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.IngestService = (*Pipeline)(nil)

// Pipeline runs the ingest flow: load, dedupe, chunk, embed, persist,
// index. One call is one job; per-path failures are recorded in the
// report without aborting the batch.
type Pipeline struct {
	sourceStore driven.SourceStore
	docStore    driven.DocumentStore
	jobStore    driven.JobStore
	loaders     driven.LoaderRegistry
	chunker     *chunker.Chunker
	embedders   driven.EmbedderRegistry
	vectorIndex driven.VectorIndex

	// model is the embedding model identifier used for new embeddings.
	model string

	// includeGlob and excludeGlob are the default folder-walk patterns,
	// used when a source does not carry its own.
	includeGlob string
	excludeGlob string
}

// NewPipeline creates a new ingest pipeline.
func NewPipeline(
	sourceStore driven.SourceStore,
	docStore driven.DocumentStore,
	jobStore driven.JobStore,
	loaders driven.LoaderRegistry,
	chk *chunker.Chunker,
	embedders driven.EmbedderRegistry,
	vectorIndex driven.VectorIndex,
	model string,
) *Pipeline {
	return &Pipeline{
		sourceStore: sourceStore,
		docStore:    docStore,
		jobStore:    jobStore,
		loaders:     loaders,
		chunker:     chk,
		embedders:   embedders,
		vectorIndex: vectorIndex,
		model:       model,
	}
}

// SetFolderGlobs sets the default include/exclude patterns for folder
// sources that do not define their own.
func (p *Pipeline) SetFolderGlobs(include, exclude string) {
	p.includeGlob = include
	p.excludeGlob = exclude
}

// IngestPaths ingests an explicit list of filesystem paths. Each path
// gets a source record keyed by its file:// URI, created on first use.
func (p *Pipeline) IngestPaths(ctx context.Context, paths []string) (*domain.IngestReport, error) {
	job := domain.IngestJob{
		ID:        domain.NewID("job"),
		Status:    domain.JobRunning,
		StartedAt: domain.NowMS(),
	}
	if err := p.jobStore.StartJob(ctx, job); err != nil {
		return nil, fmt.Errorf("starting job: %w", err)
	}

	logger.Section("Ingest")
	logger.Debug("Job %s: %d path(s)", job.ID, len(paths))

	var results []domain.IngestResult
	var outerErr error
	for _, path := range paths {
		if outerErr = ctx.Err(); outerErr != nil {
			break
		}
		results = append(results, p.ingestPath(ctx, path)...)
	}

	return p.finishJob(ctx, job.ID, results, outerErr)
}

// IngestSources ingests the given sources, or every configured source
// when sourceIDs is empty.
func (p *Pipeline) IngestSources(ctx context.Context, sourceIDs []string) (*domain.IngestReport, error) {
	sources, err := p.resolveSources(ctx, sourceIDs)
	if err != nil {
		return nil, err
	}

	job := domain.IngestJob{
		ID:        domain.NewID("job"),
		Status:    domain.JobRunning,
		StartedAt: domain.NowMS(),
	}
	if len(sources) == 1 {
		job.SourceID = sources[0].ID
	}
	if err := p.jobStore.StartJob(ctx, job); err != nil {
		return nil, fmt.Errorf("starting job: %w", err)
	}

	logger.Section("Ingest")
	logger.Debug("Job %s: %d source(s)", job.ID, len(sources))

	var results []domain.IngestResult
	var outerErr error
	for _, source := range sources {
		if outerErr = ctx.Err(); outerErr != nil {
			break
		}
		// Failing to enumerate a source is an orchestration error,
		// not a per-path one: it aborts the job.
		paths, err := p.listFilesForSource(source)
		if err != nil {
			outerErr = fmt.Errorf("listing source %s: %w", source.ID, err)
			break
		}
		for _, path := range paths {
			results = append(results, p.ingestFile(ctx, source.ID, path)...)
		}
	}

	return p.finishJob(ctx, job.ID, results, outerErr)
}

// finishJob aggregates results, marks the job terminal and builds the
// report. Per-path failures still complete the job; failed is reserved
// for orchestration errors such as cancellation.
func (p *Pipeline) finishJob(ctx context.Context, jobID string, results []domain.IngestResult, outerErr error) (*domain.IngestReport, error) {
	var stats domain.IngestStats
	stats.Apply(results)

	status := domain.JobCompleted
	detail := ""
	if outerErr != nil {
		status = domain.JobFailed
		detail = outerErr.Error()
	}

	// The terminal state must be written even when ctx is cancelled.
	if err := p.jobStore.FinishJob(context.WithoutCancel(ctx), jobID, status, stats, detail); err != nil {
		return nil, fmt.Errorf("finishing job: %w", err)
	}

	logger.Debug("Job %s %s: %d processed, %d skipped, %d failed",
		jobID, status, stats.Processed, stats.Skipped, stats.Failed)

	report := &domain.IngestReport{
		JobID:   jobID,
		Stats:   stats,
		Results: results,
	}
	return report, outerErr
}

// ingestPath resolves (or creates) the source record for a standalone
// path, then ingests the file.
func (p *Pipeline) ingestPath(ctx context.Context, path string) []domain.IngestResult {
	source, err := p.ensureSourceForPath(ctx, path)
	if err != nil {
		return []domain.IngestResult{{
			Path:   path,
			Status: domain.IngestError,
			Detail: err.Error(),
		}}
	}
	return p.ingestFile(ctx, source.ID, path)
}

// ingestFile loads one file and ingests every document it yields.
func (p *Pipeline) ingestFile(ctx context.Context, sourceID, path string) []domain.IngestResult {
	loaded, err := p.loaders.Load(path)
	if err != nil {
		return []domain.IngestResult{{
			Path:   path,
			Status: domain.IngestError,
			Detail: err.Error(),
		}}
	}

	docs := make([]*domain.LoadedDocument, len(loaded))
	for i := range loaded {
		docs[i] = &loaded[i]
	}
	unique, hashes := dedupe.Documents(docs)

	results := make([]domain.IngestResult, 0, len(unique))
	for i, doc := range unique {
		results = append(results, p.ingestDocument(ctx, sourceID, doc, hashes[i]))
	}
	return results
}

// ingestDocument persists and indexes one deduplicated document.
func (p *Pipeline) ingestDocument(ctx context.Context, sourceID string, loaded *domain.LoadedDocument, hash string) domain.IngestResult {
	existing, err := p.docStore.FindByHash(ctx, hash)
	if err == nil {
		logger.Debug("Skipping %s: content already ingested as %s", loaded.Path, existing.ID)
		return domain.IngestResult{
			DocumentID: existing.ID,
			Path:       loaded.Path,
			Status:     domain.IngestSkipped,
			Detail:     "duplicate content",
		}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return errorResult(loaded.Path, fmt.Errorf("hash lookup: %w", err))
	}

	doc := buildDocument(sourceID, loaded, hash)

	passages := p.chunker.Split(doc.Text)
	if len(passages) == 0 {
		logger.Warn("No extractable text in %s", loaded.Path)
		return domain.IngestResult{
			Path:   loaded.Path,
			Status: domain.IngestSkipped,
			Detail: "no extractable text",
		}
	}

	now := domain.NowMS()
	chunks := make([]domain.Chunk, len(passages))
	texts := make([]string, len(passages))
	for i, passage := range passages {
		chunks[i] = domain.Chunk{
			ID:         domain.NewID("chk"),
			DocumentID: doc.ID,
			Ordinal:    i,
			StartChar:  passage.StartChar,
			EndChar:    passage.EndChar,
			Text:       passage.Text,
			TokenCount: passage.TokenCount,
			CreatedAt:  now,
		}
		texts[i] = passage.Text
	}

	embedder := p.embedders.Get(p.model)
	vectors, err := embedder.Encode(ctx, texts)
	if err != nil {
		return errorResult(loaded.Path, fmt.Errorf("embedding: %w", err))
	}

	embeddings := make([]domain.Embedding, len(chunks))
	chunkIDs := make([]string, len(chunks))
	for i, chunk := range chunks {
		embeddings[i] = domain.Embedding{
			ChunkID:   chunk.ID,
			Model:     embedder.Name(),
			Dim:       embedder.Dim(),
			Vector:    embedding.VectorBytes(vectors[i]),
			Style:     domain.StyleDense,
			CreatedAt: now,
		}
		chunkIDs[i] = chunk.ID
	}

	if err := p.docStore.SaveBundle(ctx, doc, chunks, embeddings); err != nil {
		return errorResult(loaded.Path, fmt.Errorf("persisting document: %w", err))
	}

	if err := p.vectorIndex.Upsert(chunkIDs, vectors); err != nil {
		return errorResult(loaded.Path, fmt.Errorf("indexing vectors: %w", err))
	}

	logger.Debug("Ingested %s as %s (%d chunks)", loaded.Path, doc.ID, len(chunks))
	return domain.IngestResult{
		DocumentID: doc.ID,
		Path:       loaded.Path,
		Status:     domain.IngestProcessed,
		Chunks:     len(chunks),
	}
}

// buildDocument maps a loaded document onto the persistence model.
// The loader metadata key "external_id" overrides the path locator,
// which mailbox loaders use to address individual messages.
func buildDocument(sourceID string, loaded *domain.LoadedDocument, hash string) *domain.Document {
	externalID := loaded.Path
	if v, ok := loaded.Metadata["external_id"].(string); ok && v != "" {
		externalID = v
	}

	now := domain.NowMS()
	return &domain.Document{
		ID:         domain.NewID("doc"),
		SourceID:   sourceID,
		ExternalID: externalID,
		Title:      loaded.Title,
		Author:     loaded.Author,
		CreatedTS:  loaded.CreatedTS,
		ModifiedTS: loaded.ModifiedTS,
		MIME:       loaded.MIME,
		SHA256:     hash,
		RawBytes:   loaded.RawBytes,
		Text:       loaded.Text,
		Metadata:   loaded.Metadata,
		SizeBytes:  loaded.SizeBytes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ensureSourceForPath returns the source registered for the path's
// file:// URI, creating one on first use.
func (p *Pipeline) ensureSourceForPath(ctx context.Context, path string) (*domain.Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	uri := "file://" + abs

	source, err := p.sourceStore.GetByURI(ctx, uri)
	if err == nil {
		return source, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("looking up source: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}

	kind := domain.SourceKindFile
	switch {
	case info.IsDir():
		kind = domain.SourceKindFolder
	case strings.EqualFold(filepath.Ext(abs), ".mbox"):
		kind = domain.SourceKindMailbox
	}

	created := domain.Source{
		ID:    domain.NewID("src"),
		Kind:  kind,
		URI:   uri,
		Label: filepath.Base(abs),
	}
	if err := p.sourceStore.Save(ctx, created); err != nil {
		return nil, fmt.Errorf("saving source: %w", err)
	}
	return &created, nil
}

// resolveSources loads the requested sources, or all when the list is
// empty.
func (p *Pipeline) resolveSources(ctx context.Context, sourceIDs []string) ([]domain.Source, error) {
	if len(sourceIDs) == 0 {
		sources, err := p.sourceStore.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing sources: %w", err)
		}
		return sources, nil
	}

	sources := make([]domain.Source, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		source, err := p.sourceStore.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", id, err)
		}
		sources = append(sources, *source)
	}
	return sources, nil
}

// listFilesForSource expands a source into concrete file paths.
// File and mailbox sources yield their single path; folder sources are
// walked with the include/exclude patterns applied to paths relative
// to the folder root.
func (p *Pipeline) listFilesForSource(source domain.Source) ([]string, error) {
	root, err := pathFromURI(source.URI)
	if err != nil {
		return nil, err
	}

	if source.Kind != domain.SourceKindFolder {
		return []string{root}, nil
	}

	include := source.IncludeGlob
	if include == "" {
		include = p.includeGlob
	}
	exclude := source.ExcludeGlob
	if exclude == "" {
		exclude = p.excludeGlob
	}
	includes := splitPatterns(include)
	excludes := splitPatterns(exclude)

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(includes) > 0 && !matchesAny(includes, rel) {
			return nil
		}
		if matchesAny(excludes, rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// pathFromURI converts a file:// URI back to a filesystem path. Other
// schemes are rejected.
func pathFromURI(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: invalid source URI %q", domain.ErrInvalidInput, uri)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("%w: unsupported source scheme %q", domain.ErrInvalidInput, parsed.Scheme)
	}
	path := parsed.Path
	if parsed.Host != "" {
		path = parsed.Host + path
	}
	if path == "" {
		return "", fmt.Errorf("%w: empty path in source URI %q", domain.ErrInvalidInput, uri)
	}
	return path, nil
}

// splitPatterns splits a comma-separated glob list, keeping commas
// inside brace alternations intact.
func splitPatterns(patterns string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(patterns); i++ {
		switch patterns[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if p := strings.TrimSpace(patterns[start:i]); p != "" {
					out = append(out, p)
				}
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(patterns[start:]); p != "" {
		out = append(out, p)
	}
	return out
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func errorResult(path string, err error) domain.IngestResult {
	return domain.IngestResult{
		Path:   path,
		Status: domain.IngestError,
		Detail: err.Error(),
	}
}
