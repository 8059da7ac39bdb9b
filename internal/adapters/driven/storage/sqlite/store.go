package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/recallhq/recall/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to all
// metadata store interfaces through wrapper types. It is the single
// source of truth; the vector index is rebuilt from it on startup.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.recall.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".recall")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "recall.db")

	// WAL keeps readers unblocked while ingest writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// JobStore returns a JobStore interface backed by this store.
func (s *Store) JobStore() driven.JobStore {
	return &jobStore{store: s}
}

// QueryStore returns a QueryStore interface backed by this store.
func (s *Store) QueryStore() driven.QueryStore {
	return &queryStore{store: s}
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &documentStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// Save stores or updates a source.
func (s *sourceStore) Save(ctx context.Context, source domain.Source) error {
	now := domain.NowMS()
	if source.CreatedAt == 0 {
		source.CreatedAt = now
	}
	source.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (id, kind, uri, label, include_glob, exclude_glob, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			uri = excluded.uri,
			label = excluded.label,
			include_glob = excluded.include_glob,
			exclude_glob = excluded.exclude_glob,
			updated_at = excluded.updated_at
	`, source.ID, source.Kind, source.URI, nullString(source.Label),
		nullString(source.IncludeGlob), nullString(source.ExcludeGlob),
		source.CreatedAt, source.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// Get retrieves a source by ID.
func (s *sourceStore) Get(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, kind, uri, label, include_glob, exclude_glob, created_at, updated_at
		FROM sources WHERE id = ?
	`, id)
	return scanSource(row)
}

// GetByURI retrieves a source by its URI.
func (s *sourceStore) GetByURI(ctx context.Context, uri string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, kind, uri, label, include_glob, exclude_glob, created_at, updated_at
		FROM sources WHERE uri = ?
	`, uri)
	return scanSource(row)
}

// List returns all configured sources.
func (s *sourceStore) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, kind, uri, label, include_glob, exclude_glob, created_at, updated_at
		FROM sources ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		var source domain.Source
		var label, includeGlob, excludeGlob sql.NullString
		if err := rows.Scan(&source.ID, &source.Kind, &source.URI, &label,
			&includeGlob, &excludeGlob, &source.CreatedAt, &source.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		source.Label = label.String
		source.IncludeGlob = includeGlob.String
		source.ExcludeGlob = excludeGlob.String
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// Delete removes a source and, via cascade, its documents.
func (s *sourceStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	return nil
}

// scanSource scans a single source row.
func scanSource(row *sql.Row) (*domain.Source, error) {
	var source domain.Source
	var label, includeGlob, excludeGlob sql.NullString
	if err := row.Scan(&source.ID, &source.Kind, &source.URI, &label,
		&includeGlob, &excludeGlob, &source.CreatedAt, &source.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	source.Label = label.String
	source.IncludeGlob = includeGlob.String
	source.ExcludeGlob = excludeGlob.String
	return &source, nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore and driven.EmbeddingStore.
type documentStore struct {
	store *Store
}

var (
	_ driven.DocumentStore  = (*documentStore)(nil)
	_ driven.EmbeddingStore = (*documentStore)(nil)
)

// SaveBundle stores a document with its chunks and embeddings in one
// transaction.
func (s *documentStore) SaveBundle(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, embeddings []domain.Embedding) error {
	metaJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling document metadata: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (
			id, source_id, external_id, title, author, created_ts, modified_ts,
			mime, sha256, raw_bytes, text, meta_json, size_bytes, is_deleted,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourceID, doc.ExternalID, nullString(doc.Title), nullString(doc.Author),
		nullInt64(doc.CreatedTS), nullInt64(doc.ModifiedTS), nullString(doc.MIME),
		doc.SHA256, doc.RawBytes, doc.Text, string(metaJSON), doc.SizeBytes,
		boolToInt(doc.IsDeleted), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, ordinal, start_char, end_char, text, token_count, meta_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer chunkStmt.Close()

	for _, chunk := range chunks {
		chunkMeta, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := chunkStmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Ordinal,
			chunk.StartChar, chunk.EndChar, chunk.Text, chunk.TokenCount,
			string(chunkMeta), chunk.CreatedAt); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	embStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (chunk_id, model, dim, vector, style, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id, model) DO UPDATE SET
			dim = excluded.dim,
			vector = excluded.vector,
			style = excluded.style
	`)
	if err != nil {
		return fmt.Errorf("preparing embedding statement: %w", err)
	}
	defer embStmt.Close()

	for _, emb := range embeddings {
		if _, err := embStmt.ExecContext(ctx, emb.ChunkID, emb.Model, emb.Dim,
			emb.Vector, emb.Style, emb.CreatedAt); err != nil {
			return fmt.Errorf("saving embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FindByHash returns the non-deleted document with the given content hash.
func (s *documentStore) FindByHash(ctx context.Context, sha256 string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, external_id, title, author, created_ts, modified_ts,
		       mime, sha256, raw_bytes, text, meta_json, size_bytes, is_deleted,
		       created_at, updated_at
		FROM documents WHERE sha256 = ? AND is_deleted = 0
		ORDER BY created_at LIMIT 1
	`, sha256)
	return scanDocument(row)
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, external_id, title, author, created_ts, modified_ts,
		       mime, sha256, raw_bytes, text, meta_json, size_bytes, is_deleted,
		       created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// DeleteDocument soft-deletes a document. The row stays for audit, but
// its hash stops blocking re-ingest and its chunks stop hydrating.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0",
		domain.NowMS(), id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetChunks retrieves all chunks for a document, ordered by ordinal.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, ordinal, start_char, end_char, text, token_count, meta_json, created_at
		FROM chunks WHERE document_id = ?
		ORDER BY ordinal
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var metaJSON sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal,
			&chunk.StartChar, &chunk.EndChar, &chunk.Text, &chunk.TokenCount,
			&metaJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if metaJSON.Valid && metaJSON.String != jsonNull && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetCandidates hydrates chunk IDs into retrieval candidates by joining
// chunks with their documents and sources.
func (s *documentStore) GetCandidates(ctx context.Context, chunkIDs []string) (map[string]*domain.Candidate, error) {
	if len(chunkIDs) == 0 {
		return map[string]*domain.Candidate{}, nil
	}

	placeholders := strings.Repeat("?,", len(chunkIDs)-1) + "?"
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}

	rows, err := s.store.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			chunks.id,
			chunks.document_id,
			chunks.text,
			chunks.start_char,
			chunks.end_char,
			chunks.meta_json,
			documents.source_id,
			documents.external_id,
			documents.meta_json,
			sources.uri
		FROM chunks
		JOIN documents ON documents.id = chunks.document_id
		JOIN sources ON sources.id = documents.source_id
		WHERE chunks.id IN (%s) AND documents.is_deleted = 0
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	candidates := make(map[string]*domain.Candidate)
	for rows.Next() {
		var c domain.Candidate
		var chunkMeta, docMeta sql.NullString
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.Text, &c.StartChar, &c.EndChar,
			&chunkMeta, &c.SourceID, &c.ExternalID, &docMeta, &c.URI); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}

		meta := make(map[string]any)
		if chunkMeta.Valid && chunkMeta.String != "" && chunkMeta.String != jsonNull {
			if err := json.Unmarshal([]byte(chunkMeta.String), &meta); err != nil {
				return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
			}
		}
		if docMeta.Valid && docMeta.String != "" && docMeta.String != jsonNull {
			var dm map[string]any
			if err := json.Unmarshal([]byte(docMeta.String), &dm); err != nil {
				return nil, fmt.Errorf("unmarshalling document metadata: %w", err)
			}
			if _, ok := meta["document"]; !ok {
				meta["document"] = dm
			}
		}
		meta["uri"] = c.URI
		c.Meta = meta

		candidates[c.ChunkID] = &c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}

	return candidates, nil
}

// DocumentIDsWithAllTags returns the subset of docIDs carrying every tag.
func (s *documentStore) DocumentIDsWithAllTags(ctx context.Context, docIDs []string, tags []string) (map[string]bool, error) {
	if len(docIDs) == 0 || len(tags) == 0 {
		return map[string]bool{}, nil
	}

	tagPlaceholders := strings.Repeat("?,", len(tags)-1) + "?"
	docPlaceholders := strings.Repeat("?,", len(docIDs)-1) + "?"
	args := make([]any, 0, len(tags)+len(docIDs))
	for _, tag := range tags {
		args = append(args, tag)
	}
	for _, id := range docIDs {
		args = append(args, id)
	}

	rows, err := s.store.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT document_id, COUNT(DISTINCT tags.label) AS tag_count
		FROM document_tags
		JOIN tags ON tags.id = document_tags.tag_id
		WHERE tags.label IN (%s) AND document_id IN (%s)
		GROUP BY document_id
	`, tagPlaceholders, docPlaceholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying document tags: %w", err)
	}
	defer rows.Close()

	allowed := make(map[string]bool)
	for rows.Next() {
		var docID string
		var count int
		if err := rows.Scan(&docID, &count); err != nil {
			return nil, fmt.Errorf("scanning document tags: %w", err)
		}
		if count >= len(tags) {
			allowed[docID] = true
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document tags: %w", err)
	}

	return allowed, nil
}

// AddTags attaches labels to a document, creating tag rows as needed.
func (s *documentStore) AddTags(ctx context.Context, documentID string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (id, label) VALUES (?, ?) ON CONFLICT(label) DO NOTHING",
			domain.NewID("tag"), label); err != nil {
			return fmt.Errorf("saving tag: %w", err)
		}

		var tagID string
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM tags WHERE label = ?", label).Scan(&tagID); err != nil {
			return fmt.Errorf("looking up tag: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO document_tags (document_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			documentID, tagID); err != nil {
			return fmt.Errorf("attaching tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListEmbeddings returns all embeddings for a model identifier.
func (s *documentStore) ListEmbeddings(ctx context.Context, model string) ([]domain.Embedding, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, model, dim, vector, style, created_at
		FROM embeddings WHERE model = ?
	`, model)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var embeddings []domain.Embedding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var emb domain.Embedding
		if err := rows.Scan(&emb.ChunkID, &emb.Model, &emb.Dim, &emb.Vector,
			&emb.Style, &emb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		embeddings = append(embeddings, emb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return embeddings, nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var title, author, mime, metaJSON sql.NullString
	var createdTS, modifiedTS sql.NullInt64
	var isDeleted int

	if err := row.Scan(&doc.ID, &doc.SourceID, &doc.ExternalID, &title, &author,
		&createdTS, &modifiedTS, &mime, &doc.SHA256, &doc.RawBytes, &doc.Text,
		&metaJSON, &doc.SizeBytes, &isDeleted, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Title = title.String
	doc.Author = author.String
	doc.MIME = mime.String
	doc.IsDeleted = isDeleted != 0
	if createdTS.Valid {
		doc.CreatedTS = &createdTS.Int64
	}
	if modifiedTS.Valid {
		doc.ModifiedTS = &modifiedTS.Int64
	}
	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != jsonNull {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling document metadata: %w", err)
		}
	}

	return &doc, nil
}

// ==================== Job Store ====================

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// jobPayload is the stats_json column shape.
type jobPayload struct {
	Detail string             `json:"detail,omitempty"`
	Stats  domain.IngestStats `json:"stats"`
}

// StartJob inserts a new job in the running state.
func (s *jobStore) StartJob(ctx context.Context, job domain.IngestJob) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_jobs (id, source_id, status, started_at)
		VALUES (?, ?, ?, ?)
	`, job.ID, nullString(job.SourceID), string(domain.JobRunning), job.StartedAt)
	if err != nil {
		return fmt.Errorf("starting job: %w", err)
	}
	return nil
}

// FinishJob marks a job terminal with its final stats and detail.
func (s *jobStore) FinishJob(ctx context.Context, id string, status domain.JobStatus, stats domain.IngestStats, detail string) error {
	payload, err := json.Marshal(jobPayload{Detail: detail, Stats: stats})
	if err != nil {
		return fmt.Errorf("marshalling job stats: %w", err)
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE ingest_jobs SET finished_at = ?, status = ?, stats_json = ? WHERE id = ?
	`, domain.NowMS(), string(status), string(payload), id)
	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking job update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *jobStore) GetJob(ctx context.Context, id string) (*domain.IngestJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, status, started_at, finished_at, stats_json
		FROM ingest_jobs WHERE id = ?
	`, id)

	var job domain.IngestJob
	var sourceID, statsJSON sql.NullString
	var finishedAt sql.NullInt64
	var status string
	if err := row.Scan(&job.ID, &sourceID, &status, &job.StartedAt, &finishedAt, &statsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.SourceID = sourceID.String
	job.Status = domain.JobStatus(status)
	job.FinishedAt = finishedAt.Int64
	if statsJSON.Valid && statsJSON.String != "" {
		var payload jobPayload
		if err := json.Unmarshal([]byte(statsJSON.String), &payload); err != nil {
			return nil, fmt.Errorf("unmarshalling job stats: %w", err)
		}
		job.Stats = payload.Stats
		job.Detail = payload.Detail
	}

	return &job, nil
}

// ==================== Query Store ====================

// queryStore implements driven.QueryStore.
type queryStore struct {
	store *Store
}

var _ driven.QueryStore = (*queryStore)(nil)

// SaveQueryRecord stores a query and its ordered results in one
// transaction.
func (s *queryStore) SaveQueryRecord(ctx context.Context, query domain.Query, results []domain.QueryResult) error {
	filtersJSON, err := json.Marshal(query.Filters)
	if err != nil {
		return fmt.Errorf("marshalling filters: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO queries (id, query, filters_json, rerank_enabled, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, query.ID, query.Text, string(filtersJSON), boolToInt(query.Reranked), query.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving query: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO query_results (id, query_id, chunk_id, rank, score, provenance_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing result statement: %w", err)
	}
	defer stmt.Close()

	for rank, result := range results {
		provJSON, err := json.Marshal(result.Provenance)
		if err != nil {
			return fmt.Errorf("marshalling provenance: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, domain.NewID("res"), query.ID, result.ChunkID,
			rank, result.Score, string(provJSON), query.CreatedAt); err != nil {
			return fmt.Errorf("saving query result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetQueryResults replays the persisted results for a prior query.
func (s *queryStore) GetQueryResults(ctx context.Context, queryID string) ([]domain.QueryResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT
			qr.chunk_id,
			qr.score,
			qr.provenance_json,
			chunks.text,
			chunks.start_char,
			chunks.end_char,
			chunks.document_id
		FROM query_results qr
		JOIN chunks ON chunks.id = qr.chunk_id
		WHERE qr.query_id = ?
		ORDER BY qr.rank ASC
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []domain.QueryResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var result domain.QueryResult
		var provJSON sql.NullString
		if err := rows.Scan(&result.ChunkID, &result.Score, &provJSON,
			&result.Text, &result.StartChar, &result.EndChar, &result.DocumentID); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if provJSON.Valid && provJSON.String != "" && provJSON.String != jsonNull {
			if err := json.Unmarshal([]byte(provJSON.String), &result.Provenance); err != nil {
				return nil, fmt.Errorf("unmarshalling provenance: %w", err)
			}
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}

	// Unknown query IDs and queries that returned nothing are the
	// same not-found condition to callers.
	if len(results) == 0 {
		return nil, domain.ErrNotFound
	}

	return results, nil
}

// ==================== Helper Functions ====================

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// nullString maps empty strings to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullInt64 maps nil pointers to SQL NULL.
func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
