package domain

// Document represents one logically-distinct unit of ingested content.
// It is the canonical representation after loading and text normalisation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// ExternalID is the original locator (file path or message id).
	ExternalID string

	// Title is the human-readable title, when one could be extracted.
	Title string

	// Author is the document author, when known.
	Author string

	// CreatedTS is the content creation time in epoch milliseconds.
	// Nil when the loader could not determine it.
	CreatedTS *int64

	// ModifiedTS is the content modification time in epoch milliseconds.
	ModifiedTS *int64

	// MIME is the content kind (e.g. "text/markdown").
	MIME string

	// SHA256 is the content hash used for deduplication. It is computed
	// over the raw bytes when present, else the UTF-8 text.
	SHA256 string

	// RawBytes holds the original bytes. May be nil for synthetic
	// content such as individual mailbox messages.
	RawBytes []byte

	// Text is the full normalised text. Chunk spans index into it.
	Text string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// SizeBytes is the size of the original content.
	SizeBytes int64

	// IsDeleted marks the document as soft-deleted. Deleted documents
	// do not participate in deduplication or retrieval.
	IsDeleted bool

	// CreatedAt is when the document row was first written, epoch ms.
	CreatedAt int64

	// UpdatedAt is when the document row was last updated, epoch ms.
	UpdatedAt int64
}

// Chunk represents a retrievable passage within a document.
// Documents are split into chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Ordinal is the zero-based position among siblings.
	Ordinal int

	// StartChar and EndChar form the half-open span [start, end) into
	// the document's normalised text that this chunk covers.
	StartChar int
	EndChar   int

	// Text is the passage text, equal to document text[StartChar:EndChar].
	Text string

	// TokenCount is the approximate token count of the passage.
	TokenCount int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the chunk row was written, epoch ms.
	CreatedAt int64
}

// Embedding is one dense vector attached to exactly one chunk for
// exactly one model identifier.
type Embedding struct {
	// ChunkID links to the embedded Chunk.
	ChunkID string

	// Model is the embedding model identifier.
	Model string

	// Dim is the vector dimensionality.
	Dim int

	// Vector is the little-endian float32 byte serialisation.
	Vector []byte

	// Style distinguishes dense vectors from future sparse ones.
	Style string

	// CreatedAt is when the embedding row was written, epoch ms.
	CreatedAt int64
}

// StyleDense is the only embedding style currently produced.
const StyleDense = "dense"
