package domain

// Source kinds.
const (
	SourceKindFile    = "file"
	SourceKindFolder  = "folder"
	SourceKindMailbox = "mailbox"
)

// Source represents a configured local data source.
// Each source owns zero or more documents.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Kind is one of the SourceKind constants.
	Kind string

	// URI is the source location as a file:// URI.
	URI string

	// Label is the human-readable name, defaulting to the base name.
	Label string

	// IncludeGlob restricts folder sources to matching paths.
	// Comma-separated doublestar patterns; empty means everything.
	IncludeGlob string

	// ExcludeGlob removes matching paths from folder sources.
	ExcludeGlob string

	// CreatedAt is when the source was created, epoch ms.
	CreatedAt int64

	// UpdatedAt is when the source was last updated, epoch ms.
	UpdatedAt int64
}

// LoadedDocument is the loader boundary record: one extracted document
// before deduplication and persistence. A single path may yield several
// of these (e.g. one per mailbox message).
type LoadedDocument struct {
	// Path is the filesystem path the document was loaded from.
	Path string

	// Text is the normalised text content.
	Text string

	// RawBytes holds the original bytes when the document maps 1:1 to a
	// file. Nil for synthetic per-message documents.
	RawBytes []byte

	// Metadata contains loader-specific key-value pairs. The key
	// "external_id" overrides the document locator when present.
	Metadata map[string]any

	// MIME is the content kind.
	MIME string

	// Title and Author are optional extracted attributes.
	Title  string
	Author string

	// CreatedTS and ModifiedTS are epoch milliseconds, nil when unknown.
	CreatedTS  *int64
	ModifiedTS *int64

	// SizeBytes is the size of the original content.
	SizeBytes int64
}
