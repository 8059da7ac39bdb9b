// Package dedupe computes content hashes for loaded documents and
// filters duplicates before they reach the store.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/recallhq/recall/internal/core/domain"
)

// DocumentHash returns the hex sha256 of a document's content. Raw
// bytes are preferred; text is hashed as UTF-8 when no raw payload is
// present.
func DocumentHash(raw []byte, text string) string {
	var sum [32]byte
	if len(raw) > 0 {
		sum = sha256.Sum256(raw)
	} else {
		sum = sha256.Sum256([]byte(text))
	}
	return hex.EncodeToString(sum[:])
}

// Documents drops later duplicates from a batch of loaded documents,
// keeping the first occurrence of each content hash. The returned
// hashes slice is parallel to the returned documents.
func Documents(docs []*domain.LoadedDocument) ([]*domain.LoadedDocument, []string) {
	seen := make(map[string]bool, len(docs))
	var unique []*domain.LoadedDocument
	var hashes []string
	for _, doc := range docs {
		h := DocumentHash(doc.RawBytes, doc.Text)
		if seen[h] {
			continue
		}
		seen[h] = true
		unique = append(unique, doc)
		hashes = append(hashes, h)
	}
	return unique, hashes
}
