package document

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the sha256 hex digest of the document's canonical JSON
// encoding. Map keys are sorted by encoding/json, so two semantically
// identical documents hash identically regardless of declaration order
// within mappings.
func Hash(doc *Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("hash document: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
