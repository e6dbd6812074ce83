// ABOUTME: In-memory registry of known documents and their verification status.
// ABOUTME: Seeded with the demo documents; read-only after construction.

package documents

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sort"

	"github.com/2389/docex-gateway/internal/api"
)

// Document statuses.
const (
	StatusVerified = "verified"
	StatusRevoked  = "revoked"
	StatusNotFound = "not_found"
)

// ErrNotFound is returned when a document ID is not in the registry.
var ErrNotFound = errors.New("document not found")

// Record is one registered document.
type Record struct {
	ID          string
	Status      string
	Description string
	VerifiedBy  string
}

// Registry is a fixed set of document records.
type Registry struct {
	records map[string]Record
}

// DefaultRecords returns the demo document set.
func DefaultRecords() []Record {
	return []Record{
		{ID: "DOC001", Status: StatusVerified, Description: "Contract Agreement 2024", VerifiedBy: "Agent B"},
		{ID: "DOC002", Status: StatusVerified, Description: "Financial Report Q4", VerifiedBy: "Agent B"},
		{ID: "DOC003", Status: StatusRevoked, Description: "Outdated Policy Document", VerifiedBy: "Agent B"},
	}
}

// NewRegistry builds a registry from records. Later duplicates replace earlier ones.
func NewRegistry(records []Record) *Registry {
	r := &Registry{records: make(map[string]Record, len(records))}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

// Lookup returns the record for id or ErrNotFound.
func (r *Registry) Lookup(id string) (Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns all records as listing entries, sorted by ID.
func (r *Registry) List() []api.DocumentInfo {
	docs := make([]api.DocumentInfo, 0, len(r.records))
	for _, rec := range r.records {
		docs = append(docs, api.DocumentInfo{
			DocumentID:  rec.ID,
			Status:      rec.Status,
			Description: rec.Description,
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].DocumentID < docs[j].DocumentID })
	return docs
}

// ContentHash returns the first 8 hex characters of the MD5 digest of content.
// It identifies a submission in results; it is not a security measure.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}
