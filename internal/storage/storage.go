// Package storage is the durable key-value medium behind the storefront
// state stores. Each store serializes its whole state as one document
// under one key and writes it through on every mutation. Stores see
// only the Adapter contract, so the medium is swappable without
// touching store logic.
package storage

// Adapter is the narrow load/save contract the stores depend on.
type Adapter interface {
	// Load returns the document stored under key. The second return is
	// false when no record exists; that is not an error.
	Load(key string) ([]byte, bool, error)
	Save(key string, doc []byte) error
	// Delete erases the record entirely, so a later Load reports
	// absence. Deleting an absent key is a no-op.
	Delete(key string) error
	Ping() error
}
