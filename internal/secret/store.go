// Package secret keeps sensitive values encrypted at rest.
package secret

// SecretStore stores opaque secret values by key.
type SecretStore interface {
	// Set stores a secret value under the given key, replacing any previous value.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key. Missing keys are not an error.
	Delete(key string) error
}

// Blobs is raw named byte storage that an EncryptedStore seals values into.
// Read must return an error wrapping fs.ErrNotExist for unknown names.
type Blobs interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Delete(name string) error
}
