package secret

import (
	"errors"
	"fmt"
	"io/fs"
)

// EncryptedStore implements SecretStore on top of Blobs, sealing every
// value with an Encryptor. Each key becomes one blob named "<key>.enc".
type EncryptedStore struct {
	blobs Blobs
	enc   *Encryptor
}

// NewEncryptedStore creates an EncryptedStore.
func NewEncryptedStore(blobs Blobs, enc *Encryptor) *EncryptedStore {
	return &EncryptedStore{blobs: blobs, enc: enc}
}

func blobName(key string) string { return key + ".enc" }

func (s *EncryptedStore) Set(key string, value []byte) error {
	sealed, err := s.enc.Seal(value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	if err := s.blobs.Write(blobName(key), sealed); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *EncryptedStore) Get(key string) ([]byte, error) {
	sealed, err := s.blobs.Read(blobName(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	plain, err := s.enc.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return plain, nil
}

func (s *EncryptedStore) Delete(key string) error {
	err := s.blobs.Delete(blobName(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
