package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// HashChunkSize is the read size used when streaming file contents
const HashChunkSize = 8192

// Supported hash algorithms
const (
	HashMD5    = "md5"
	HashSHA256 = "sha256"
	HashBLAKE3 = "blake3"
)

// NewHasher returns a fresh digest for algo ("" means md5)
func NewHasher(algo string) (hash.Hash, error) {
	switch algo {
	case "", HashMD5:
		return md5.New(), nil
	case HashSHA256:
		return sha256.New(), nil
	case HashBLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// ValidHashAlgorithm reports whether NewHasher accepts algo
func ValidHashAlgorithm(algo string) bool {
	_, err := NewHasher(algo)
	return err == nil
}

// HashFile streams a file through algo in fixed-size chunks and returns the
// hex digest. Memory use does not depend on file size.
func HashFile(fs afero.Fs, path, algo string) (string, error) {
	h, err := NewHasher(algo)
	if err != nil {
		return "", err
	}

	file, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buf := make([]byte, HashChunkSize)
	if _, err := io.CopyBuffer(h, onlyReader{file}, buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// onlyReader hides WriterTo so io.CopyBuffer actually uses the chunk buffer
type onlyReader struct {
	r io.Reader
}

func (o onlyReader) Read(p []byte) (int, error) {
	return o.r.Read(p)
}
