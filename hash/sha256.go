package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type sha256Hasher struct{}

// SHA256 returns a Hasher backed by SHA-256
func SHA256() Hasher {
	return &sha256Hasher{}
}

func (hasher *sha256Hasher) Bytes(b []byte) string {
	h := sha256.New()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

func (hasher *sha256Hasher) Object(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return hasher.Bytes(data), nil
}

func (hasher *sha256Hasher) String(s string) string {
	return hasher.Bytes([]byte(s))
}
