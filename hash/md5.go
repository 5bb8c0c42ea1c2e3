package hash

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

type md5Hasher struct{}

// MD5 returns a Hasher backed by MD5. Used for attachment content
// identity only, never for anything security sensitive.
func MD5() Hasher {
	return &md5Hasher{}
}

func (hasher *md5Hasher) Bytes(b []byte) string {
	h := md5.New()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

func (hasher *md5Hasher) Object(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	return hasher.Bytes(data), nil
}

func (hasher *md5Hasher) String(s string) string {
	return hasher.Bytes([]byte(s))
}
