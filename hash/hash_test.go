package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256(t *testing.T) {
	// echo -n "1234" | shasum -a 256
	// 03ac674216f3e15c761ee1a5e255f067953623c8b388b4459e13f978d7c846f4

	expected := "03ac674216f3e15c761ee1a5e255f067953623c8b388b4459e13f978d7c846f4"

	h := SHA256()

	require.Equal(t, expected, h.String("1234"))
	require.Equal(t, expected, h.Bytes([]byte("1234")))

	value, err := h.Object(1234)
	require.Nil(t, err)
	require.Equal(t, expected, value)
}

func TestMD5(t *testing.T) {
	// echo -n "1234" | md5sum
	// 81dc9bdb52d04dc20036dbd8313ed055

	expected := "81dc9bdb52d04dc20036dbd8313ed055"

	h := MD5()

	require.Equal(t, expected, h.String("1234"))
	require.Equal(t, expected, h.Bytes([]byte("1234")))
}

func TestMD5Deterministic(t *testing.T) {
	h := MD5()
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	require.Equal(t, h.Bytes(payload), h.Bytes(payload))
}
