package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointURL(t *testing.T) {
	s := &Settings{URL: "https://svc.example.com"}
	require.Equal(t, "https://svc.example.com/api/plugin/rename", s.EndpointURL(Rename))

	s.URL = "https://svc.example.com//"
	require.Equal(t, "https://svc.example.com/api/plugin/rename", s.EndpointURL(Rename))
}

func TestValidate(t *testing.T) {
	s := Defaults()
	require.NotNil(t, s.Validate())
	assert.False(t, s.Valid())

	s.URL = "https://svc.example.com"
	s.APIKey = "key"
	require.NotNil(t, s.Validate())

	s.APISecret = "secret"
	require.Nil(t, s.Validate())
	assert.True(t, s.Valid())
}

func TestDefaults(t *testing.T) {
	s := Defaults()
	assert.Equal(t, ProtocolFlat, s.Protocol)
	assert.Equal(t, 3*time.Second, s.RenameInterval)
	assert.Equal(t, 3*time.Second, s.RemoveInterval)
	assert.Equal(t, 300*time.Millisecond, s.BatchDelay)
}
