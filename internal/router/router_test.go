package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteReturnsRegisteredBackend(t *testing.T) {
	r := New(map[string]string{"cloud_api": "cloud-backend"}, "cloud_api")
	got, err := r.Route("cloud_api")
	require.NoError(t, err)
	assert.Equal(t, "cloud-backend", got)
}

func TestRouteFallsBackToDefaultForUnknownEngine(t *testing.T) {
	r := New(map[string]string{"cloud_api": "cloud-backend"}, "cloud_api")
	got, err := r.Route("local_model")
	require.NoError(t, err)
	assert.Equal(t, "cloud-backend", got)
}

func TestRouteErrorsWhenNeitherEngineNorFallbackRegistered(t *testing.T) {
	r := New(map[string]string{}, "cloud_api")
	_, err := r.Route("local_model")
	assert.Error(t, err)
}

func TestHasReportsRegistration(t *testing.T) {
	r := New(map[string]string{"cloud_api": "x"}, "cloud_api")
	assert.True(t, r.Has("cloud_api"))
	assert.False(t, r.Has("local_model"))
}

func TestEnginesListsAllRegisteredNames(t *testing.T) {
	r := New(map[string]string{"a": "1", "b": "2"}, "a")
	assert.ElementsMatch(t, []string{"a", "b"}, r.Engines())
}
