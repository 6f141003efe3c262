package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"covidexport/pkg/controller"
)

func newArtifactsHandler() http.Handler {
	return controller.ArtifactsHandler("/v1/", fstest.MapFS{
		"countries.json":       {Data: []byte(`{"FRA":{}}`)},
		"FRA.json":             {Data: []byte(`[]`)},
		".FRA.json.123.tmp":    {Data: []byte(`[`)},
		"nested/something.txt": {Data: []byte(`x`)},
	})
}

func TestArtifactsHandler_ServesArtifact(t *testing.T) {
	rec := httptest.NewRecorder()
	newArtifactsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/countries.json", nil))

	res := rec.Result()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.NotEmpty(t, res.Header.Get("Cache-Control"))
	require.JSONEq(t, `{"FRA":{}}`, rec.Body.String())
}

func TestArtifactsHandler_Head(t *testing.T) {
	rec := httptest.NewRecorder()
	newArtifactsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/v1/FRA.json", nil))

	require.Equal(t, http.StatusOK, rec.Result().StatusCode)
	require.Empty(t, rec.Body.String())
}

func TestArtifactsHandler_NotFound(t *testing.T) {
	for _, p := range []string{"/v1/", "/v1/DEU.json", "/v1/.FRA.json.123.tmp", "/v1/nested"} {
		rec := httptest.NewRecorder()
		newArtifactsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		require.Equal(t, http.StatusNotFound, rec.Result().StatusCode, p)
	}
}

func TestArtifactsHandler_ReadOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	newArtifactsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/v1/FRA.json", nil))

	res := rec.Result()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	require.Equal(t, "GET, HEAD", res.Header.Get("Allow"))
}
