package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Serve runs a request through the engine and returns the recorder
func Serve(engine http.Handler, method, target string) *httptest.ResponseRecorder {
	return ServeWithHeaders(engine, method, target, nil)
}

func ServeWithHeaders(engine http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	engine.ServeHTTP(w, req)
	return w
}

// JSONBody decodes the recorded body as an object
func JSONBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	return JSONBodyAs[map[string]any](t, w)
}

// JSONBodyAs decodes the recorded body into T
func JSONBodyAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "decode response body: %s", w.Body.String())
	return out
}
