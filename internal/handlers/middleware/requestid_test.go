package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	// Handler writes request id from context
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(RequestIDFromContext(r.Context())))
		require.NoError(t, err)
	})

	srv := httptest.NewServer(RequestID(h))
	defer srv.Close()

	do := func(t *testing.T, header string) (*http.Response, string) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set(RequestIDHeader, header)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("generated if absent", func(t *testing.T) {
		resp, body := do(t, "")

		_, err := uuid.Parse(body)
		require.NoError(t, err, "generated request id should be uuid")
		require.Equal(t, body, resp.Header.Get(RequestIDHeader), "request id should be echoed")
	})

	t.Run("kept if sent", func(t *testing.T) {
		resp, body := do(t, "client-request-1")

		require.Equal(t, "client-request-1", body)
		require.Equal(t, "client-request-1", resp.Header.Get(RequestIDHeader))
	})

	t.Run("empty outside middleware", func(t *testing.T) {
		require.Empty(t, RequestIDFromContext(t.Context()))
	})
}
