package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouter_Fallback(t *testing.T) {
	c := newClient(t)
	fred := createUser(t, c, "fred", "why123")

	t.Run("unmatched path", func(t *testing.T) {
		for _, path := range []string{"/users/", "/", "/users/" + fred.ID + "/friends"} {
			resp, err := c.R().SetBasicAuth("fred", "why123").Get(path)

			require.NoError(t, err)
			require.Equalf(t, http.StatusNotFound, resp.StatusCode(), "path %s", path)
			require.Equal(t, "application/json; charset=utf-8", resp.Header().Get("Content-Type"))
			require.JSONEq(t, `{"message":"Not Found"}`, resp.String())
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := c.R().SetBody(`{"username":"freddy"}`).Patch("/users/" + fred.ID)

		require.NoError(t, err)
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode())
		require.Equal(t, "application/json; charset=utf-8", resp.Header().Get("Content-Type"))
		require.JSONEq(t, `{"message":"Method Not Allowed"}`, resp.String())
		require.Contains(t, resp.Header().Get("Allow"), http.MethodPut, "allowed methods should be listed")
		require.Contains(t, resp.Header().Get("Allow"), http.MethodDelete)
	})

	t.Run("collection method not allowed", func(t *testing.T) {
		resp, err := c.R().Delete("/users")

		require.NoError(t, err)
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode())
		require.JSONEq(t, `{"message":"Method Not Allowed"}`, resp.String())
	})

	t.Run("matched routes untouched", func(t *testing.T) {
		resp, err := c.R().SetBasicAuth("fred", "why123").Get("/users/" + fred.ID)

		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		require.Equal(t, fred, decodeUser(t, resp))
	})
}
