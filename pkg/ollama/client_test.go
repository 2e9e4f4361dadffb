package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesURL(t *testing.T) {
	_, err := NewClient("not a url")
	require.Error(t, err)

	c, err := NewClient("")
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestSimpleQuery(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"{\"label\":\"cat\"}"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/api/chat")
	require.NoError(t, err)
	answer, err := c.SimpleQuery(context.Background(), "m", "what is it", "aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, `{"label":"cat"}`, answer)

	require.Equal(t, "m", got.Model)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Images, 1)
	require.Equal(t, "hello", string(got.Messages[0].Images[0]))
}

func TestSimpleQueryBadImage(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.SimpleQuery(context.Background(), "m", "p", "%%%")
	require.Error(t, err)
}
