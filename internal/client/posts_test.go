package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/client"
	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

func newTestClient(t *testing.T, serverURL string) *client.Client {
	t.Helper()

	c, err := client.New(&jsonph.Config{
		BaseURL:        serverURL,
		RetryBaseDelay: time.Millisecond,
		Logger:         jsonph.NopLogger{},
		Cache:          &jsonph.CacheConfig{Type: jsonph.CacheTypeMemory},
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func writeJSON(t *testing.T, writer http.ResponseWriter, status int, value interface{}) {
	t.Helper()

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	err := json.NewEncoder(writer).Encode(value)
	assert.NoError(t, err)
}

func TestPostsClient_List(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/posts", request.URL.Path)
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

		writeJSON(t, writer, http.StatusOK, []jsonph.Post{
			{ID: 1, UserID: 1, Title: "first", Body: "one"},
			{ID: 2, UserID: 1, Title: "second", Body: "two"},
		})
	}))
	defer server.Close()

	posts, err := newTestClient(t, server.URL).Posts().List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0].Title)
	assert.Equal(t, 2, posts[1].ID)
}

func TestPostsClient_Get(t *testing.T) {
	t.Parallel()

	t.Run("second call is served from cache", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
			assert.Equal(t, "/posts/1", request.URL.Path)
			writeJSON(t, writer, http.StatusOK, jsonph.Post{ID: 1, UserID: 1, Title: "cached", Body: "body"})
		}))
		defer server.Close()

		posts := newTestClient(t, server.URL).Posts()

		first, err := posts.Get(context.Background(), 1)
		require.NoError(t, err)

		second, err := posts.Get(context.Background(), 1)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, "cached", second.Title)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("not found is not retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
			writeJSON(t, writer, http.StatusNotFound, map[string]string{})
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Posts().Get(context.Background(), 99999)
		require.Error(t, err)
		assert.True(t, jsonph.IsNotFound(err))
		assert.Equal(t, jsonph.ErrorKindAPI, jsonph.KindOf(err))
		assert.Equal(t, int32(1), hits.Load())

		var sdkErr *jsonph.Error
		require.ErrorAs(t, err, &sdkErr)
		assert.Equal(t, "/posts/99999", sdkErr.URL)
	})

	t.Run("server errors exhaust retries", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Posts().Get(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, jsonph.StatusCode(err))
		assert.Equal(t, int32(4), hits.Load())
	})

	t.Run("invalid id is rejected before dispatch", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Posts().Get(context.Background(), 0)
		require.Error(t, err)
		assert.True(t, jsonph.IsValidationError(err))
		assert.Equal(t, int32(0), hits.Load())

		var sdkErr *jsonph.Error
		require.ErrorAs(t, err, &sdkErr)
		assert.Contains(t, sdkErr.ValidationErrors, "id")
	})

	t.Run("malformed body is an unknown error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte("not json"))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Posts().Get(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, jsonph.ErrorKindUnknown, jsonph.KindOf(err))
	})
}

func TestPostsClient_Create(t *testing.T) {
	t.Parallel()

	t.Run("valid post", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/posts", request.URL.Path)
			assert.Equal(t, http.MethodPost, request.Method)

			var req jsonph.PostCreateRequest
			assert.NoError(t, json.NewDecoder(request.Body).Decode(&req))
			assert.Equal(t, "foo", req.Title)

			writeJSON(t, writer, http.StatusCreated, jsonph.Post{ID: 101, UserID: req.UserID, Title: req.Title, Body: req.Body})
		}))
		defer server.Close()

		post, err := newTestClient(t, server.URL).Posts().Create(context.Background(), &jsonph.PostCreateRequest{
			UserID: 1,
			Title:  "foo",
			Body:   "bar",
		})
		require.NoError(t, err)
		assert.Equal(t, 101, post.ID)
		assert.Equal(t, "bar", post.Body)
	})

	t.Run("invalid post is rejected before dispatch", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Posts().Create(context.Background(), &jsonph.PostCreateRequest{Body: "bar"})
		require.Error(t, err)

		var sdkErr *jsonph.Error
		require.ErrorAs(t, err, &sdkErr)
		assert.Equal(t, jsonph.ErrorKindValidation, sdkErr.Kind)
		assert.Contains(t, sdkErr.ValidationErrors, "title")
		assert.Contains(t, sdkErr.ValidationErrors, "userId")
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("nil post", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, "http://127.0.0.1:1").Posts().Create(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, jsonph.IsValidationError(err))
		assert.ErrorIs(t, err, jsonph.ErrInvalidPost)
	})
}

func TestPostsClient_Update(t *testing.T) {
	t.Parallel()

	t.Run("partial update", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/posts/1", request.URL.Path)
			assert.Equal(t, http.MethodPut, request.Method)

			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Equal(t, map[string]interface{}{"title": "updated"}, body)

			writeJSON(t, writer, http.StatusOK, jsonph.Post{ID: 1, UserID: 1, Title: "updated", Body: "old"})
		}))
		defer server.Close()

		title := "updated"

		post, err := newTestClient(t, server.URL).Posts().Update(context.Background(), 1, &jsonph.PostUpdateRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "updated", post.Title)
	})

	t.Run("empty update", func(t *testing.T) {
		t.Parallel()

		_, err := newTestClient(t, "http://127.0.0.1:1").Posts().Update(context.Background(), 1, &jsonph.PostUpdateRequest{})
		require.Error(t, err)
		assert.True(t, jsonph.IsValidationError(err))
		assert.ErrorIs(t, err, constants.ErrNothingToUpdate)
	})

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()

		title := ""

		_, err := newTestClient(t, "http://127.0.0.1:1").Posts().Update(context.Background(), 1, &jsonph.PostUpdateRequest{Title: &title})
		require.Error(t, err)
		assert.True(t, jsonph.IsValidationError(err))
	})
}

func TestPostsClient_Delete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/posts/1", request.URL.Path)
		assert.Equal(t, http.MethodDelete, request.Method)
		writeJSON(t, writer, http.StatusOK, map[string]string{})
	}))
	defer server.Close()

	err := newTestClient(t, server.URL).Posts().Delete(context.Background(), 1)
	require.NoError(t, err)
}

func TestPostsClient_NetworkFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(t, serverURL).Posts().List(context.Background())
	require.Error(t, err)

	var sdkErr *jsonph.Error
	require.ErrorAs(t, err, &sdkErr)
	assert.Equal(t, jsonph.ErrorKindNetwork, sdkErr.Kind)
	assert.Zero(t, sdkErr.StatusCode)
	assert.False(t, errors.Is(err, context.Canceled))
}
