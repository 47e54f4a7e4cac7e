package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jphttp "github.com/fivetwenty-io/jsonplaceholder-client/internal/http"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func fastRetry() jphttp.Option {
	return jphttp.WithRetryConfig(3, time.Millisecond)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/posts/1", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "jsonplaceholder-client-go", request.Header.Get("User-Agent"))

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"id":1,"userId":1,"title":"t","body":"b"}`))
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts/1"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, jsonph.OriginNetwork, resp.Origin)
		assert.JSONEq(t, `{"id":1,"userId":1,"title":"t","body":"b"}`, string(resp.Body))
	})

	t.Run("request with body and headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))

			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"title":"foo"}`, string(body))

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL + "/")

		headers := http.Header{}
		headers.Set("Content-Type", "application/json")
		headers.Set("X-Custom-Header", "custom-value")

		resp, err := client.Do(context.Background(), &jsonph.Request{
			Method:  http.MethodPost,
			Path:    "/posts",
			Headers: headers,
			Body:    []byte(`{"title":"foo"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("error status is returned as a response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL)

		resp, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts/99999"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "{}", string(resp.Body))
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := jphttp.NewClient(server.URL, jphttp.WithLogger(logger), jphttp.WithDebug(true))

		_, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
		require.NoError(t, err)

		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("custom user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "my-agent/1.0", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL, jphttp.WithUserAgent("my-agent/1.0"))

		_, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
		require.NoError(t, err)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL, fastRetry())

		resp, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("returns the last 5xx response after four attempts", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte("down"))
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL, fastRetry())

		resp, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "down", string(resp.Body))
		assert.Equal(t, int32(4), attempts.Load())
	})

	t.Run("retries POST on 5xx", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			body, _ := io.ReadAll(request.Body)
			assert.Equal(t, `{"title":"x"}`, string(body))

			if attempts.Add(1) == 1 {
				writer.WriteHeader(http.StatusBadGateway)

				return
			}

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL, fastRetry())

		resp, err := client.Do(context.Background(), &jsonph.Request{
			Method: http.MethodPost,
			Path:   "/posts",
			Body:   []byte(`{"title":"x"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusTooManyRequests} {
			var attempts atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				attempts.Add(1)
				writer.WriteHeader(status)
			}))

			client := jphttp.NewClient(server.URL, fastRetry())

			resp, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts/1"})
			require.NoError(t, err)
			assert.Equal(t, status, resp.StatusCode)
			assert.Equal(t, int32(1), attempts.Load(), "status %d should not be retried", status)

			server.Close()
		}
	})

	t.Run("network failure is retried then returned", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		refused := &url.Error{Op: "Get", URL: "http://unreachable", Err: errors.New("connection refused")}
		httpClient := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			attempts.Add(1)

			return nil, refused
		})}

		client := jphttp.NewClient("http://unreachable", fastRetry(), jphttp.WithHTTPClient(httpClient))

		resp, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Equal(t, int32(4), attempts.Load())

		var urlErr *url.Error
		assert.ErrorAs(t, err, &urlErr)
	})

	t.Run("retries disabled", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL, jphttp.WithRetryConfig(0, time.Millisecond))

		resp, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_Cancellation(t *testing.T) {
	t.Parallel()

	t.Run("cancel during backoff stops retries", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			cancel()
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL, jphttp.WithRetryConfig(3, time.Second))

		resp, err := client.Do(ctx, &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("request timeout covers the whole call", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := jphttp.NewClient(server.URL, jphttp.WithRetryConfig(3, time.Second))

		start := time.Now()
		_, err := client.Do(context.Background(), &jsonph.Request{
			Method:  http.MethodGet,
			Path:    "/posts",
			Timeout: 50 * time.Millisecond,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestRetryPolicy_Delays(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		times []time.Time
	)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()

		writer.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := jphttp.NewClient(server.URL, jphttp.WithRetryConfig(3, 5*time.Millisecond))

	_, err := client.Do(context.Background(), &jsonph.Request{Method: http.MethodGet, Path: "/posts"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, times, 4)

	expected := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	for i, minimum := range expected {
		assert.GreaterOrEqual(t, times[i+1].Sub(times[i]), minimum)
	}
}
