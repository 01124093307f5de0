package verse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edgard/hisword/internal/config"
)

var psalm = Response{
	Verse:       "The Lord is my shepherd; I shall not want.",
	Reference:   "Psalm 23:1",
	Relevance:   "You asked about provision in an uncertain season.",
	Explanation: "Trust that your needs are seen, and rest in that care today.",
}

// timerRecorder replaces the backoff timer so tests run instantly and can
// assert the delays that would have been waited.
type timerRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	// onWait, when set, runs instead of firing the timer; the returned
	// channel then never fires.
	onWait func()
}

func (r *timerRecorder) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	onWait := r.onWait
	r.mu.Unlock()

	ch := make(chan time.Time, 1)
	if onWait != nil {
		onWait()
		return ch
	}
	ch <- time.Now()
	return ch
}

func (r *timerRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) (*Client, *timerRecorder) {
	t.Helper()
	c, err := NewClient(config.VerseConfig{
		BaseURL:    baseURL,
		Timeout:    timeout,
		MaxRetries: 2,
		BaseDelay:  time.Second,
	}, nil, nil)
	require.NoError(t, err)
	rec := &timerRecorder{}
	c.timer = rec
	return c, rec
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestFetchVerseResponse_Success(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))
		writeJSON(t, w, http.StatusOK, map[string]any{"response": psalm})
	}))
	defer server.Close()

	c, sleeps := newTestClient(t, server.URL+"/", time.Second)
	resp, err := c.FetchVerseResponse(context.Background(), "  How do I stop worrying?  ", "tg:42")

	require.NoError(t, err)
	assert.Equal(t, psalm, *resp)
	assert.Equal(t, "How do I stop worrying?", got.Question)
	assert.Equal(t, "tg:42", got.UserID)
	assert.Empty(t, sleeps.recorded())
}

func TestFetchVerseResponse_ResponseValuesUnchanged(t *testing.T) {
	padded := Response{
		Verse:       "  Be still, and know that I am God.\n",
		Reference:   "Psalm 46:10 ",
		Relevance:   "\tStillness in a busy week.",
		Explanation: "Take a quiet minute before each meeting. ",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"response": padded})
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL, time.Second)
	resp, err := c.FetchVerseResponse(context.Background(), "busy", "u1")

	require.NoError(t, err)
	assert.Equal(t, padded, *resp)
}

func TestFetchVerseResponse_AnonymousUser(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{"response": psalm})
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL, time.Second)
	_, err := c.FetchVerseResponse(context.Background(), "Where do I find peace?", "")

	require.NoError(t, err)
	assert.Equal(t, AnonymousUserID, got.UserID)
}

func TestFetchVerseResponse_InvalidInput(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]any{"response": psalm})
	}))
	defer server.Close()

	c, sleeps := newTestClient(t, server.URL, time.Second)

	for _, question := range []string{"", " ", "\t\n  \r"} {
		resp, err := c.FetchVerseResponse(context.Background(), question, "u1")
		assert.Nil(t, resp)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput), "question %q", question)

		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindInvalidInput, kind)
	}

	assert.Equal(t, int32(0), calls.Load())
	assert.Empty(t, sleeps.recorded())
}

func TestFetchVerseResponse_TimeoutsExhaustRetries(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	c, sleeps := newTestClient(t, server.URL, 50*time.Millisecond)
	resp, err := c.FetchVerseResponse(context.Background(), "Is anyone listening?", "u1")

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 3, verr.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.recorded())
}

func TestFetchVerseResponse_MalformedThenSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(t, w, http.StatusOK, map[string]any{"response": map[string]string{
				"verse":       psalm.Verse,
				"reference":   psalm.Reference,
				"explanation": psalm.Explanation,
			}})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"response": psalm})
	}))
	defer server.Close()

	c, sleeps := newTestClient(t, server.URL, time.Second)
	resp, err := c.FetchVerseResponse(context.Background(), "I feel alone", "u1")

	require.NoError(t, err)
	assert.Equal(t, psalm, *resp)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{time.Second}, sleeps.recorded())
}

func TestFetchVerseResponse_MalformedBodies(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"not json", `<html>oops</html>`, "not a valid generate response"},
		{"missing wrapper", `{"verse":"v","reference":"r","relevance":"x","explanation":"e"}`, `no "response" object`},
		{"null wrapper", `{"response":null}`, `no "response" object`},
		{"wrapper is a string", `{"response":"Psalm 23"}`, "not a valid generate response"},
		{"missing relevance", `{"response":{"verse":"v","reference":"r","explanation":"e"}}`, "relevance"},
		{"blank reference", `{"response":{"verse":"v","reference":"  ","relevance":"x","explanation":"e"}}`, "reference"},
		{"empty object", `{"response":{}}`, "verse, reference, relevance, explanation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c, _ := newTestClient(t, server.URL, time.Second)
			_, err := c.FetchVerseResponse(context.Background(), "question", "u1")

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
			assert.Contains(t, err.Error(), tt.wantDetail)
			assert.Equal(t, int32(3), calls.Load(), "malformed responses are retried")
		})
	}
}

func TestFetchVerseResponse_ServerErrorDetail(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"detail": "model overloaded"})
	}))
	defer server.Close()

	c, sleeps := newTestClient(t, server.URL, time.Second)
	_, err := c.FetchVerseResponse(context.Background(), "question", "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServer))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "model overloaded", verr.Detail)
	assert.Equal(t, http.StatusInternalServerError, verr.StatusCode)
	assert.Equal(t, 3, verr.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.recorded())
}

func TestServerFailureDetail(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
		want    string
	}{
		{"string detail", 500, `{"detail":"X"}`, "X"},
		{"structured detail", 422, `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"null detail", 500, `{"detail":null}`, "verse service returned status 500"},
		{"blank detail", 503, `{"detail":"  "}`, "verse service returned status 503"},
		{"no detail", 500, `{"error":"boom"}`, "verse service returned status 500"},
		{"unparsable body", 502, `<html>Bad Gateway</html>`, "verse service returned status 502"},
		{"empty body", 504, ``, "verse service returned status 504"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serverFailure(tt.status, []byte(tt.payload))
			assert.Equal(t, KindServer, got.Kind)
			assert.Equal(t, tt.status, got.StatusCode)
			assert.Equal(t, tt.want, got.Detail)
		})
	}
}

func TestFetchVerseResponse_LastFailureReturnedVerbatim(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1, 2:
			writeJSON(t, w, http.StatusBadGateway, map[string]string{"detail": "upstream down"})
		default:
			writeJSON(t, w, http.StatusOK, map[string]any{"response": map[string]string{"verse": "v"}})
		}
	}))
	defer server.Close()

	c, _ := newTestClient(t, server.URL, time.Second)
	_, err := c.FetchVerseResponse(context.Background(), "question", "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.False(t, errors.Is(err, ErrServer))
}

func TestFetchVerseResponse_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, sleeps := newTestClient(t, url, time.Second)
	_, err := c.FetchVerseResponse(context.Background(), "question", "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Len(t, sleeps.recorded(), 2)
}

func TestFetchVerseResponse_CallerCancellation(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, timer := newTestClient(t, server.URL, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timer.onWait = cancel

	_, err := c.FetchVerseResponse(ctx, "question", "u1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	_, isVerse := KindOf(err)
	assert.False(t, isVerse)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []time.Duration{time.Second}, timer.recorded())
}

func TestFetchVerseResponse_NoRetriesConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := NewClient(config.VerseConfig{BaseURL: server.URL, Timeout: time.Second, MaxRetries: 0}, nil, nil)
	require.NoError(t, err)

	_, err = c.FetchVerseResponse(context.Background(), "question", "u1")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchVerseResponse_ReleasesResources(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"response": psalm})
	}))

	httpClient := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	c, err := NewClient(config.VerseConfig{
		BaseURL:    server.URL,
		Timeout:    30 * time.Millisecond,
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	}, httpClient, nil)
	require.NoError(t, err)

	resp, err := c.FetchVerseResponse(context.Background(), "question", "u1")
	require.NoError(t, err)
	assert.Equal(t, psalm, *resp)

	close(release)
	httpClient.CloseIdleConnections()
	server.Close()
}

func TestFetchVerseResponse_ConcurrentCallsAreIndependent(t *testing.T) {
	const callers = 40

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req generateRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		var n int
		_, err := fmt.Sscanf(req.UserID, "u%d", &n)
		assert.NoError(t, err)
		if n%2 == 1 {
			writeJSON(t, w, http.StatusInternalServerError, map[string]string{"detail": "failed for " + req.UserID})
			return
		}
		answer := psalm
		answer.Reference = "for " + req.UserID
		writeJSON(t, w, http.StatusOK, map[string]any{"response": answer})
	}))
	defer server.Close()

	c, timer := newTestClient(t, server.URL, 5*time.Second)

	type result struct {
		resp *Response
		err  error
	}
	results := make([]result, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.FetchVerseResponse(context.Background(), "question", fmt.Sprintf("u%d", i))
			results[i] = result{resp, err}
		}()
	}
	wg.Wait()

	for i, res := range results {
		user := fmt.Sprintf("u%d", i)
		if i%2 == 0 {
			require.NoError(t, res.err, user)
			assert.Equal(t, "for "+user, res.resp.Reference)
			continue
		}
		assert.Nil(t, res.resp, user)
		var verr *Error
		require.True(t, errors.As(res.err, &verr), user)
		assert.Equal(t, KindServer, verr.Kind, user)
		assert.Equal(t, "failed for "+user, verr.Detail)
		assert.Equal(t, 3, verr.Attempts, user)
	}

	failing := callers / 2
	assert.Equal(t, int32(callers-failing+failing*3), calls.Load())
	assert.Len(t, timer.recorded(), failing*2)
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8001", "ftp://verses.example.com", "http://"} {
		_, err := NewClient(config.VerseConfig{BaseURL: raw}, nil, nil)
		assert.Error(t, err, "url %q", raw)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(config.VerseConfig{BaseURL: "https://verses.example.com/api/", MaxRetries: -1}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://verses.example.com/api/generate", c.endpoint)
	assert.Equal(t, config.DefaultVerseTimeout, c.timeout)
	assert.Equal(t, config.DefaultVerseMaxRetries, c.maxRetries)
	assert.Equal(t, config.DefaultVerseBaseDelay, c.baseDelay)
	assert.Equal(t, time.Second, c.backoff(0))
	assert.Equal(t, 2*time.Second, c.backoff(1))
	assert.Equal(t, 4*time.Second, c.backoff(2))
}
