package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type reply struct {
		Artists []string `json:"artists"`
	}

	for name, raw := range map[string]string{
		"bare":        `{"artists":["a","b"]}`,
		"fenced":      "```json\n{\"artists\":[\"a\",\"b\"]}\n```",
		"plain fence": "```\n{\"artists\":[\"a\",\"b\"]}```",
		"padded":      "\n  {\"artists\":[\"a\",\"b\"]}  \n",
	} {
		t.Run(name, func(t *testing.T) {
			var r reply
			require.NoError(t, DecodeJSON(raw, &r))
			assert.Equal(t, []string{"a", "b"}, r.Artists)
		})
	}

	for _, raw := range []string{"", "```json\n```", "sorry, I can't help", `{"artists":`} {
		var r reply
		assert.ErrorIs(t, DecodeJSON(raw, &r), ErrMalformedResponse, raw)
	}
}

func TestOpenAIDisabled(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	o := NewOpenAI("", WithBaseURL(srv.URL))
	assert.False(t, o.Enabled())
	_, err := o.Complete(context.Background(), "system", "prompt")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Zero(t, hits.Load())
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		bs, _ := io.ReadAll(r.Body)
		var req openai.ChatCompletionRequest
		require.NoError(t, json.Unmarshal(bs, &req))
		assert.Equal(t, "test-model", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
		assert.InDelta(t, 0.7, req.Temperature, 1e-6)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be terse", req.Messages[0].Content)
		assert.Equal(t, "name three", req.Messages[1].Content)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", WithBaseURL(srv.URL+"/"), WithModel("test-model"))
	reply, err := o.Complete(context.Background(), "be terse", "name three")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, reply)
}

func TestOpenAIErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		"status": {http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, func(t *testing.T, err error) {
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, http.StatusTooManyRequests, statusErr.Status)
			assert.Equal(t, "slow down", statusErr.Message)
		}},
		"not json": {http.StatusOK, `<html>`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrMalformedResponse)
		}},
		"status without error body": {http.StatusBadGateway, `upstream down`, func(t *testing.T, err error) {
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, http.StatusBadGateway, statusErr.Status)
			assert.NotErrorIs(t, err, ErrMalformedResponse)
		}},
		"no choices": {http.StatusOK, `{"choices":[]}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrMalformedResponse)
		}},
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewOpenAI("sk-test", WithBaseURL(srv.URL)).Complete(context.Background(), "s", "p")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestOpenAITimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewOpenAI("sk-test", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond)).Complete(context.Background(), "s", "p")
	assert.Error(t, err)
}

func TestOpenAITimeoutLeavesCallerClientAlone(t *testing.T) {
	shared := &http.Client{}
	o := NewOpenAI("sk-test", WithHTTPClient(shared), WithTimeout(5*time.Millisecond))
	assert.Zero(t, shared.Timeout)
	assert.Equal(t, 5*time.Millisecond, o.http.Timeout)
	assert.NotSame(t, shared, o.http)

	o = NewOpenAI("sk-test", WithTimeout(5*time.Millisecond), WithHTTPClient(shared))
	assert.Zero(t, shared.Timeout)
	assert.Equal(t, 5*time.Millisecond, o.http.Timeout)
}

func TestOpenAIDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewOpenAI("sk-test").http.Timeout)

	own := &http.Client{Timeout: time.Minute}
	assert.Equal(t, time.Minute, NewOpenAI("sk-test", WithHTTPClient(own)).http.Timeout)
}

type stubProvider struct {
	calls atomic.Int64
	err   error
}

func (s *stubProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return "{}", nil
}

func TestBreakerTrips(t *testing.T) {
	p := &stubProvider{err: errors.New("boom")}
	b := NewBreaker(p, "test-trips")

	for range tripAfter {
		_, err := b.Complete(context.Background(), "s", "p")
		assert.EqualError(t, err, "boom")
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int64(tripAfter), p.calls.Load())
}

func TestBreakerRecovers(t *testing.T) {
	p := &stubProvider{err: errors.New("boom")}
	b := newBreaker(p, "test-recovers", 10*time.Millisecond)

	for range tripAfter {
		b.Complete(context.Background(), "s", "p")
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	p.err = nil
	reply, err := b.Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "{}", reply)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerIgnoresDisabled(t *testing.T) {
	b := NewBreaker(NewOpenAI(""), "test-disabled")
	for range 2 * tripAfter {
		_, err := b.Complete(context.Background(), "s", "p")
		assert.ErrorIs(t, err, ErrDisabled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
