package errors

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatchReturnsError(t *testing.T) {
	sentinel := stderrors.New("lookup failed")

	err := Catch(func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	assert.NoError(t, Catch(func() error { return nil }))
}

func TestCatchConvertsPanic(t *testing.T) {
	err := Catch(func() error {
		var m map[string]int
		m["boom"]++
		return nil
	})

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "panic")
	assert.NotEmpty(t, pe.Stack)
}

func TestShutdownAfterTooManyErrors(t *testing.T) {
	var shutdownCalled atomic.Bool
	exited := make(chan int, 1)

	h := &ErrorHandler{
		stopChan:      make(chan struct{}),
		shutdownFunc:  func() { shutdownCalled.Store(true) },
		exitFunc:      func(code int) { exited <- code },
		maxErrors:     2,
		resetInterval: time.Hour,
		checkInterval: 10 * time.Millisecond,
		client:        http.DefaultClient,
	}
	h.start()
	defer h.Stop()

	for i := 0; i < 3; i++ {
		h.IncrementError()
	}

	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
		assert.True(t, shutdownCalled.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not shut down")
	}
}

func TestReportPostsToWebhook(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := &ErrorHandler{webhookURL: srv.URL, stopChan: make(chan struct{}), client: srv.Client()}
	h.Report(ReportErrorOptions{Error: "Test", Message: "hello"})

	assert.Equal(t, int32(1), hits.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	h := NewErrorHandler("", nil)
	h.Stop()
	assert.NotPanics(t, h.Stop)
}
