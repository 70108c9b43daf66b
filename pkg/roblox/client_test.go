package roblox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T, users map[string]Profile) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/usernames/users", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)

		var req usernamesRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := usernamesResponse{}
		for _, name := range req.Usernames {
			if p, ok := users[name]; ok {
				resp.Data = append(resp.Data, struct {
					ID          int64  `json:"id"`
					Name        string `json:"name"`
					DisplayName string `json:"displayName"`
				}{p.ID, p.Username, p.DisplayName})
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/v1/users/", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range users {
			if r.URL.Path == "/v1/users/"+strconv.FormatInt(p.ID, 10) {
				_ = json.NewEncoder(w).Encode(p)
				return
			}
		}
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestLookupResolvesDisplayName(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]Profile{
		"builder": {ID: 42, Username: "builder", DisplayName: "PlayerOGx"},
	})
	c := NewClient(srv.URL)

	p, err := c.Lookup(context.Background(), "builder")
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, "PlayerOGx", p.DisplayName)
}

func TestLookupNotFound(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]Profile{})
	c := NewClient(srv.URL)

	_, err := c.Lookup(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = c.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestLookupServerErrorIsUnavailable(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(2, time.Millisecond))

	_, err := c.Lookup(context.Background(), "builder")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), hits.Load(), "initial attempt plus two retries")
}

func TestLookupDoesNotRetryTooManyRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(3, time.Millisecond))

	_, err := c.Lookup(context.Background(), "builder")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLookupHonoursContextTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithRetries(0, time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Lookup(ctx, "builder")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestConcurrentLookupsShareRequest(t *testing.T) {
	srv, calls := fakeAPI(t, map[string]Profile{
		"builder": {ID: 42, Username: "builder", DisplayName: "Builder"},
	})
	c := NewClient(srv.URL, WithRate(1, 1))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Lookup(context.Background(), "builder")
			assert.NoError(t, err)
			assert.Equal(t, "Builder", p.DisplayName)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestSharedLookupOutlivesFirstCallerTimeout(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/usernames/users":
			calls.Add(1)
			<-gate
			_, _ = w.Write([]byte(`{"data":[{"id":42,"name":"builder","displayName":"Builder"}]}`))
		case "/v1/users/42":
			_, _ = w.Write([]byte(`{"id":42,"name":"builder","displayName":"OG Builder"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(0, time.Millisecond))

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Lookup(short, "builder")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan Profile, 1)
	go func() {
		p, err := c.Lookup(context.Background(), "builder")
		assert.NoError(t, err)
		second <- p
	}()

	assert.ErrorIs(t, <-firstErr, ErrUnavailable)
	close(gate)

	select {
	case p := <-second:
		assert.Equal(t, "OG Builder", p.DisplayName)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got the shared result")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSharedLookupHasItsOwnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithRetries(0, time.Millisecond), WithSharedTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := c.Lookup(context.Background(), "builder")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}
