package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func ollamaStreamServer(t *testing.T, lines int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < lines; i++ {
			fmt.Fprintln(w, `{"message":{"role":"assistant","content":"x"},"done":false}`)
		}
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
}

// One provider serving overlapping streams must not share mutable request
// state; each call gets its own deadline from its context.
func TestOllamaStreamConcurrentRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hello"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":" world"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chunks, errs := p.StreamChat(context.Background(),
				[]Message{{Role: "user", Content: "hi"}},
				Options{MaxTokens: 800, Temperature: 0.7})

			var b strings.Builder
			for c := range chunks {
				b.WriteString(c)
			}
			if err := <-errs; err != nil {
				t.Errorf("stream: %v", err)
				return
			}
			if b.String() != "Hello world" {
				t.Errorf("assembled %q, want %q", b.String(), "Hello world")
			}
		}()
	}
	wg.Wait()
}

// A consumer that walks away mid-stream must not strand the producer
// goroutine on a full chunk buffer; cancelling the context releases it.
func TestOllamaStreamAbandonedConsumerStops(t *testing.T) {
	srv := ollamaStreamServer(t, 64)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "test-model")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chunks, errs := p.StreamChat(ctx, []Message{{Role: "user", Content: "hi"}}, Options{})

	select {
	case <-chunks:
	case <-time.After(2 * time.Second):
		t.Fatal("no chunk arrived")
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-chunks:
			if ok {
				continue
			}
			select {
			case <-errs:
			case <-deadline:
				t.Fatal("error channel did not close after cancel")
			}
			return
		case <-deadline:
			t.Fatal("chunk channel did not close after cancel")
		}
	}
}
