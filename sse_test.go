package main

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBroadcasterRegisterUnregister(t *testing.T) {
	b := NewBroadcaster()

	c1 := b.Register("job1")
	c2 := b.Register("job1")
	c3 := b.Register("job2")

	if b.ClientCount("job1") != 2 {
		t.Fatalf("expected 2 clients for job1, got %d", b.ClientCount("job1"))
	}
	if b.ClientCount("job2") != 1 {
		t.Fatalf("expected 1 client for job2, got %d", b.ClientCount("job2"))
	}

	b.Unregister(c1)
	if b.ClientCount("job1") != 1 {
		t.Fatalf("expected 1 client for job1 after unregister, got %d", b.ClientCount("job1"))
	}

	b.Unregister(c2)
	b.Unregister(c3)
	if b.ClientCount("job1") != 0 || b.ClientCount("job2") != 0 {
		t.Fatal("expected 0 clients after full unregister")
	}
}

func TestBroadcasterDoubleUnregister(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("job1")
	b.Unregister(c)
	b.Unregister(c) // should not panic
}

func TestBroadcast(t *testing.T) {
	b := NewBroadcaster()

	c1 := b.Register("job1")
	c2 := b.Register("job1")
	c3 := b.Register("job2")

	b.Broadcast("job1", "hello")

	select {
	case msg := <-c1.ch:
		if msg != "hello" {
			t.Fatalf("c1 expected 'hello', got %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}

	select {
	case msg := <-c2.ch:
		if msg != "hello" {
			t.Fatalf("c2 expected 'hello', got %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c2 did not receive message")
	}

	// c3 is on job2, should not receive.
	select {
	case <-c3.ch:
		t.Fatal("c3 should not receive job1 message")
	case <-time.After(50 * time.Millisecond):
		// ok
	}

	b.Unregister(c1)
	b.Unregister(c2)
	b.Unregister(c3)
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("job1")

	// Fill the channel.
	for range sseChannelBuffer {
		b.Broadcast("job1", "fill")
	}

	// This should not block.
	b.Broadcast("job1", "overflow")

	b.Unregister(c)
}

func TestBroadcasterConcurrent(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			topic := "job1"
			if i%2 == 0 {
				topic = "job2"
			}
			c := b.Register(topic)
			b.Broadcast(topic, "msg")
			b.ClientCount(topic)
			b.Unregister(c)
		}(i)
	}
	wg.Wait()

	if b.ClientCount("job1") != 0 || b.ClientCount("job2") != 0 {
		t.Fatal("expected 0 clients after concurrent test")
	}
}

func TestFinish(t *testing.T) {
	b := NewBroadcaster()
	c1 := b.Register("job1")
	c2 := b.Register("job2")

	b.Broadcast("job1", "last")
	b.Finish("job1", "done")

	var got []string
	for msg := range c1.ch {
		got = append(got, msg)
	}
	if strings.Join(got, ",") != "last,done" {
		t.Fatalf("expected last then done, got %v", got)
	}
	if b.ClientCount("job1") != 0 {
		t.Fatalf("expected 0 clients for job1, got %d", b.ClientCount("job1"))
	}
	if b.ClientCount("job2") != 1 {
		t.Fatal("job2 client should survive Finish(job1)")
	}

	b.Unregister(c1) // already gone, should not panic
	b.Unregister(c2)
}

func TestFinishReachesFullClient(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("job1")
	for i := range sseChannelBuffer {
		b.Broadcast("job1", fmt.Sprintf("event %d", i))
	}

	b.Finish("job1", "done")

	var last string
	n := 0
	for msg := range c.ch {
		last = msg
		n++
	}
	if last != "done" {
		t.Fatalf("final message lost, last was %q", last)
	}
	if n != sseChannelBuffer {
		t.Fatalf("expected %d messages, got %d", sseChannelBuffer, n)
	}
}

func TestStreamBacklogOnly(t *testing.T) {
	b := NewBroadcaster()
	req := httptest.NewRequest("GET", "/api/generations/job1/events", nil)
	w := httptest.NewRecorder()

	b.Stream(w, req, nil, []string{`{"state":"extracting"}`, `{"state":"done"}`})

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
	want := "data: {\"state\":\"extracting\"}\n\ndata: {\"state\":\"done\"}\n\n"
	if got := w.Body.String(); got != want {
		t.Fatalf("unexpected body:\n%s", got)
	}
}

func TestStreamUntilTopicClosed(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("job1")
	req := httptest.NewRequest("GET", "/api/generations/job1/events", nil)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.Stream(w, req, c, []string{"first"})
		close(done)
	}()

	b.Broadcast("job1", "second")
	b.Finish("job1", "third")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stream did not return after Finish")
	}

	body := w.Body.String()
	if !strings.Contains(body, "data: first\n\n") || !strings.Contains(body, "data: second\n\n") || !strings.Contains(body, "data: third\n\n") {
		t.Fatalf("expected backlog and live message, got:\n%s", body)
	}
	if b.ClientCount("job1") != 0 {
		t.Fatal("client should be gone after stream ends")
	}
}
