package main

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestServe_WaitsForShutdown(t *testing.T) {
	done := make(chan struct{})
	returned := make(chan error, 1)

	go func() {
		returned <- serve(func() error { return http.ErrServerClosed }, done)
	}()

	select {
	case <-returned:
		t.Fatal("serve() returned before shutdown finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(done)

	select {
	case err := <-returned:
		if err != nil {
			t.Errorf("serve() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("serve() did not return after shutdown finished")
	}
}

func TestServe_StartFailure(t *testing.T) {
	bind := errors.New("listen tcp :8080: bind: address already in use")

	err := serve(func() error { return bind }, make(chan struct{}))
	if !errors.Is(err, bind) {
		t.Errorf("serve() error = %v, want %v", err, bind)
	}
}
