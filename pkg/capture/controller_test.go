package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestControllerPauseResume(t *testing.T) {
	controller := NewController()

	controller.Pause("operator")
	done := make(chan error, 1)
	go func() {
		done <- controller.Wait(context.Background())
	}()

	select {
	case <-time.After(100 * time.Millisecond):
	case err := <-done:
		t.Fatalf("expected wait to block, got %v", err)
	}

	controller.Resume("operator")

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error after resume, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("controller wait did not resume")
	}
}

func TestControllerResumeWakesEveryWaiter(t *testing.T) {
	controller := NewPausedController()
	const waiters = 4
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- controller.Wait(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	controller.Resume("ready")

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("not every waiter was released")
	}
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected wait error: %v", err)
		}
	}
}

func TestControllerKillPropagatesError(t *testing.T) {
	controller := NewPausedController()
	customErr := errors.New("boom")

	done := make(chan error, 1)
	go func() {
		done <- controller.Wait(context.Background())
	}()

	controller.Kill(customErr)

	select {
	case err := <-done:
		if !errors.Is(err, customErr) {
			t.Fatalf("expected custom error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("controller wait did not unblock after kill")
	}
	select {
	case <-controller.Stopped():
	default:
		t.Fatalf("expected Stopped to be closed")
	}
	if controller.State() != StateStopping || !errors.Is(controller.Err(), customErr) {
		t.Fatalf("unexpected state %s / %v", controller.State(), controller.Err())
	}
}

func TestControllerWaitRespectsContextCancellation(t *testing.T) {
	controller := NewController()
	controller.Pause("")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- controller.Wait(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("controller wait did not exit on cancellation")
	}
}

func TestControllerObserverSeesTransitions(t *testing.T) {
	controller := NewController()
	var states []string
	controller.Observe(func(state, reason string) {
		states = append(states, state+":"+reason)
	})
	controller.Pause("hold")
	controller.Pause("again")
	controller.Resume("go")
	controller.Kill(nil)
	controller.Kill(errors.New("late"))

	want := []string{"paused:hold", "running:go", "stopping:"}
	if len(states) != len(want) {
		t.Fatalf("expected %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, states)
		}
	}
}
