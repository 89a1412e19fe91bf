package lifecycle

import (
	"context"
	"errors"
	"testing"
)

type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (f *fakeComponent) Start(ctx context.Context) error {
	*f.log = append(*f.log, "start "+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	*f.log = append(*f.log, "stop "+f.name)
	return f.stopErr
}

func TestRuntimeStartStopOrder(t *testing.T) {
	t.Parallel()

	var log []string
	r := NewRuntime(
		&fakeComponent{name: "a", log: &log},
		&fakeComponent{name: "b", log: &log},
	)

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start a", "start b", "stop b", "stop a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestRuntimeStartFailureStopsStarted(t *testing.T) {
	t.Parallel()

	var log []string
	boom := errors.New("boom")
	r := NewRuntime(
		&fakeComponent{name: "a", log: &log},
		&fakeComponent{name: "b", startErr: boom, log: &log},
		&fakeComponent{name: "c", log: &log},
	)

	err := r.Start(context.Background())
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("start err = %v, want boom", err)
	}

	want := []string{"start a", "start b", "stop a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}
