package main

import (
	"context"
	"testing"
)

// Signal delivery itself is not exercised; only context wiring is.

func TestNotifyContext_StopCancels(t *testing.T) {
	t.Parallel()

	ctx, stop := notifyContext(context.Background())
	if ctx.Err() != nil {
		t.Fatal("context cancelled before stop()")
	}
	stop()
	if ctx.Err() == nil {
		t.Error("context still live after stop()")
	}
}

func TestNotifyContext_FollowsParent(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := notifyContext(parent)
	defer stop()

	cancel()
	if ctx.Err() == nil {
		t.Error("context still live after parent cancellation")
	}
}
