package singleflight

import (
	"os"
	"testing"
)

func TestAcquireThenReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()

	l1 := New(dir)
	if err := l1.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l1.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	l2 := New(dir)
	if err := l2.Acquire(); err != nil {
		t.Fatalf("second Acquire() after release error = %v", err)
	}
	defer l2.Release()
}

func TestSecondAcquireFailsWhileFirstHeld(t *testing.T) {
	dir := t.TempDir()

	l1 := New(dir)
	if err := l1.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l1.Release()

	l2 := New(dir)
	if err := l2.Acquire(); err == nil {
		l2.Release()
		t.Fatal("expected second Acquire() to fail while first lock is held")
	}
}

func TestLockFileContainsPID(t *testing.T) {
	dir := t.TempDir()

	l := New(dir)
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer l.Release()

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("expected lock file to contain the current PID")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	l := New(dir)
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
}
