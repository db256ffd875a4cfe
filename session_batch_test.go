package rvsim

import (
	"context"
	"errors"
	"testing"
)

func batchConfig(t *testing.T) SessionConfig {
	cfg := DefaultSessionConfig()
	cfg.FSRoot = t.TempDir()
	return cfg
}

func TestRunBatch_OrderAndResults(t *testing.T) {
	jobs := []BatchJob{
		{Name: "hello", Image: helloProgram(), Raw: true, MaxSteps: 1000, Config: batchConfig(t)},
		{Name: "echo", Image: echoProgram(), Raw: true, MaxSteps: 1000, Config: batchConfig(t), Input: []byte{'x', 'y', 0}},
		{Name: "spin", Image: program(rvJAL(0, 0)), Raw: true, MaxSteps: 250_000, Config: batchConfig(t)},
		{Name: "garbage", Image: []byte("not an elf"), MaxSteps: 10, Config: batchConfig(t)},
	}

	results, err := RunBatch(context.Background(), jobs, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Name != jobs[i].Name {
			t.Fatalf("result %d is %q, want %q", i, r.Name, jobs[i].Name)
		}
	}

	if r := results[0]; r.Err != nil || r.Result.Status != StatusHalted || string(r.Debug) != "Hi" {
		t.Fatalf("hello = %+v", r)
	}
	if r := results[1]; r.Err != nil || r.Result.Status != StatusHalted || string(r.Console) != "xy" {
		t.Fatalf("echo = %+v", r)
	}
	// Spans several run slices.
	if r := results[2]; r.Err != nil || r.Result.Status != StatusMaxStepsReached || r.Result.Retired != 250_000 {
		t.Fatalf("spin = %+v", r.Result)
	}
	if r := results[3]; !errors.Is(r.Err, ErrNotELF) {
		t.Fatalf("garbage err = %v", r.Err)
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []BatchJob{
		{Name: "spin", Image: program(rvJAL(0, 0)), Raw: true, MaxSteps: 1 << 40, Config: batchConfig(t)},
	}
	_, err := RunBatch(ctx, jobs, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
