// session_batch.go - Concurrent batch runs over independent sessions

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rvsim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BATCH_SLICE is how many instructions a batch job runs between
// cancellation checks.
const BATCH_SLICE = 100_000

// BatchJob is one guest program run in a session of its own. Image is an
// ELF executable, or raw code loaded at Config.StartPC when Raw is set.
type BatchJob struct {
	Name     string
	Image    []byte
	Raw      bool
	MaxSteps uint64
	Config   SessionConfig

	// Input is injected on the console UART before the run starts.
	Input []byte
}

type BatchResult struct {
	Name    string
	Result  ExecutionResult
	Console []byte
	Debug   []byte
	Err     error
}

// RunBatch runs every job concurrently, at most limit at a time (limit <= 0
// means no limit). Each job owns its session, so jobs share nothing.
// Results come back in job order. A cancelled ctx stops jobs between run
// slices and is returned as the error; per-job failures are reported in
// BatchResult.Err.
func RunBatch(ctx context.Context, jobs []BatchJob, limit int) ([]BatchResult, error) {
	results := make([]BatchResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			res, err := runBatchJob(ctx, job)
			results[i] = res
			if ctx.Err() != nil {
				return ctx.Err()
			}
			results[i].Err = err
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

func runBatchJob(ctx context.Context, job BatchJob) (BatchResult, error) {
	res := BatchResult{Name: job.Name}
	s, err := NewSession(job.Config)
	if err != nil {
		return res, fmt.Errorf("%s: %w", job.Name, err)
	}
	defer s.Close()

	if job.Raw {
		err = s.LoadBytes(job.Config.StartPC, job.Image)
	} else {
		_, err = s.LoadELF(job.Image)
	}
	if err != nil {
		return res, fmt.Errorf("%s: %w", job.Name, err)
	}
	if len(job.Input) > 0 {
		if err := s.UARTInject(ConsoleUART, job.Input); err != nil {
			return res, fmt.Errorf("%s: %w", job.Name, err)
		}
	}

	remaining := job.MaxSteps
	var total uint64
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		slice := min(remaining, BATCH_SLICE)
		r := s.Run(slice)
		total += r.Retired
		remaining -= slice
		r.Retired = total
		res.Result = r
		if r.Status != StatusMaxStepsReached || remaining == 0 {
			break
		}
	}
	res.Console = s.UARTReadAll(ConsoleUART)
	res.Debug = s.UARTReadAll(DebugUART)
	return res, nil
}
