package harness

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcdubois/rust-sel4/internal/ctxlog"
)

// Sentinel lines a simulation writes to signal its verdict. Only the first
// sentinel observed counts.
const (
	SentinelPass = "TEST_PASS"
	SentinelFail = "TEST_FAIL"
)

// waitDelay bounds the reap after the child exits: anything the child
// spawned may still hold the output pipe open, and the run must not wait
// for the whole process tree to finish.
const waitDelay = 2 * time.Second

// Result is the outcome of one supervised simulation run.
type Result struct {
	// ExitOk is true iff the first sentinel observed was SentinelPass and
	// it arrived before the timeout elapsed. Timeouts, a leading
	// SentinelFail, a sentinel-free exit and child crashes all yield false.
	ExitOk bool
}

// Automate launches the simulation command and supervises it: the child's
// combined output is forwarded line by line to logW in real time while a
// concurrent scan watches for the pass/fail sentinels, racing a timeout.
// The child is forcibly terminated on every exit path; a child that already
// exited is not an error. The child's own exit code is never consulted.
// The run is bounded by the timeout plus a short drain grace, even when
// orphaned grandchildren keep the output pipe open past the kill.
//
// An error is returned only when the run could not be started; every
// in-flight failure mode is reported through Result.
func Automate(ctx context.Context, argv []string, timeout time.Duration, logW io.Writer) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	if len(argv) == 0 {
		return Result{}, errors.New("simulation command must not be empty")
	}
	if timeout <= 0 {
		return Result{}, fmt.Errorf("simulation timeout must be positive, got %s", timeout)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	// No stdin: os/exec attaches the null device, so the child can never
	// block awaiting input.
	cmd.Stdin = nil
	// Wait must not block on the pipe after the child is gone: a grandchild
	// inheriting the write end would otherwise hold the reap hostage.
	cmd.WaitDelay = waitDelay

	// One pipe carries the combined stdout+stderr stream. Handing the same
	// writer to both keeps os/exec on a single copy, so lines are not
	// interleaved mid-write.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return Result{}, fmt.Errorf("failed to start simulation command '%s': %w", argv[0], err)
	}
	logger.Info("Simulation started.", "command", strings.Join(argv, " "), "pid", cmd.Process.Pid, "timeout", timeout)

	// Reap the child and close the write end once its output is fully
	// copied, so the scanner sees EOF.
	waitCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitCh <- err
	}()

	// The scanner owns the read end: every line is forwarded to the log
	// unconditionally, and exactly one verdict is published — the first
	// sentinel line, or false at EOF when no sentinel appeared.
	verdictCh := make(chan bool, 1)
	var group errgroup.Group
	group.Go(func() error {
		// When the scan stops — EOF or an over-long line — the read end
		// closes, so the output copy can never block on a pipe nobody
		// reads.
		defer pr.Close()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		decided := false
		for scanner.Scan() {
			line := scanner.Text()
			fmt.Fprintln(logW, line)
			if decided {
				continue
			}
			switch {
			case strings.Contains(line, SentinelPass):
				verdictCh <- true
				decided = true
			case strings.Contains(line, SentinelFail):
				verdictCh <- false
				decided = true
			}
		}
		if !decided {
			verdictCh <- false
		}
		return scanner.Err()
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	exitOk := false
	select {
	case verdict := <-verdictCh:
		exitOk = verdict
		logger.Info("Simulation verdict observed.", "exit_ok", verdict)
	case <-timer.C:
		logger.Warn("Simulation timed out before a sentinel appeared.", "timeout", timeout)
	case <-ctx.Done():
		logger.Warn("Simulation canceled.", "error", ctx.Err())
	}

	// Terminate unconditionally; a child that already exited naturally
	// reports os.ErrProcessDone, which is not a failure.
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Error("Failed to kill simulation process.", "pid", cmd.Process.Pid, "error", err)
	}

	// Drain before returning: the child must be reaped and the log stream
	// fully forwarded, even on the timeout path.
	if err := <-waitCh; err != nil {
		logger.Debug("Simulation process exited non-cleanly.", "error", err)
	}
	if err := group.Wait(); err != nil {
		logger.Warn("Simulation output scan ended with an error.", "error", err)
	}

	logger.Info("Simulation finished.", "exit_ok", exitOk)
	return Result{ExitOk: exitOk}, nil
}
