package harness

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// safeBuffer is a thread-safe buffer for capturing the simulation log.
type safeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func automate(t *testing.T, script string, timeout time.Duration) (Result, *safeBuffer) {
	t.Helper()
	log := &safeBuffer{}
	result, err := Automate(context.Background(), []string{"sh", "-c", script}, timeout, log)
	require.NoError(t, err)
	return result, log
}

func TestPassSentinel(t *testing.T) {
	result, log := automate(t, `echo "booting..."; echo "TEST_PASS"`, 30*time.Second)
	assert.True(t, result.ExitOk)
	assert.Contains(t, log.String(), "booting...")
	assert.Contains(t, log.String(), "TEST_PASS")
}

func TestFailSentinel(t *testing.T) {
	result, log := automate(t, `echo "boot failure"; echo "TEST_FAIL"`, 30*time.Second)
	assert.False(t, result.ExitOk)
	assert.Contains(t, log.String(), "boot failure")
}

func TestTimeoutKillsSilentChild(t *testing.T) {
	start := time.Now()
	result, _ := automate(t, `sleep 30`, 2*time.Second)
	elapsed := time.Since(start)

	assert.False(t, result.ExitOk)
	// Automate returns promptly after the deadline: the sleeper was killed,
	// not waited for.
	assert.Less(t, elapsed, 10*time.Second)
	assert.GreaterOrEqual(t, elapsed, 2*time.Second)
}

func TestTimeoutNotExtendedByOrphanedGrandchild(t *testing.T) {
	start := time.Now()
	// The backgrounded sleeper inherits the output pipe and outlives the
	// shell; the reap must give up on the drain instead of waiting for it.
	result, _ := automate(t, `sleep 30 & sleep 30`, time.Second)
	elapsed := time.Since(start)

	assert.False(t, result.ExitOk)
	assert.Less(t, elapsed, 10*time.Second)
	assert.GreaterOrEqual(t, elapsed, time.Second)
}

func TestOverlongLineDoesNotWedgeTheRun(t *testing.T) {
	start := time.Now()
	// A single line past the scan buffer cap aborts the scan; the run must
	// still unwind instead of blocking the output copy forever.
	result, _ := automate(t, `head -c 3000000 /dev/zero | tr '\0' a; echo; echo "TEST_PASS"`, 2*time.Second)

	assert.False(t, result.ExitOk)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestFirstSentinelWins(t *testing.T) {
	result, log := automate(t, `printf "TEST_FAIL\nTEST_PASS\n"`, 30*time.Second)
	assert.False(t, result.ExitOk)

	// The log still carries the full stream past the first sentinel.
	assert.Contains(t, log.String(), "TEST_PASS")
}

func TestNoSentinelCleanExit(t *testing.T) {
	result, log := automate(t, `echo "nothing to report"`, 30*time.Second)
	assert.False(t, result.ExitOk)
	assert.Contains(t, log.String(), "nothing to report")
}

func TestChildCrashBeforeSentinel(t *testing.T) {
	result, _ := automate(t, `echo "dying"; exit 42`, 30*time.Second)
	assert.False(t, result.ExitOk)
}

func TestStderrIsScannedToo(t *testing.T) {
	result, log := automate(t, `echo "TEST_PASS" 1>&2`, 30*time.Second)
	assert.True(t, result.ExitOk)
	assert.Contains(t, log.String(), "TEST_PASS")
}

func TestSentinelAfterFirstWinsIsIgnored(t *testing.T) {
	// A pass sentinel emitted after a kill-delayed fail must not flip the
	// verdict.
	result, _ := automate(t, `echo "TEST_FAIL"; sleep 1; echo "TEST_PASS"`, 30*time.Second)
	assert.False(t, result.ExitOk)
}

func TestStartFailure(t *testing.T) {
	log := &safeBuffer{}
	_, err := Automate(context.Background(), []string{"/nonexistent-simulator"}, time.Second, log)
	assert.ErrorContains(t, err, "failed to start simulation command")
}

func TestInvalidArguments(t *testing.T) {
	log := &safeBuffer{}

	_, err := Automate(context.Background(), nil, time.Second, log)
	assert.ErrorContains(t, err, "must not be empty")

	_, err = Automate(context.Background(), []string{"true"}, 0, log)
	assert.ErrorContains(t, err, "must be positive")
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	log := &safeBuffer{}
	result, err := Automate(ctx, []string{"sh", "-c", "sleep 30"}, 30*time.Second, log)
	require.NoError(t, err)

	assert.False(t, result.ExitOk)
	assert.Less(t, time.Since(start), 10*time.Second)
}
