package supervisor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"minerpanel/internal/logrelay"
)

// writeFakeMiner drops an executable shell script standing in for the miner.
func writeFakeMiner(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-miner.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake miner: %v", err)
	}
	return path
}

func TestExecStart_MissingBinary(t *testing.T) {
	launcher := NewExecLauncher()

	_, err := launcher.Start(context.Background(), StartSpec{
		MinerPath:  filepath.Join(t.TempDir(), "nonexistent-miner"),
		ConfigPath: "config.yaml",
	})
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestExecStart_MergedOutput(t *testing.T) {
	dir := t.TempDir()
	miner := writeFakeMiner(t, dir, `echo "to stdout"
echo "to stderr" >&2`)

	launcher := NewExecLauncher()
	handle, err := launcher.Start(context.Background(), StartSpec{
		MinerPath:  miner,
		ConfigPath: "config.yaml",
		WorkDir:    dir,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	rc, err := handle.StreamOutput(context.Background())
	if err != nil {
		t.Fatalf("StreamOutput failed: %v", err)
	}
	output, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}

	if !strings.Contains(string(output), "to stdout") {
		t.Errorf("output missing stdout line: %q", output)
	}
	if !strings.Contains(string(output), "to stderr") {
		t.Errorf("output missing stderr line: %q", output)
	}

	if res := handle.Wait(context.Background()); res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestExecStart_PassesConfigFlag(t *testing.T) {
	dir := t.TempDir()
	miner := writeFakeMiner(t, dir, `echo "args: $@"`)

	launcher := NewExecLauncher()
	handle, err := launcher.Start(context.Background(), StartSpec{
		MinerPath:  miner,
		ConfigPath: "/etc/miner/config.yaml",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	rc, _ := handle.StreamOutput(context.Background())
	output, _ := io.ReadAll(rc)
	handle.Wait(context.Background())

	if !strings.Contains(string(output), "-c /etc/miner/config.yaml") {
		t.Errorf("miner did not receive -c flag: %q", output)
	}
}

func TestExecWait_NonzeroExitCode(t *testing.T) {
	miner := writeFakeMiner(t, t.TempDir(), "exit 3")

	launcher := NewExecLauncher()
	handle, err := launcher.Start(context.Background(), StartSpec{
		MinerPath:  miner,
		ConfigPath: "config.yaml",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	res := handle.Wait(context.Background())
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Err != nil {
		t.Errorf("nonzero exit reported as wait failure: %v", res.Err)
	}
}

func TestExecSignal_TerminatesProcess(t *testing.T) {
	miner := writeFakeMiner(t, t.TempDir(), "sleep 30")

	launcher := NewExecLauncher()
	handle, err := launcher.Start(context.Background(), StartSpec{
		MinerPath:  miner,
		ConfigPath: "config.yaml",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Give the process a moment to start
	time.Sleep(50 * time.Millisecond)

	if err := handle.Signal(context.Background()); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	done := make(chan ExitResult, 1)
	go func() { done <- handle.Wait(context.Background()) }()

	select {
	case res := <-done:
		if res.ExitCode == 0 {
			t.Errorf("exit code = 0 for a signaled process")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after signal")
	}
}

func TestExecKill_TerminatesProcess(t *testing.T) {
	// Traps TERM so only a hard kill can end it
	miner := writeFakeMiner(t, t.TempDir(), `trap '' TERM
sleep 30`)

	launcher := NewExecLauncher()
	handle, err := launcher.Start(context.Background(), StartSpec{
		MinerPath:  miner,
		ConfigPath: "config.yaml",
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if err := handle.Kill(context.Background()); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	done := make(chan ExitResult, 1)
	go func() { done <- handle.Wait(context.Background()) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after kill")
	}
}

func TestSupervisorWithExecLauncher_FullLifecycle(t *testing.T) {
	dir := t.TempDir()
	miner := writeFakeMiner(t, dir, `echo "miner starting"
echo "scanning plots"
sleep 30`)

	logRelay := logrelay.New(100)
	sup := New(NewExecLauncher(), logRelay, Config{GraceTimeout: 2 * time.Second})

	if err := sup.Start(context.Background(), StartSpec{
		MinerPath:  miner,
		ConfigPath: filepath.Join(dir, "config.yaml"),
		WorkDir:    dir,
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var lines []string
	waitFor(t, 2*time.Second, func() bool {
		for _, l := range logRelay.Drain() {
			lines = append(lines, l.Text)
		}
		return len(lines) >= 2
	}, "miner output")

	if lines[0] != "miner starting" || lines[1] != "scanning plots" {
		t.Errorf("unexpected output order: %v", lines)
	}

	if err := sup.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if sup.IsRunning() {
		t.Error("IsRunning = true after Stop")
	}
}

func TestDefaultMinerExecutable_RelativeLookup(t *testing.T) {
	got := defaultMinerExecutable()
	if !strings.HasPrefix(got, "./") {
		t.Errorf("defaultMinerExecutable() = %q, want a ./-relative path", got)
	}
	if !strings.Contains(got, "signum-miner") {
		t.Errorf("defaultMinerExecutable() = %q, want signum-miner", got)
	}
}
