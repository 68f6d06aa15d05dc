package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/watchloop/observatory/internal/config"
)

// pidFilePath is where `start` records its process id so `stop` and
// `status` can find it without a long-lived IPC channel. The original's
// CLI left this as a `// TODO: Implement daemon stop via PID file`
// stub; this is the first real implementation of that intent.
func pidFilePath() string {
	return config.DefaultDataDir() + "/captured.pid"
}

func writePIDFile() error {
	path := pidFilePath()
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removePIDFile() {
	_ = os.Remove(pidFilePath())
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("corrupt pid file %s: %w", pidFilePath(), err)
	}
	return pid, nil
}

// processAlive reports whether pid names a live process. On POSIX,
// os.FindProcess always succeeds; signal 0 is the portable liveness
// probe.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func dirOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return "."
}
