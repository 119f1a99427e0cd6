package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/stepworks/streakd/internal/constants"
)

const lockfileName = "streakd-server.lock"

var (
	ErrNotRunning = errors.New("streakd server is not running")

	findProcessFunc = ps.FindProcess
	getPIDFunc      = os.Getpid
)

// Lock is the content of the lockfile written while a server is listening.
type Lock struct {
	Addr string
	PID  int
}

func LockfilePath(configDir string) string {
	return filepath.Join(configDir, lockfileName)
}

func WriteLockfile(path, addr string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	content := fmt.Sprintf("%s|%d", addr, getPIDFunc())
	return os.WriteFile(path, []byte(content), 0600)
}

// RemoveLockfile deletes the lockfile if it still belongs to this process.
func RemoveLockfile(path string) {
	lock, err := readLockfile(path)
	if err == nil && lock.PID != getPIDFunc() {
		return
	}
	_ = os.Remove(path)
}

// RunningServer returns the lock of a live server. Stale lockfiles, whose
// process is gone or is not streakd, report ErrNotRunning.
func RunningServer(path string) (Lock, error) {
	lock, err := readLockfile(path)
	if err != nil {
		return Lock{}, err
	}

	process, err := findProcessFunc(lock.PID)
	if err != nil || process == nil {
		return Lock{}, fmt.Errorf("%w: process %d not found", ErrNotRunning, lock.PID)
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return Lock{}, fmt.Errorf("%w: process %d is %s", ErrNotRunning, lock.PID, process.Executable())
	}
	return lock, nil
}

func readLockfile(path string) (Lock, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Lock{}, ErrNotRunning
	}
	if err != nil {
		return Lock{}, fmt.Errorf("failed to read lockfile: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return Lock{}, errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil || pid <= 0 {
		return Lock{}, errors.New("invalid process ID in lockfile")
	}
	return Lock{Addr: parts[0], PID: pid}, nil
}
