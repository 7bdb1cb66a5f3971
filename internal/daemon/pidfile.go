package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the pid file name inside the state directory.
const FileName = "codereview.pid"

// Info is what a running server records about itself.
type Info struct {
	PID  int
	Port int
}

// Addr returns the local address the server listens on.
func (i Info) Addr() string {
	return fmt.Sprintf("http://localhost:%d", i.Port)
}

// PIDFile manages the pid file of a background server.
type PIDFile struct {
	Path string
}

// NewPIDFile creates a PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// InDir returns the PIDFile for a state directory.
func InDir(stateDir string) *PIDFile {
	return NewPIDFile(filepath.Join(stateDir, FileName))
}

// Write records the current process and the port it serves on.
func (p *PIDFile) Write(port int) error {
	return p.WriteInfo(Info{PID: os.Getpid(), Port: port})
}

// WriteInfo writes info as "pid port".
func (p *PIDFile) WriteInfo(info Info) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data := strconv.Itoa(info.PID) + " " + strconv.Itoa(info.Port) + "\n"
	return os.WriteFile(p.Path, []byte(data), 0o644)
}

// Read parses the pid file. A file holding only a pid reads with Port 0.
func (p *PIDFile) Read() (Info, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Info{}, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 || len(fields) > 2 {
		return Info{}, fmt.Errorf("invalid PID file content: %q", strings.TrimSpace(string(data)))
	}

	var info Info
	if info.PID, err = strconv.Atoi(fields[0]); err != nil {
		return Info{}, fmt.Errorf("invalid PID file content: %w", err)
	}
	if len(fields) == 2 {
		if info.Port, err = strconv.Atoi(fields[1]); err != nil {
			return Info{}, fmt.Errorf("invalid PID file content: %w", err)
		}
	}
	return info, nil
}

// Remove deletes the PID file. A missing file is not an error.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
