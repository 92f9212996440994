package worker

import (
	"os"
	"path/filepath"
)

const (
	envPython   = "WHISPER_CLIP_PYTHON"
	envRepoRoot = "WHISPER_CLIP_REPO_ROOT"

	defaultPython = "/usr/bin/python3"
	backendDir    = "backend"
	maxRootDepth  = 6
)

// Location is where and how the worker process is launched.
type Location struct {
	Python     string
	Root       string
	PythonPath string
}

// Resolve applies the override-then-fallback chain for the interpreter and
// the project root.
func Resolve() Location {
	root := repoRoot()
	return Location{
		Python:     pythonExecutable(root),
		Root:       root,
		PythonPath: filepath.Join(root, backendDir),
	}
}

// Check reports ErrExecutableNotFound when the interpreter is missing.
func (l Location) Check() error {
	if !executableExists(l.Python) {
		return &Error{Kind: ErrExecutableNotFound, Message: l.Python}
	}
	return nil
}

func pythonExecutable(root string) string {
	if override := os.Getenv(envPython); override != "" {
		return override
	}
	venv := filepath.Join(root, ".venv", "bin", "python3")
	if fileExists(venv) {
		return venv
	}
	return defaultPython
}

func repoRoot() string {
	if override := os.Getenv(envRepoRoot); override != "" {
		return override
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	current := wd
	for range maxRootDepth {
		if info, err := os.Stat(filepath.Join(current, backendDir)); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return wd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
