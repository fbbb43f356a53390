package execrunner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var (
	// ErrBinaryNotFound is returned when a tool cannot be located.
	ErrBinaryNotFound = errors.New("execrunner: binary not found")

	// ErrEmptyBinary is returned when a process spec has no binary.
	ErrEmptyBinary = errors.New("execrunner: empty binary path")
)

// FindBinary locates an external tool such as ffmpeg or ffprobe.
// Priority: 1) customPath, 2) the first non-empty environment variable in envVars,
// 3) PATH, 4) common install locations.
func FindBinary(name, customPath string, envVars ...string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrBinaryNotFound, customPath)
	}

	for _, env := range envVars {
		if envPath := os.Getenv(env); envPath != "" {
			if _, err := os.Stat(envPath); err == nil {
				return envPath, nil
			}
			return "", fmt.Errorf("%w: %s %s not found", ErrBinaryNotFound, env, envPath)
		}
	}

	execName := name
	if runtime.GOOS == "windows" {
		execName = name + ".exe"
	}

	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	for _, p := range commonPaths(execName) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
}

func commonPaths(execName string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin\` + execName,
			`C:\Program Files\ffmpeg\bin\` + execName,
			`C:\Program Files (x86)\ffmpeg\bin\` + execName,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/" + execName,
			"/usr/local/bin/" + execName,
			"/usr/bin/" + execName,
		}
	default:
		return []string{
			"/usr/bin/" + execName,
			"/usr/local/bin/" + execName,
			"/opt/homebrew/bin/" + execName,
			"/snap/bin/" + execName,
		}
	}
}
