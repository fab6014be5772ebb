// Package preview hands a rendered file to the desktop's default player.
package preview

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Command returns the opener invocation for goos.
func Command(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

// Available reports the opener binary for this platform, if installed.
func Available() (string, bool) {
	name, _ := Command(runtime.GOOS, "")
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// Open starts the default player for path without waiting for it to exit.
func Open(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("nothing to play")
	}
	name, args := Command(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
