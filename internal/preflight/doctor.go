package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"tracker-studio/internal/config"
	"tracker-studio/internal/preview"
	"tracker-studio/internal/processor"
	"tracker-studio/internal/resultstore"
)

const pingTimeout = 3 * time.Second

type DoctorResult struct {
	OK     bool          `json:"ok"`
	Checks []DoctorCheck `json:"checks"`
}

type DoctorCheck struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Optional bool   `json:"optional,omitempty"`
	Message  string `json:"message"`
}

// Pinger is satisfied by *processor.Client.
type Pinger interface {
	Ping(ctx context.Context) error
	Endpoint() string
}

func Doctor(ctx context.Context, cfg *config.Config, ping Pinger) DoctorResult {
	checks := make([]DoctorCheck, 0, 5)
	checks = append(checks, endpointCheck(ctx, ping))

	for _, dir := range []struct {
		name string
		path string
	}{
		{"directory:cache", cfg.Output.CacheDir},
		{"directory:download", cfg.Output.DownloadDir},
		{"directory:logs", cfg.Logging.Dir},
	} {
		ok, msg := ensureWritableDir(dir.path)
		checks = append(checks, DoctorCheck{Name: dir.name, OK: ok, Message: msg})
	}

	player, found := preview.Available()
	checks = append(checks, DoctorCheck{
		Name:     "dependency:player",
		OK:       found,
		Optional: true,
		Message:  dependencyMessage(found, player),
	})

	ok := true
	for _, c := range checks {
		if !c.OK && !c.Optional {
			ok = false
			break
		}
	}
	return DoctorResult{OK: ok, Checks: checks}
}

func endpointCheck(ctx context.Context, ping Pinger) DoctorCheck {
	check := DoctorCheck{Name: "service:endpoint"}
	if ping == nil {
		check.Message = "no processing client configured"
		return check
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping.Ping(pctx); err != nil {
		if processor.IsTransport(err) {
			check.Message = fmt.Sprintf("%s unreachable (start it, or run `tracker-studio stub-server`)", ping.Endpoint())
		} else {
			check.Message = err.Error()
		}
		return check
	}
	check.OK = true
	check.Message = ping.Endpoint() + " reachable"
	return check
}

func dependencyMessage(ok bool, path string) string {
	if ok {
		return "player opener found at " + path
	}
	return "no player opener on PATH; results can still be downloaded"
}

func ensureWritableDir(path string) (bool, string) {
	if strings.TrimSpace(path) == "" {
		return false, "empty path"
	}
	if err := resultstore.Mkdir(path); err != nil {
		return false, err.Error()
	}
	f, err := os.CreateTemp(path, "tracker-studio-check-*.tmp")
	if err != nil {
		return false, err.Error()
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true, "writable"
}
