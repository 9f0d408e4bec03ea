package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"subplay/internal/config"
	"subplay/internal/services"
	"subplay/internal/subtitle/assrt"
)

// CheckRemote verifies that the remote API is reachable and the token is
// accepted. It asks for the token's quota so no search budget is spent.
func CheckRemote(ctx context.Context, cfg *config.Config) Result {
	const name = "Remote API"

	if strings.TrimSpace(cfg.Remote.Token) == "" {
		return Result{Name: name, Detail: "missing token"}
	}
	client, err := assrt.New(assrt.Config{
		Token:          cfg.Remote.Token,
		BaseURL:        cfg.Remote.BaseURL,
		UserAgent:      cfg.Remote.UserAgent,
		ConnectTimeout: cfg.ConnectTimeout(),
		ReadTimeout:    cfg.ReadTimeout(),
		RequestTimeout: cfg.RequestTimeout(),
	})
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	quota, err := client.Quota(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	if quota <= 0 {
		return Result{Name: name, Detail: "reachable, quota exhausted"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (quota %d)", quota)}
}

// CheckBinary verifies that command resolves to an executable.
func CheckBinary(name, command string) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not found)", command)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeRemoteError(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidCredential):
		return "auth failed (invalid token)"
	case errors.Is(err, services.ErrRateLimited):
		return "rate limited, retry later"
	case services.IsTimeout(err):
		return "check timed out (remote API unresponsive)"
	default:
		return err.Error()
	}
}
