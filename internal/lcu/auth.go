package lcu

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"riftcap/internal/logging"
	"riftcap/internal/services"
)

const (
	clientProcessName = "LeagueClientUx"
	flagAppPort       = "--app-port="
	flagAuthToken     = "--remoting-auth-token="
)

// Credentials carries the resolved LCU endpoint port and the opaque bearer
// value ready for a basic-auth header.
type Credentials struct {
	Port  string
	Token string
}

// AuthProvider resolves a local endpoint and credential for the event feed.
type AuthProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// ClientAuth discovers LCU credentials from the running client process
// first, falling back to the install lockfile. Credentials are re-read on
// every call because they rotate across client restarts.
type ClientAuth struct {
	logger       *slog.Logger
	lockfilePath string
	procRoot     string
}

// NewClientAuth builds an auth provider. lockfilePath may be empty when the
// install directory is unknown; process discovery still works.
func NewClientAuth(lockfilePath string, logger *slog.Logger) *ClientAuth {
	return &ClientAuth{
		logger:       logging.WithComponent(logger, "lcu-auth"),
		lockfilePath: lockfilePath,
		procRoot:     "/proc",
	}
}

// Credentials resolves the current port and token, or fails when neither
// source yields them.
func (a *ClientAuth) Credentials(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	if creds, ok := a.fromProcess(); ok {
		return creds, nil
	}
	a.logger.Debug("process discovery yielded no credentials, trying lockfile")
	return a.fromLockfile()
}

// EncodeToken converts the raw client password into the basic-auth bearer
// value the LCU expects.
func EncodeToken(password string) string {
	return base64.StdEncoding.EncodeToString([]byte("riot:" + password))
}

func (a *ClientAuth) fromProcess() (Credentials, bool) {
	entries, err := os.ReadDir(a.procRoot)
	if err != nil {
		a.logger.Debug("process table unavailable", logging.Error(err))
		return Credentials{}, false
	}
	for _, entry := range entries {
		if !entry.IsDir() || !isNumeric(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.procRoot, entry.Name(), "cmdline"))
		if err != nil {
			continue
		}
		args := strings.Split(string(data), "\x00")
		if len(args) == 0 || !strings.Contains(args[0], clientProcessName) {
			continue
		}
		var port, token string
		for _, arg := range args[1:] {
			switch {
			case strings.HasPrefix(arg, flagAppPort):
				port = strings.TrimPrefix(arg, flagAppPort)
			case strings.HasPrefix(arg, flagAuthToken):
				token = strings.TrimPrefix(arg, flagAuthToken)
			}
		}
		if port != "" && token != "" {
			a.logger.Info("obtained LCU credentials from process", logging.String("pid", entry.Name()))
			return Credentials{Port: port, Token: EncodeToken(token)}, true
		}
	}
	return Credentials{}, false
}

func (a *ClientAuth) fromLockfile() (Credentials, error) {
	if a.lockfilePath == "" {
		return Credentials{}, services.Wrap(services.ErrConnection, "lcu-auth", "lockfile", "no lockfile path configured", nil)
	}
	data, err := os.ReadFile(a.lockfilePath)
	if err != nil {
		return Credentials{}, services.Wrap(services.ErrConnection, "lcu-auth", "lockfile", "read "+a.lockfilePath, err)
	}

	// Lockfile format: name:pid:port:password:protocol
	parts := strings.SplitN(strings.TrimSpace(string(data)), ":", 5)
	if len(parts) != 5 {
		return Credentials{}, services.Wrap(services.ErrConnection, "lcu-auth", "lockfile",
			fmt.Sprintf("unexpected lockfile format (%d fields)", len(parts)), nil)
	}
	a.logger.Info("obtained LCU credentials from lockfile", logging.String("pid", parts[1]))
	return Credentials{Port: parts[2], Token: EncodeToken(parts[3])}, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
