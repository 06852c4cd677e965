// internal/runtime/auth.go
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mbrt/gmailctl/cmd/gmailctl/localcred"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/replyrelay/internal/gmail"
)

type AuthMode string

const (
	// AuthServiceAccount impersonates a Workspace user through domain-wide delegation.
	AuthServiceAccount AuthMode = "service-account"
	// AuthLocal reuses gmailctl's locally stored OAuth token. That token is
	// scoped to labels and settings, so it can list labels but not read mail.
	AuthLocal AuthMode = "local"
)

// Scopes requested for the delegated service identity.
var Scopes = []string{gmail.GmailModifyScope, gmail.GmailReadonlyScope}

type AuthConfig struct {
	Mode        AuthMode
	KeyFile     string // service account JSON key
	Subject     string // mailbox owner to impersonate
	GmailctlDir string
}

func NewGmailClient(ctx context.Context, cfg AuthConfig) (gc.Client, error) {
	var (
		svc *gmail.Service
		err error
	)
	switch cfg.Mode {
	case AuthServiceAccount, "":
		svc, err = serviceAccountService(ctx, cfg.KeyFile, cfg.Subject)
	case AuthLocal:
		svc, err = (localcred.Provider{}).Service(ctx, cfg.GmailctlDir)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}
	return NewGoogleAPIClient(svc), nil
}

func serviceAccountService(ctx context.Context, keyFile, subject string) (*gmail.Service, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	jwt.Subject = subject
	svc, err := gmail.NewService(ctx, option.WithTokenSource(jwt.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

func DefaultLogger() *slog.Logger {
	return NewLogger(slog.LevelInfo)
}

func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
