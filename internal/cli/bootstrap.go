// Package cli provides CLI commands for the UMIG application.
package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/wire"
)

// globalActor stores the acting user code for the current CLI invocation.
// Set once at startup by Bootstrap.
var globalActor string

// resolveActor picks the user code from --user, then $UMIG_USER.
func resolveActor(flag string) string {
	if v := strings.TrimSpace(flag); v != "" {
		return strings.ToUpper(v)
	}
	return strings.ToUpper(strings.TrimSpace(os.Getenv("UMIG_USER")))
}

// Bootstrap records the actor and initializes the services.
// Should be called once at CLI startup in PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	globalActor = resolveActor(user)
	return wire.Init()
}

// NewContext creates a context.Background() with the acting user code embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() context.Context {
	ctx := context.Background()
	if globalActor != "" {
		return ctxutil.WithActor(ctx, globalActor)
	}
	return ctx
}
