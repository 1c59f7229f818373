package logx

import (
	"context"

	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithTab annotates the logger with the tab id if present.
func WithTab(log pslog.Logger, tabID schema.TabID) pslog.Logger {
	if tabID != "" {
		log = log.With("tab", tabID)
	}
	return log
}

// WithProfile annotates the logger with profile metadata when available.
func WithProfile(log pslog.Logger, id schema.ProfileID, name string) pslog.Logger {
	if id != "" {
		log = log.With("profile", id)
	}
	if name != "" {
		log = log.With("profile_name", name)
	}
	return log
}

// ContextWithLogger attaches the logger to the context.
func ContextWithLogger(ctx context.Context, log pslog.Logger) context.Context {
	return pslog.ContextWithLogger(ctx, log)
}
