package ports

import "context"

// AuditRecorder is the part of the audit logger handlers call directly, for
// events that have no service behind them.
type AuditRecorder interface {
	PageView(ctx context.Context, page string)
	Export(ctx context.Context, period, format string)
}
