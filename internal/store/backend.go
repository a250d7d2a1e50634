package store

import (
	"context"
	"fmt"
	"log/slog"

	"leaveportal/internal/config"
	"leaveportal/internal/leave"
)

// Open builds the leave backend selected by cfg.StoreBackend. It does not
// initialize it; run Init explicitly on first deployment.
func Open(ctx context.Context, cfg config.App, logger *slog.Logger) (leave.Backend, error) {
	switch cfg.StoreBackend {
	case "", "file":
		return leave.NewFileStore(leave.FilePaths{
			StudentCredentials: cfg.StudentCredentialsFile,
			HODCredentials:     cfg.HODCredentialsFile,
			Applications:       cfg.LeaveApplicationsFile,
		}, logger), nil
	case "sqlite":
		db, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return leave.NewSQLStore(db, leave.DialectSQLite), nil
	case "postgres":
		db, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return leave.NewSQLStore(db, leave.DialectPostgres), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
