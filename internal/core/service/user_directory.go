package service

import (
	"context"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

// UserDirectory lists accounts for the admin user management page.
type UserDirectory struct {
	repo  ports.AccountLister
	audit *AuditLogger
}

func NewUserDirectory(repo ports.AccountLister, audit *AuditLogger) *UserDirectory {
	return &UserDirectory{repo: repo, audit: audit}
}

// ListUsers returns every account, active ones first, then by username.
func (d *UserDirectory) ListUsers(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := d.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	d.audit.PageView(ctx, "User Management")
	return accounts, nil
}
