package ledger

import (
	"context"
	"fmt"
	"time"

	"month-end-close-backend/internal/models"
)

// CredentialProvider returns a usable bearer credential for an org.
type CredentialProvider interface {
	GetValidCredential(ctx context.Context, orgID string) (Credential, error)
}

// ConnectionStore loads and stores ledger connections. Get returns nil, nil when absent.
type ConnectionStore interface {
	Get(ctx context.Context, orgID string) (*models.LedgerConnection, error)
	Save(ctx context.Context, conn *models.LedgerConnection) error
}

// TokenRefresher exchanges a connection's refresh token for a new access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, conn *models.LedgerConnection) (*models.LedgerConnection, error)
}

// DBCredentialProvider serves stored connections and refreshes them when they are
// within skew of expiry.
type DBCredentialProvider struct {
	store     ConnectionStore
	refresher TokenRefresher
	skew      time.Duration
	now       func() time.Time
}

func NewDBCredentialProvider(store ConnectionStore, refresher TokenRefresher) *DBCredentialProvider {
	return &DBCredentialProvider{
		store:     store,
		refresher: refresher,
		skew:      time.Minute,
		now:       time.Now,
	}
}

func (p *DBCredentialProvider) GetValidCredential(ctx context.Context, orgID string) (Credential, error) {
	conn, err := p.store.Get(ctx, orgID)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to load ledger connection for org %s: %w", orgID, err)
	}
	if conn == nil {
		return Credential{}, fmt.Errorf("%w: %s", ErrNoConnection, orgID)
	}

	if !conn.ExpiresAt.IsZero() && p.now().Add(p.skew).After(conn.ExpiresAt) {
		if p.refresher == nil {
			return Credential{}, fmt.Errorf("%w: org %s", ErrCredentialExpired, orgID)
		}
		refreshed, err := p.refresher.Refresh(ctx, conn)
		if err != nil {
			return Credential{}, fmt.Errorf("failed to refresh ledger credential for org %s: %w", orgID, err)
		}
		if err := p.store.Save(ctx, refreshed); err != nil {
			return Credential{}, fmt.Errorf("failed to store refreshed credential for org %s: %w", orgID, err)
		}
		conn = refreshed
	}

	return Credential{AccessToken: conn.AccessToken, RealmID: conn.RealmID}, nil
}
