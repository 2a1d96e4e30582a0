package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicer/internal/auth/domain"
	"github.com/smallbiznis/invoicer/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	users    repository.Repository[domain.User]
	sessions repository.Repository[domain.Session]
}

func New(db *gorm.DB) (domain.Repository, domain.SessionRepository) {
	r := &repo{
		users:    repository.ProvideStore[domain.User](db),
		sessions: repository.ProvideStore[domain.Session](db),
	}
	return r, r
}

func (r *repo) Create(ctx context.Context, user *domain.User) error {
	return r.users.Create(ctx, user)
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, &domain.User{Email: email})
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return r.findUser(ctx, &domain.User{ID: id})
}

func (r *repo) findUser(ctx context.Context, query *domain.User) (*domain.User, error) {
	user, err := r.users.FindOne(ctx, query)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *repo) UpdatePasswordHash(ctx context.Context, id snowflake.ID, hash string, updatedAt time.Time) error {
	rows, err := r.users.Update(ctx, id, map[string]any{
		"password_hash": hash,
		"updated_at":    updatedAt,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *repo) CreateSession(ctx context.Context, session *domain.Session) error {
	return r.sessions.Create(ctx, session)
}

func (r *repo) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	session, err := r.sessions.FindOne(ctx, &domain.Session{SessionTokenHash: tokenHash})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *repo) UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error {
	return r.updateSession(ctx, sessionID, "last_seen_at", lastSeen)
}

func (r *repo) RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error {
	return r.updateSession(ctx, sessionID, "revoked_at", revokedAt)
}

func (r *repo) updateSession(ctx context.Context, sessionID snowflake.ID, column string, value time.Time) error {
	rows, err := r.sessions.Update(ctx, sessionID, map[string]any{column: value})
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
