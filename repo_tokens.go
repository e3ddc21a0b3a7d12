package taskauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tokens persists the singleton TokenRecord kept per user. Every save targets
// a single field group and leaves the other groups untouched; the record is
// created lazily on the first save for a user.
type Tokens interface {
	Get(ctx context.Context, userID uuid.UUID) (*TokenRecord, error)
	GetTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*TokenRecord, error)

	SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string) error
	SaveRefreshTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error

	SaveConfirmToken(ctx context.Context, userID uuid.UUID, token string) error
	SaveConfirmTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error

	SaveVerificationCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
	SaveVerificationCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string, expiresAt time.Time) error

	SaveResetToken(ctx context.Context, userID uuid.UUID, token string) error
	SaveResetTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error

	SaveResetCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
	SaveResetCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string, expiresAt time.Time) error

	DeleteRefreshToken(ctx context.Context, userID uuid.UUID) (bool, error)
	DeleteRefreshTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (bool, error)
}

type tokens struct {
	db *bun.DB
}

var _ Tokens = (*tokens)(nil)

func NewTokensRepository(db *bun.DB) Tokens {
	return &tokens{db: db}
}

func (t *tokens) Get(ctx context.Context, userID uuid.UUID) (*TokenRecord, error) {
	return t.GetTx(ctx, t.db, userID)
}

func (t *tokens) GetTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*TokenRecord, error) {
	record := &TokenRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (t *tokens) SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	return t.SaveRefreshTokenTx(ctx, t.db, userID, token)
}

func (t *tokens) SaveRefreshTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	record := &TokenRecord{UserID: userID, RefreshToken: token}
	return t.upsertGroup(ctx, tx, record, "refresh_token")
}

func (t *tokens) SaveConfirmToken(ctx context.Context, userID uuid.UUID, token string) error {
	return t.SaveConfirmTokenTx(ctx, t.db, userID, token)
}

func (t *tokens) SaveConfirmTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	record := &TokenRecord{UserID: userID, ConfirmToken: token}
	return t.upsertGroup(ctx, tx, record, "confirm_token")
}

func (t *tokens) SaveVerificationCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	return t.SaveVerificationCodeTx(ctx, t.db, userID, code, expiresAt)
}

func (t *tokens) SaveVerificationCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string, expiresAt time.Time) error {
	record := &TokenRecord{UserID: userID, Code: code, CodeExpiresAt: &expiresAt}
	return t.upsertGroup(ctx, tx, record, "verification_code", "verification_code_expiration")
}

func (t *tokens) SaveResetToken(ctx context.Context, userID uuid.UUID, token string) error {
	return t.SaveResetTokenTx(ctx, t.db, userID, token)
}

func (t *tokens) SaveResetTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	record := &TokenRecord{UserID: userID, ResetToken: token}
	return t.upsertGroup(ctx, tx, record, "reset_token")
}

func (t *tokens) SaveResetCode(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	return t.SaveResetCodeTx(ctx, t.db, userID, code, expiresAt)
}

func (t *tokens) SaveResetCodeTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, code string, expiresAt time.Time) error {
	record := &TokenRecord{UserID: userID, ResetCode: code, ResetExpires: &expiresAt}
	return t.upsertGroup(ctx, tx, record, "reset_code", "reset_code_expiration")
}

func (t *tokens) DeleteRefreshToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	return t.DeleteRefreshTokenTx(ctx, t.db, userID)
}

func (t *tokens) DeleteRefreshTokenTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*TokenRecord)(nil)).
		Set("refresh_token = NULL").
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// upsertGroup inserts the record or, on conflict with the existing singleton
// row, overwrites only the named columns. Reissue therefore invalidates the
// prior value of the group implicitly while unrelated groups persist.
func (t *tokens) upsertGroup(ctx context.Context, tx bun.IDB, record *TokenRecord, columns ...string) error {
	q := tx.NewInsert().
		Model(record).
		On("CONFLICT (user_id) DO UPDATE")

	for _, column := range columns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(column), bun.Ident(column))
	}
	q = q.Set("updated_at = CURRENT_TIMESTAMP")

	_, err := q.Exec(ctx)
	return err
}
