package keychain

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/deviceid/internal/common"
	"github.com/dmitrijs2005/deviceid/internal/cryptox"
	"github.com/dmitrijs2005/deviceid/internal/dbx"
	"github.com/dmitrijs2005/deviceid/internal/storage/prefs"
)

var ErrWrongSecret = errors.New("keychain secret does not match stored verifier")

// SQLStore keeps entries in the keychain table, sealed with a key derived
// from the store secret and the salt kept in preferences.
type SQLStore struct {
	db      *sql.DB
	dialect dbx.Dialect
	key     []byte
}

// NewSQLStore derives the encryption key and checks it against the stored
// verifier. The first call on an empty database records the verifier.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect dbx.Dialect, secret string, p *prefs.Store) (*SQLStore, error) {
	salt, err := p.Salt(ctx)
	if err != nil {
		return nil, fmt.Errorf("keychain salt: %w", err)
	}

	pass := []byte(secret)
	key := cryptox.DeriveKey(pass, salt)
	common.WipeByteArray(pass)
	verifier := cryptox.MakeVerifier(key)

	stored, err := p.Verifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("keychain verifier: %w", err)
	}
	if stored == nil {
		if err := p.SetVerifier(ctx, verifier); err != nil {
			return nil, fmt.Errorf("keychain verifier: %w", err)
		}
	} else if !bytes.Equal(stored, verifier) {
		return nil, ErrWrongSecret
	}

	return &SQLStore{db: db, dialect: dialect, key: key}, nil
}

func (s *SQLStore) Get(ctx context.Context, service, account string) (string, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT value FROM keychain WHERE service = ? AND account = ?`),
		service, account).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keychain[%s/%s]: %w", service, account, err)
	}

	plain, err := cryptox.Open(sealed, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to open keychain[%s/%s]: %w", service, account, err)
	}
	defer common.WipeByteArray(plain)
	return string(plain), nil
}

// Set replaces any existing entry: the old row is deleted and the new one
// inserted in a single transaction.
func (s *SQLStore) Set(ctx context.Context, service, account, value string) error {
	plain := []byte(value)
	sealed, err := cryptox.Seal(plain, s.key)
	common.WipeByteArray(plain)
	if err != nil {
		return fmt.Errorf("failed to seal keychain[%s/%s]: %w", service, account, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			s.dialect.Rebind(`DELETE FROM keychain WHERE service = ? AND account = ?`),
			service, account); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			s.dialect.Rebind(`INSERT INTO keychain (service, account, value) VALUES (?, ?, ?)`),
			service, account, sealed)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write keychain[%s/%s]: %w", service, account, err)
	}
	return nil
}

// Delete removes the entry. Deleting a missing entry is not an error.
func (s *SQLStore) Delete(ctx context.Context, service, account string) error {
	_, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(`DELETE FROM keychain WHERE service = ? AND account = ?`),
		service, account)
	if err != nil {
		return fmt.Errorf("failed to delete keychain[%s/%s]: %w", service, account, err)
	}
	return nil
}
