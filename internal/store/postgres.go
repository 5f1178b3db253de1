package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetOption returns the stored value of an option and whether it is set.
func (s *PostgresStore) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name=$1`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read option %s: %w", name, err)
	}
	return value, true, nil
}

func (s *PostgresStore) SetOption(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO options (name, value)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
	`, name, value)
	if err != nil {
		return fmt.Errorf("save option %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, title, status, parent_id, updated_by, updated_at
		FROM documents
		WHERE type <> 'revision'
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		var item Document
		if err := rows.Scan(&item.ID, &item.Type, &item.Title, &item.Status, &item.ParentID, &item.UpdatedBy, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	var item Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, title, status, parent_id, updated_by, updated_at
		FROM documents
		WHERE id=$1
	`, documentID).Scan(&item.ID, &item.Type, &item.Title, &item.Status, &item.ParentID, &item.UpdatedBy, &item.UpdatedAt)
	if err != nil {
		return Document{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertDocument(ctx context.Context, item Document) error {
	docType := item.Type
	if docType == "" {
		docType = DocumentTypePost
	}
	status := item.Status
	if status == "" {
		status = "draft"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, type, title, status, parent_id, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, item.ID, docType, item.Title, status, item.ParentID, item.UpdatedBy)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, documentID, title, status, updatedBy string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET title=$2, status=$3, updated_by=$4, updated_at=NOW()
		WHERE id=$1
	`, documentID, title, status, updatedBy)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetDocumentMeta returns a single metadata value and whether it is set.
func (s *PostgresStore) GetDocumentMeta(ctx context.Context, documentID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT meta_value FROM document_meta WHERE document_id=$1 AND meta_key=$2
	`, documentID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read document meta %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) SetDocumentMeta(ctx context.Context, documentID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_meta (document_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, meta_key) DO UPDATE SET meta_value=EXCLUDED.meta_value, updated_at=NOW()
	`, documentID, key, value)
	if err != nil {
		return fmt.Errorf("save document meta %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	role := user.Role
	if role == "" {
		role = "viewer"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, role)
		VALUES ($1, LOWER($2), $3, $4, $5)
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash, role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM users WHERE email=LOWER($1)
	`, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, role, created_at, updated_at
		FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// SaveNonce remembers an issued form token until it expires.
func (s *PostgresStore) SaveNonce(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO form_nonces (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at=EXCLUDED.expires_at
	`, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("save nonce: %w", err)
	}
	return nil
}

// ConsumeNonce deletes a live form token and reports whether it existed.
func (s *PostgresStore) ConsumeNonce(ctx context.Context, jti string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM form_nonces WHERE jti=$1 AND expires_at > NOW()`, jti)
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume nonce rows: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM form_nonces WHERE expires_at <= NOW()`); err != nil {
		return affected == 1, fmt.Errorf("prune nonces: %w", err)
	}
	return affected == 1, nil
}
