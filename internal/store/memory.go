package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps options, documents, metadata, users and nonces in
// process memory. It mirrors PostgresStore semantics, including returning
// sql.ErrNoRows for missing rows.
type MemoryStore struct {
	mu        sync.RWMutex
	now       func() time.Time
	options   map[string]string
	documents map[string]Document
	meta      map[string]map[string]string
	users     map[string]User
	nonces    map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		options:   map[string]string{},
		documents: map[string]Document{},
		meta:      map[string]map[string]string{},
		users:     map[string]User{},
		nonces:    map[string]time.Time{},
	}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) GetOption(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.options[name]
	return value, ok, nil
}

func (s *MemoryStore) SetOption(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[name] = value
	return nil
}

func (s *MemoryStore) ListDocuments(context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if doc.IsRevision() {
			continue
		}
		items = append(items, doc)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

func (s *MemoryStore) GetDocument(_ context.Context, documentID string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return Document{}, sql.ErrNoRows
	}
	return doc, nil
}

func (s *MemoryStore) InsertDocument(_ context.Context, item Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[item.ID]; exists {
		return nil
	}
	if item.Type == "" {
		item.Type = DocumentTypePost
	}
	if item.Status == "" {
		item.Status = "draft"
	}
	item.UpdatedAt = s.now()
	s.documents[item.ID] = item
	return nil
}

func (s *MemoryStore) UpdateDocument(_ context.Context, documentID, title, status, updatedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return sql.ErrNoRows
	}
	doc.Title = title
	doc.Status = status
	doc.UpdatedBy = updatedBy
	doc.UpdatedAt = s.now()
	s.documents[documentID] = doc
	return nil
}

func (s *MemoryStore) GetDocumentMeta(_ context.Context, documentID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.meta[documentID][key]
	return value, ok, nil
}

func (s *MemoryStore) SetDocumentMeta(_ context.Context, documentID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return fmt.Errorf("save document meta %s: %w", key, sql.ErrNoRows)
	}
	if s.meta[documentID] == nil {
		s.meta[documentID] = map[string]string{}
	}
	s.meta[documentID][key] = value
	return nil
}

// DocumentMeta returns a copy of every metadata value stored for documentID.
func (s *MemoryStore) DocumentMeta(documentID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.meta[documentID]))
	for k, v := range s.meta[documentID] {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) CreateUser(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("create user: email %s already exists", user.Email)
		}
	}
	if user.Role == "" {
		user.Role = "viewer"
	}
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, sql.ErrNoRows
}

func (s *MemoryStore) GetUserByID(_ context.Context, userID string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return User{}, sql.ErrNoRows
	}
	return user, nil
}

func (s *MemoryStore) SaveNonce(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[jti] = expiresAt
	return nil
}

func (s *MemoryStore) ConsumeNonce(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.nonces[jti]
	delete(s.nonces, jti)
	return ok && s.now().Before(expiresAt), nil
}
