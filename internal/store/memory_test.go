package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreOptions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.GetOption(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected unset option, got ok=%v err=%v", ok, err)
	}
	if err := s.SetOption(ctx, "name", ""); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}
	value, ok, err := s.GetOption(ctx, "name")
	if err != nil || !ok || value != "" {
		t.Fatalf("expected empty but set option, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestMemoryStoreDocumentMeta(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SetDocumentMeta(ctx, "doc-1", "k", "v"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for unknown document, got %v", err)
	}
	if err := s.InsertDocument(ctx, Document{ID: "doc-1", Title: "Hello"}); err != nil {
		t.Fatalf("InsertDocument() error = %v", err)
	}
	doc, err := s.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Type != DocumentTypePost || doc.Status != "draft" {
		t.Fatalf("expected post/draft defaults, got %s/%s", doc.Type, doc.Status)
	}
	if err := s.SetDocumentMeta(ctx, "doc-1", "k", "v1"); err != nil {
		t.Fatalf("SetDocumentMeta() error = %v", err)
	}
	if err := s.SetDocumentMeta(ctx, "doc-1", "k", "v2"); err != nil {
		t.Fatalf("SetDocumentMeta() error = %v", err)
	}
	value, ok, err := s.GetDocumentMeta(ctx, "doc-1", "k")
	if err != nil || !ok || value != "v2" {
		t.Fatalf("expected overwritten value v2, got %q ok=%v err=%v", value, ok, err)
	}
}

func TestMemoryStoreListSkipsRevisions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	parent := "doc-1"
	_ = s.InsertDocument(ctx, Document{ID: "doc-1", Type: DocumentTypePage})
	_ = s.InsertDocument(ctx, Document{ID: "rev-1", Type: DocumentTypeRevision, ParentID: &parent})

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Fatalf("expected only doc-1, got %+v", docs)
	}
}

func TestMemoryStoreUsersCaseInsensitiveEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreateUser(ctx, User{ID: "u1", Email: "Avery@Example.com", DisplayName: "Avery"}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := s.CreateUser(ctx, User{ID: "u2", Email: "avery@example.com"}); err == nil {
		t.Fatal("expected duplicate email to fail")
	}
	user, err := s.GetUserByEmail(ctx, "AVERY@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if user.ID != "u1" || user.Role != "viewer" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestMemoryStoreNoncesAreSingleUse(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	_ = s.SaveNonce(ctx, "live", now.Add(time.Minute))
	_ = s.SaveNonce(ctx, "stale", now.Add(-time.Minute))

	if ok, _ := s.ConsumeNonce(ctx, "live"); !ok {
		t.Fatal("expected live nonce to be consumed")
	}
	if ok, _ := s.ConsumeNonce(ctx, "live"); ok {
		t.Fatal("expected second consume to fail")
	}
	if ok, _ := s.ConsumeNonce(ctx, "stale"); ok {
		t.Fatal("expected expired nonce to be rejected")
	}
}
