package store

import (
	"context"
	"testing"
	"time"
)

func TestPostgresStoreOptionsAndMeta(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := ApplyMigrations(ctx, db, Migrations("")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	s := NewPostgresStore(db)

	if _, ok, err := s.GetOption(ctx, "jp_analytics_settings_personas"); err != nil || ok {
		t.Fatalf("expected unset option, got ok=%v err=%v", ok, err)
	}
	if err := s.SetOption(ctx, "jp_analytics_settings_personas", "Default\nChampion"); err != nil {
		t.Fatalf("SetOption() error = %v", err)
	}
	value, ok, err := s.GetOption(ctx, "jp_analytics_settings_personas")
	if err != nil || !ok || value != "Default\nChampion" {
		t.Fatalf("unexpected option %q ok=%v err=%v", value, ok, err)
	}

	if err := s.InsertDocument(ctx, Document{ID: "doc-1", Type: DocumentTypePage, Title: "Pricing"}); err != nil {
		t.Fatalf("InsertDocument() error = %v", err)
	}
	if err := s.SetDocumentMeta(ctx, "doc-1", "jp_analytics_persona", "Champion"); err != nil {
		t.Fatalf("SetDocumentMeta() error = %v", err)
	}
	if err := s.SetDocumentMeta(ctx, "doc-1", "jp_analytics_persona", "Skeptic"); err != nil {
		t.Fatalf("SetDocumentMeta() overwrite error = %v", err)
	}
	meta, ok, err := s.GetDocumentMeta(ctx, "doc-1", "jp_analytics_persona")
	if err != nil || !ok || meta != "Skeptic" {
		t.Fatalf("unexpected meta %q ok=%v err=%v", meta, ok, err)
	}

	if err := s.SaveNonce(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveNonce() error = %v", err)
	}
	if consumed, err := s.ConsumeNonce(ctx, "jti-1"); err != nil || !consumed {
		t.Fatalf("expected nonce consumed, got %v err=%v", consumed, err)
	}
	if consumed, err := s.ConsumeNonce(ctx, "jti-1"); err != nil || consumed {
		t.Fatalf("expected nonce already consumed, got %v err=%v", consumed, err)
	}
}
