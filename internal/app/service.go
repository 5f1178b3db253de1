package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"contentgroups/api/internal/annotate"
	"contentgroups/api/internal/auth"
	"contentgroups/api/internal/authpw"
	"contentgroups/api/internal/config"
	"contentgroups/api/internal/hooks"
	"contentgroups/api/internal/rbac"
	"contentgroups/api/internal/settings"
	"contentgroups/api/internal/store"
	"contentgroups/api/internal/tracking"
	"contentgroups/api/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	UserName  string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// Link is an entry in the plugin list row of the admin.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Page is a rendered document view.
type Page struct {
	Document store.Document
	Singular bool
	// Head holds everything render hooks wrote into <head>.
	Head string
}

// DataStore is everything the service persists: options, documents, their
// metadata, users and form token ids.
type DataStore interface {
	Ping(ctx context.Context) error
	GetOption(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
	ListDocuments(ctx context.Context) ([]store.Document, error)
	GetDocument(ctx context.Context, documentID string) (store.Document, error)
	InsertDocument(ctx context.Context, item store.Document) error
	UpdateDocument(ctx context.Context, documentID, title, status, updatedBy string) error
	GetDocumentMeta(ctx context.Context, documentID, key string) (string, bool, error)
	SetDocumentMeta(ctx context.Context, documentID, key, value string) error
	CreateUser(ctx context.Context, user store.User) error
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	SaveNonce(ctx context.Context, jti string, expiresAt time.Time) error
	ConsumeNonce(ctx context.Context, jti string) (bool, error)
}

type Service struct {
	cfg       config.Config
	store     DataStore
	settings  *settings.Store
	annotator *annotate.Annotator
	hooks     *hooks.Registry
	authPw    *authpw.Service
	logger    *zap.Logger
}

// New builds a service whose form tokens are tracked in the data store.
func New(cfg config.Config, dataStore DataStore, logger *zap.Logger) *Service {
	return NewWithNonceStore(cfg, dataStore, dataStore, logger)
}

// NewWithNonceStore builds a service with a separate store for single-use
// form tokens, such as Redis.
func NewWithNonceStore(cfg config.Config, dataStore DataStore, nonces annotate.NonceStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	settingsStore := settings.NewStore(dataStore, logger.Named("settings"))
	tokens := annotate.NewTokens(cfg.TokenSecret, cfg.NonceTTL, nonces, logger.Named("tokens"))
	s := &Service{
		cfg:       cfg,
		store:     dataStore,
		settings:  settingsStore,
		annotator: annotate.New(settingsStore, dataStore, tokens, annotate.ParseMode(cfg.ValidationMode), logger.Named("annotate")),
		hooks:     hooks.NewRegistry(logger.Named("hooks")),
		authPw:    authpw.NewService(dataStore),
		logger:    logger,
	}
	s.registerHooks()
	return s
}

func (s *Service) registerHooks() {
	s.hooks.OnSettingsRegistered("content-groups-settings", func(_ context.Context, sections []settings.Section) error {
		for _, section := range sections {
			s.logger.Debug("settings section registered",
				zap.String("section", section.ID),
				zap.Int("fields", len(section.Fields)))
		}
		return nil
	})

	s.hooks.OnSave("content-groups", func(ctx context.Context, event *hooks.SaveEvent) error {
		event.Annotated = s.annotator.Save(ctx, annotate.SaveRequest{
			DocumentID: event.DocumentID,
			ActorID:    event.ActorID,
			Fields:     event.Form,
			Token:      event.Form.Get(annotate.NonceField),
			Autosave:   event.Autosave,
		})
		return nil
	})

	s.hooks.OnRender("tracking-script", func(ctx context.Context, event *hooks.RenderEvent) error {
		page := tracking.Page{DocumentType: event.Document.Type, Singular: event.Singular}
		if page.Singular && annotate.Annotatable(page.DocumentType) {
			annotation, err := s.annotator.Annotation(ctx, event.Document.ID)
			if err != nil {
				s.logger.Warn("content groups unavailable, rendering without them",
					zap.String("document_id", event.Document.ID),
					zap.Error(err))
				annotation = annotate.Annotation{}
			}
			page.Annotation = annotation
		}
		_, err := event.Head.Write([]byte(tracking.Emit(event.Settings, page, event.Authenticated)))
		return err
	})
}

// Bootstrap announces the settings page and applies the optional seed values.
func (s *Service) Bootstrap(ctx context.Context, seed map[string]string) error {
	s.hooks.SettingsRegistered(ctx, settings.Sections())
	if len(seed) == 0 {
		return nil
	}
	written, err := s.settings.Seed(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if len(written) > 0 {
		s.logger.Info("seeded settings", zap.Strings("options", written))
	}
	return nil
}

func (s *Service) Hooks() *hooks.Registry {
	return s.hooks
}

func (s *Service) Settings() *settings.Store {
	return s.settings
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authPw.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(user)
}

func (s *Service) CreateUser(ctx context.Context, req authpw.CreateUserRequest) (store.User, error) {
	return s.authPw.CreateUser(ctx, req)
}

func (s *Service) issueSession(user store.User) (Session, error) {
	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	jti := util.NewID(util.PrefixSession)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		Role: user.Role,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// ActionLinks appends the settings page link to the links the host already
// shows for the plugin.
func (s *Service) ActionLinks(existing []Link) []Link {
	out := make([]Link, 0, len(existing)+1)
	out = append(out, existing...)
	return append(out, Link{
		Label: "Settings",
		URL:   adminURL(s.cfg.AdminURL, "options-general.php", url.Values{"page": {settings.PageSlug}}),
	})
}

func adminURL(base, path string, query url.Values) string {
	if base == "" {
		base = "/wp-admin/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + path + "?" + query.Encode()
}

func (s *Service) ListDocuments(ctx context.Context) ([]store.Document, error) {
	documents, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

type CreateDocumentInput struct {
	Type     string  `json:"type"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	ParentID *string `json:"parentId"`
}

func (s *Service) CreateDocument(ctx context.Context, input CreateDocumentInput, actorID string) (store.Document, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return store.Document{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", map[string]any{"field": "title"})
	}
	docType := strings.TrimSpace(input.Type)
	if docType == "" {
		docType = store.DocumentTypePost
	}
	if docType != store.DocumentTypeRevision || (input.ParentID != nil && strings.TrimSpace(*input.ParentID) == "") {
		input.ParentID = nil
	}
	if docType == store.DocumentTypeRevision {
		if input.ParentID == nil || strings.TrimSpace(*input.ParentID) == "" {
			return store.Document{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "revisions need a parent document", map[string]any{"field": "parentId"})
		}
		if _, err := s.store.GetDocument(ctx, *input.ParentID); err != nil {
			return store.Document{}, err
		}
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "draft"
	}

	doc := store.Document{
		ID:        util.NewID(util.PrefixDocument),
		Type:      docType,
		Title:     title,
		Status:    status,
		ParentID:  input.ParentID,
		UpdatedBy: actorID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return store.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// ContentGroupsBox returns the edit-screen box for documentID.
func (s *Service) ContentGroupsBox(ctx context.Context, documentID, actorID string) (annotate.MetaBox, error) {
	box, err := s.annotator.RenderSelector(ctx, documentID, actorID)
	if errors.Is(err, annotate.ErrNotAnnotatable) {
		return annotate.MetaBox{}, domainError(http.StatusUnprocessableEntity, "NOT_ANNOTATABLE", "Content groups are only available on posts and pages", nil)
	}
	return box, err
}

// SaveDocument applies the host part of an edit-form submission (title and
// status) and then fires the save hook. It reports whether content groups
// were written.
func (s *Service) SaveDocument(ctx context.Context, documentID, actorID string, form url.Values) (bool, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return false, err
	}
	title := doc.Title
	if form.Has("title") {
		title = strings.TrimSpace(form.Get("title"))
	}
	status := doc.Status
	if form.Has("status") {
		status = strings.TrimSpace(form.Get("status"))
	}
	if err := s.store.UpdateDocument(ctx, documentID, title, status, actorID); err != nil {
		return false, fmt.Errorf("update document: %w", err)
	}

	event := &hooks.SaveEvent{
		DocumentID: documentID,
		ActorID:    actorID,
		Form:       form,
		Autosave:   isTrue(form.Get("autosave")),
	}
	s.hooks.Save(ctx, event)
	return event.Annotated, nil
}

// RenderPage runs the render hooks for a document view. Singular is false for
// listing views.
func (s *Service) RenderPage(ctx context.Context, documentID string, singular, authenticated bool) (Page, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return Page{}, err
	}
	return s.render(ctx, doc, singular, authenticated), nil
}

// RenderIndex runs the render hooks for the document listing.
func (s *Service) RenderIndex(ctx context.Context, authenticated bool) (Page, []store.Document, error) {
	documents, err := s.ListDocuments(ctx)
	if err != nil {
		return Page{}, nil, err
	}
	return s.render(ctx, store.Document{}, false, authenticated), documents, nil
}

func (s *Service) render(ctx context.Context, doc store.Document, singular, authenticated bool) Page {
	var head bytes.Buffer
	s.hooks.Render(ctx, &hooks.RenderEvent{
		Document:      doc,
		Singular:      singular,
		Authenticated: authenticated,
		Settings:      s.settings.Load(ctx),
		Head:          &head,
	})
	return Page{Document: doc, Singular: singular, Head: head.String()}
}

func (s *Service) SettingsForm(ctx context.Context) []settings.SectionValues {
	return s.settings.Form(ctx)
}

// SaveOptions is the options-save endpoint of the settings page.
func (s *Service) SaveOptions(ctx context.Context, form url.Values) error {
	if form.Get("option_page") != settings.Group {
		return domainError(http.StatusBadRequest, "INVALID_OPTION_PAGE", "Unknown option page", map[string]any{"option_page": form.Get("option_page")})
	}
	return s.settings.ApplyForm(ctx, form)
}

func isTrue(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
