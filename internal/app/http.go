package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"contentgroups/api/internal/authpw"
	"contentgroups/api/internal/rbac"
	"contentgroups/api/internal/settings"
	"contentgroups/api/internal/store"
)

const settingsPageTitle = "Google Analytics for Content Marketers"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{.Head}}</head>
<body>
{{- if .Document}}
<article id="{{.Document.ID}}" class="type-{{.Document.Type}}">
<h1>{{.Document.Title}}</h1>
</article>
{{- else}}
<ul>
{{- range .Documents}}
<li><a href="/documents/{{.ID}}">{{.Title}}</a></li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`))

type pageView struct {
	Title     string
	Head      template.HTML
	Document  *store.Document
	Documents []store.Document
}

type HTTPServer struct {
	service    *Service
	corsOrigin string
	siteName   string
	logger     *zap.Logger
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		siteName:   service.cfg.SiteName,
		logger:     service.logger.Named("http"),
	}
}

func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRequestID)
	r.Use(s.withAccessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(s.corsOrigin, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/api/ready", s.handleReady)
	r.Post("/api/auth/signin", s.handleAuthSignIn)
	r.Get("/api/session", s.handleSession)

	r.Get("/documents", s.handleIndexPage)
	r.Get("/documents/{documentID}", s.handleDocumentPage)
	r.Get("/api/documents/{documentID}/tracking-script", s.handleTrackingScript)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAction(rbac.ActionEditPosts))
			r.Get("/documents", s.handleListDocuments)
			r.Post("/documents", s.handleCreateDocument)
			r.Get("/documents/{documentID}/content-groups", s.handleContentGroups)
			r.Post("/documents/{documentID}/save", s.handleSaveDocument)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAction(rbac.ActionManageOptions))
			r.Get("/settings", s.handleSettings)
			r.Post("/options", s.handleSaveOptions)
			r.Get("/plugins/action-links", s.handleActionLinks)
		})
	})

	return r
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}
	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}
	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	session, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		if !errors.Is(err, authpw.ErrInvalidCredentials) {
			s.logger.Warn("sign in failed", zap.Error(err))
		}
		s.writeMappedError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     session.Token,
		"userId":    session.UserID,
		"userName":  session.UserName,
		"role":      session.Role,
		"expiresAt": session.ExpiresAt.Unix(),
	})
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	token := requestToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
		return
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "userName": session.UserName, "userId": session.UserID, "role": session.Role})
}

func (s *HTTPServer) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	page, documents, err := s.service.RenderIndex(r.Context(), s.visitorAuthenticated(r))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writePage(w, pageView{
		Title:     s.siteName,
		Head:      template.HTML(page.Head),
		Documents: documents,
	})
}

func (s *HTTPServer) handleDocumentPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.RenderPage(r.Context(), chi.URLParam(r, "documentID"), true, s.visitorAuthenticated(r))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writePage(w, pageView{
		Title:    page.Document.Title + " | " + s.siteName,
		Head:     template.HTML(page.Head),
		Document: &page.Document,
	})
}

func (s *HTTPServer) handleTrackingScript(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.RenderPage(r.Context(), chi.URLParam(r, "documentID"), true, s.visitorAuthenticated(r))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page.Head))
}

func (s *HTTPServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	documents, err := s.service.ListDocuments(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(documents))
	for _, doc := range documents {
		items = append(items, documentJSON(doc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": items})
}

func (s *HTTPServer) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var body CreateDocumentInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	doc, err := s.service.CreateDocument(r.Context(), body, sessionFrom(r).UserID)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentJSON(doc))
}

func (s *HTTPServer) handleContentGroups(w http.ResponseWriter, r *http.Request) {
	box, err := s.service.ContentGroupsBox(r.Context(), chi.URLParam(r, "documentID"), sessionFrom(r).UserID)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, box)
}

func (s *HTTPServer) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid form body", nil)
		return
	}
	annotated, err := s.service.SaveDocument(r.Context(), chi.URLParam(r, "documentID"), sessionFrom(r).UserID, r.PostForm)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "annotated": annotated})
}

func (s *HTTPServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	form := s.service.SettingsForm(r.Context())
	sections := make([]map[string]any, 0, len(form))
	for _, section := range form {
		fields := make([]map[string]any, 0, len(section.Values))
		for _, value := range section.Values {
			field := map[string]any{
				"name":  value.Name,
				"label": value.Label,
				"kind":  value.Kind,
				"value": value.Value,
			}
			if value.Placeholder != "" {
				field["placeholder"] = value.Placeholder
			}
			if value.Kind == settings.KindCheckbox {
				field["checked"] = value.Checked
			}
			fields = append(fields, field)
		}
		sections = append(sections, map[string]any{
			"id":          section.ID,
			"title":       section.Title,
			"description": section.Description,
			"fields":      fields,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":    settingsPageTitle,
		"page":     settings.PageSlug,
		"group":    settings.Group,
		"sections": sections,
	})
}

func (s *HTTPServer) handleSaveOptions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid form body", nil)
		return
	}
	if err := s.service.SaveOptions(r.Context(), r.PostForm); err != nil {
		s.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleActionLinks(w http.ResponseWriter, _ *http.Request) {
	existing := []Link{{Label: "Deactivate", URL: adminURL(s.service.cfg.AdminURL, "plugins.php", url.Values{"action": {"deactivate"}, "plugin": {settings.PageSlug}})}}
	writeJSON(w, http.StatusOK, map[string]any{"links": s.service.ActionLinks(existing)})
}

func (s *HTTPServer) writePage(w http.ResponseWriter, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := pageTemplate.Execute(w, view); err != nil {
		s.logger.Warn("render page", zap.Error(err))
	}
}

func (s *HTTPServer) writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, code, message, details)
}

func documentJSON(doc store.Document) map[string]any {
	return map[string]any{
		"id":        doc.ID,
		"type":      doc.Type,
		"title":     doc.Title,
		"status":    doc.Status,
		"parentId":  doc.ParentID,
		"updatedBy": doc.UpdatedBy,
		"updatedAt": doc.UpdatedAt,
	}
}

func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID)))
	})
}

func (s *HTTPServer) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		writer := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(writer, r)

		status := writer.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(started).Milliseconds()),
		)
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
