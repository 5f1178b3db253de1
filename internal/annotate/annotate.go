// Package annotate reads and writes the three content-group tags attached to
// a document: persona, funnel stage and content format.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"

	"contentgroups/api/internal/settings"
	"contentgroups/api/internal/store"
)

// Document metadata keys, which double as the edit-form field names.
const (
	MetaPersona       = "jp_analytics_persona"
	MetaFunnelStage   = "jp_analytics_funnel_stage"
	MetaContentFormat = "jp_analytics_content_format"

	NonceField = "jp_analytics_nonce"
	MetaBoxID  = "jp_analytics_meta_box"
)

var ErrNotAnnotatable = errors.New("document type does not support content groups")

type Mode int

const (
	// ModeLenient stores any sanitized value.
	ModeLenient Mode = iota
	// ModeStrict drops values that are not one of the configured options.
	ModeStrict
)

func ParseMode(raw string) Mode {
	if strings.EqualFold(strings.TrimSpace(raw), "strict") {
		return ModeStrict
	}
	return ModeLenient
}

// Annotation is the set of tags on one document. Empty means untagged.
type Annotation struct {
	Persona       string
	FunnelStage   string
	ContentFormat string
}

type taxonomy struct {
	field   string
	label   string
	options func(settings.Settings) []string
	value   func(*Annotation) *string
}

var taxonomies = []taxonomy{
	{
		field:   MetaPersona,
		label:   "Persona",
		options: func(s settings.Settings) []string { return s.Personas },
		value:   func(a *Annotation) *string { return &a.Persona },
	},
	{
		field:   MetaFunnelStage,
		label:   "Funnel Stage",
		options: func(s settings.Settings) []string { return s.FunnelStages },
		value:   func(a *Annotation) *string { return &a.FunnelStage },
	},
	{
		field:   MetaContentFormat,
		label:   "Content Format",
		options: func(s settings.Settings) []string { return s.ContentFormats },
		value:   func(a *Annotation) *string { return &a.ContentFormat },
	},
}

// Annotatable reports whether documents of docType get the content groups box.
func Annotatable(docType string) bool {
	return docType == store.DocumentTypePost || docType == store.DocumentTypePage
}

// MetaStore is the per-document metadata backend owned by the host.
type MetaStore interface {
	GetDocument(ctx context.Context, documentID string) (store.Document, error)
	GetDocumentMeta(ctx context.Context, documentID, key string) (string, bool, error)
	SetDocumentMeta(ctx context.Context, documentID, key, value string) error
}

type Annotator struct {
	settings *settings.Store
	meta     MetaStore
	tokens   *Tokens
	mode     Mode
	logger   *zap.Logger
}

func New(settingsStore *settings.Store, meta MetaStore, tokens *Tokens, mode Mode, logger *zap.Logger) *Annotator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annotator{
		settings: settingsStore,
		meta:     meta,
		tokens:   tokens,
		mode:     mode,
		logger:   logger,
	}
}

// Annotation reads the stored tags of a document; unset tags are "".
func (a *Annotator) Annotation(ctx context.Context, documentID string) (Annotation, error) {
	var out Annotation
	for _, tax := range taxonomies {
		value, _, err := a.meta.GetDocumentMeta(ctx, documentID, tax.field)
		if err != nil {
			return Annotation{}, fmt.Errorf("read %s: %w", tax.field, err)
		}
		*tax.value(&out) = value
	}
	return out, nil
}

// Selector is one select control of the content groups box.
type Selector struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
	Current string   `json:"current"`
}

func (s Selector) Selected(option string) bool {
	return option == s.Current
}

// MetaBox is everything the edit screen needs to render the content groups box.
type MetaBox struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	DocumentID string     `json:"documentId"`
	Selectors  []Selector `json:"selectors"`
	NonceField string     `json:"nonceField"`
	Nonce      string     `json:"nonce"`
}

// RenderSelector builds the content groups box for documentID as seen by
// actorID. Options are the trimmed configured entries; the current value is
// the stored tag or "".
func (a *Annotator) RenderSelector(ctx context.Context, documentID, actorID string) (MetaBox, error) {
	doc, err := a.meta.GetDocument(ctx, documentID)
	if err != nil {
		return MetaBox{}, err
	}
	if !Annotatable(doc.Type) {
		return MetaBox{}, ErrNotAnnotatable
	}

	current, err := a.Annotation(ctx, documentID)
	if err != nil {
		return MetaBox{}, err
	}
	nonce, err := a.tokens.Issue(ctx, documentID, actorID)
	if err != nil {
		return MetaBox{}, err
	}

	snapshot := a.settings.Load(ctx)
	selectors := make([]Selector, 0, len(taxonomies))
	for _, tax := range taxonomies {
		selectors = append(selectors, Selector{
			Name:    tax.field,
			Label:   tax.label,
			Options: trimAll(tax.options(snapshot)),
			Current: *tax.value(&current),
		})
	}

	return MetaBox{
		ID:         MetaBoxID,
		Title:      "Content Groups",
		DocumentID: documentID,
		Selectors:  selectors,
		NonceField: NonceField,
		Nonce:      nonce,
	}, nil
}

// SaveRequest is the edit form as submitted on document save.
type SaveRequest struct {
	DocumentID string
	ActorID    string
	Fields     url.Values
	Token      string
	// Autosave is set for background saves the editor did not initiate.
	Autosave bool
}

// Save persists the tags present in req.Fields and reports whether any tag
// was written. It never fails: a missing or invalid token, an autosave, a
// revision snapshot or an unknown document all leave the tags untouched.
// Fields absent from the submission are left as they are; present fields
// overwrite the stored value.
func (a *Annotator) Save(ctx context.Context, req SaveRequest) bool {
	log := a.logger.With(zap.String("document_id", req.DocumentID))
	if req.Autosave {
		log.Debug("skipping content groups on autosave")
		return false
	}
	doc, err := a.meta.GetDocument(ctx, req.DocumentID)
	if err != nil {
		log.Warn("skipping content groups, document lookup failed", zap.Error(err))
		return false
	}
	if doc.IsRevision() {
		log.Debug("skipping content groups on revision")
		return false
	}
	if !a.tokens.Verify(ctx, req.Token, req.DocumentID, req.ActorID) {
		log.Debug("skipping content groups, invalid form token")
		return false
	}

	var snapshot settings.Settings
	if a.mode == ModeStrict {
		snapshot = a.settings.Load(ctx)
	}

	saved := false
	for _, tax := range taxonomies {
		values, present := req.Fields[tax.field]
		if !present {
			continue
		}
		value := ""
		if len(values) > 0 {
			value = SanitizeText(values[0])
		}
		if a.mode == ModeStrict && !slices.Contains(trimAll(tax.options(snapshot)), value) {
			log.Info("dropping content group outside configured options", zap.String("field", tax.field), zap.String("value", value))
			continue
		}
		if err := a.meta.SetDocumentMeta(ctx, req.DocumentID, tax.field, value); err != nil {
			log.Warn("content group not saved", zap.String("field", tax.field), zap.Error(err))
			continue
		}
		saved = true
	}
	return saved
}

func trimAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.TrimSpace(item)
	}
	return out
}
