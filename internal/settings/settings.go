// Package settings is the typed accessor over the option backend: every read
// resolves to the persisted value or to a hardcoded default.
package settings

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Option names, as posted by the settings form and stored in the backend.
const (
	OptionTrackingID     = "jp_analytics_settings_ga_tracking_id"
	OptionTrackLoggedIn  = "jp_analytics_settings_track_logged_in"
	OptionAnonymizeIP    = "jp_analytics_settings_anonymize_ip"
	OptionPersonas       = "jp_analytics_settings_personas"
	OptionFunnelStages   = "jp_analytics_settings_funnel_stages"
	OptionContentFormats = "jp_analytics_settings_content_formats"
)

var (
	DefaultPersonas       = []string{"Default"}
	DefaultFunnelStages   = []string{"Other", "Awareness", "Consideration", "Decision", "Retention"}
	DefaultContentFormats = []string{"Other", "Article", "Infographic", "Podcast", "Video", "Lead Generation Page", "Sales Page"}
)

var defaults = map[string]string{
	OptionTrackingID:     "",
	OptionTrackLoggedIn:  "0",
	OptionAnonymizeIP:    "1",
	OptionPersonas:       JoinList(DefaultPersonas),
	OptionFunnelStages:   JoinList(DefaultFunnelStages),
	OptionContentFormats: JoinList(DefaultContentFormats),
}

// Default returns the hardcoded default for an option, or "" for unknown names.
func Default(name string) string {
	return defaults[name]
}

// Backend is the key/value option store owned by the host.
type Backend interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
}

type Store struct {
	backend Backend
	logger  *zap.Logger
}

func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Get returns the persisted value of name, or its default when unset. A
// backend failure is logged and also resolves to the default.
func (s *Store) Get(ctx context.Context, name string) string {
	value, ok, err := s.backend.GetOption(ctx, name)
	if err != nil {
		s.logger.Warn("option read failed, using default", zap.String("option", name), zap.Error(err))
		return Default(name)
	}
	if !ok {
		return Default(name)
	}
	return value
}

func (s *Store) GetTrackingID(ctx context.Context) string {
	return s.Get(ctx, OptionTrackingID)
}

func (s *Store) TrackLoggedIn(ctx context.Context) bool {
	return ToBool(s.Get(ctx, OptionTrackLoggedIn))
}

func (s *Store) AnonymizeIP(ctx context.Context) bool {
	return ToBool(s.Get(ctx, OptionAnonymizeIP))
}

func (s *Store) GetPersonas(ctx context.Context) []string {
	return ParseList(s.Get(ctx, OptionPersonas))
}

func (s *Store) GetFunnelStages(ctx context.Context) []string {
	return ParseList(s.Get(ctx, OptionFunnelStages))
}

func (s *Store) GetContentFormats(ctx context.Context) []string {
	return ParseList(s.Get(ctx, OptionContentFormats))
}

// Load reads every option once into an immutable snapshot.
func (s *Store) Load(ctx context.Context) Settings {
	return Settings{
		TrackingID:     s.GetTrackingID(ctx),
		TrackLoggedIn:  s.TrackLoggedIn(ctx),
		AnonymizeIP:    s.AnonymizeIP(ctx),
		Personas:       s.GetPersonas(ctx),
		FunnelStages:   s.GetFunnelStages(ctx),
		ContentFormats: s.GetContentFormats(ctx),
	}
}

// Seed writes each value whose option is not yet set. It returns the names
// it wrote.
func (s *Store) Seed(ctx context.Context, values map[string]string) ([]string, error) {
	var written []string
	for _, field := range Fields() {
		value, ok := values[field.Name]
		if !ok {
			continue
		}
		_, exists, err := s.backend.GetOption(ctx, field.Name)
		if err != nil {
			return written, err
		}
		if exists {
			continue
		}
		if err := s.backend.SetOption(ctx, field.Name, value); err != nil {
			return written, err
		}
		written = append(written, field.Name)
	}
	return written, nil
}

// Settings is a per-request snapshot of every option.
type Settings struct {
	TrackingID     string
	TrackLoggedIn  bool
	AnonymizeIP    bool
	Personas       []string
	FunnelStages   []string
	ContentFormats []string
}

// Defaults returns the snapshot produced by an empty backend.
func Defaults() Settings {
	return Settings{
		TrackingID:     Default(OptionTrackingID),
		TrackLoggedIn:  ToBool(Default(OptionTrackLoggedIn)),
		AnonymizeIP:    ToBool(Default(OptionAnonymizeIP)),
		Personas:       ParseList(Default(OptionPersonas)),
		FunnelStages:   ParseList(Default(OptionFunnelStages)),
		ContentFormats: ParseList(Default(OptionContentFormats)),
	}
}

// ParseList turns newline-delimited option text into its entries. Carriage
// returns are dropped; entries are neither trimmed nor deduplicated, and
// empty lines are kept.
func ParseList(raw string) []string {
	return strings.Split(strings.ReplaceAll(raw, "\r", ""), "\n")
}

func JoinList(items []string) string {
	return strings.Join(items, "\n")
}

// ToBool applies option-store truthiness: "" and "0" are false, any other
// value is true.
func ToBool(raw string) bool {
	return raw != "" && raw != "0"
}

// FromBool is the stored form of a checkbox value.
func FromBool(value bool) string {
	if value {
		return "1"
	}
	return ""
}
