package settings

const (
	// Group is the option group name posted as option_page by the settings form.
	Group = "jp_analytics_settings"
	// PageSlug identifies the settings page in admin URLs.
	PageSlug = "jp_analytics"

	SectionGoogleAnalytics = "jp_analytics_settings_section_ga"
	SectionContentGroups   = "jp_analytics_settings_section_cg"
)

type FieldKind string

const (
	KindText     FieldKind = "text"
	KindCheckbox FieldKind = "checkbox"
	KindTextarea FieldKind = "textarea"
)

type Field struct {
	Name        string
	Label       string
	Kind        FieldKind
	Placeholder string
}

type Section struct {
	ID          string
	Title       string
	Description string
	Fields      []Field
}

// Sections returns the settings page layout in display order.
func Sections() []Section {
	return []Section{
		{
			ID:          SectionGoogleAnalytics,
			Title:       "Google Analytics",
			Description: "Setup your Google Analytics account here.",
			Fields: []Field{
				{Name: OptionTrackingID, Label: "Tracking ID", Kind: KindText, Placeholder: "UA-XXXXXXXX-X"},
				{Name: OptionTrackLoggedIn, Label: "Track Logged In Users?", Kind: KindCheckbox},
				{Name: OptionAnonymizeIP, Label: "Anonymize IP?", Kind: KindCheckbox},
			},
		},
		{
			ID:          SectionContentGroups,
			Title:       "Content Groups",
			Description: "Setup your content group values here.",
			Fields: []Field{
				{Name: OptionPersonas, Label: "Personas", Kind: KindTextarea},
				{Name: OptionFunnelStages, Label: "Funnel Stages", Kind: KindTextarea},
				{Name: OptionContentFormats, Label: "Content Formats", Kind: KindTextarea},
			},
		},
	}
}

// Fields flattens Sections in display order.
func Fields() []Field {
	var fields []Field
	for _, section := range Sections() {
		fields = append(fields, section.Fields...)
	}
	return fields
}

func LookupField(name string) (Field, bool) {
	for _, field := range Fields() {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
