// Package tracking renders the analytics.js bootstrap placed in the document
// head, with the content groups of the viewed document.
package tracking

import (
	"strconv"
	"strings"
	"text/template"

	"contentgroups/api/internal/annotate"
	"contentgroups/api/internal/settings"
)

const loader = `	(function(i,s,o,g,r,a,m){i['GoogleAnalyticsObject']=r;i[r]=i[r]||function(){
	(i[r].q=i[r].q||[]).push(arguments)},i[r].l=1*new Date();a=s.createElement(o),
	m=s.getElementsByTagName(o)[0];a.async=1;a.src=g;m.parentNode.insertBefore(a,m)
	})(window,document,'script','https://www.google-analytics.com/analytics.js','ga');
`

// Page is the view being rendered.
type Page struct {
	DocumentType string
	// Singular is true for a single document view, false for archives and listings.
	Singular   bool
	Annotation annotate.Annotation
}

func (p Page) annotated() bool {
	return p.Singular && annotate.Annotatable(p.DocumentType)
}

// Directive renders one `ga('set', ...)` call, or reports false to omit it.
type Directive struct {
	Name   string
	Render func(settings.Settings, Page) (string, bool)
}

// Directives are emitted in this order between create and send.
var Directives = []Directive{
	{Name: "anonymize-ip", Render: anonymizeIP},
	{Name: "content-group-1", Render: contentGroup(1, func(a annotate.Annotation) string { return a.Persona })},
	{Name: "content-group-2", Render: contentGroup(2, func(a annotate.Annotation) string { return a.FunnelStage })},
	{Name: "content-group-3", Render: contentGroup(3, func(a annotate.Annotation) string { return a.ContentFormat })},
}

// ShouldTrack is false only for a signed-in visitor when tracking of signed-in
// users is off.
func ShouldTrack(s settings.Settings, authenticated bool) bool {
	return !authenticated || s.TrackLoggedIn
}

// Emit returns the script block for page, or "" when the visit is not tracked.
func Emit(s settings.Settings, page Page, authenticated bool) string {
	if !ShouldTrack(s, authenticated) {
		return ""
	}

	var b strings.Builder
	b.WriteString("<script>\n")
	b.WriteString(loader)
	b.WriteString("\n")
	b.WriteString("\tga('create', '" + jsString(s.TrackingID) + "', 'auto');\n")
	for _, directive := range Directives {
		line, ok := directive.Render(s, page)
		if !ok {
			continue
		}
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString("\tga('send', 'pageview');\n")
	b.WriteString("</script>\n")
	return b.String()
}

func anonymizeIP(s settings.Settings, _ Page) (string, bool) {
	if !s.AnonymizeIP {
		return "", false
	}
	return "ga('set', 'anonymizeIp', true);", true
}

func contentGroup(index int, value func(annotate.Annotation) string) func(settings.Settings, Page) (string, bool) {
	group := "contentGroup" + strconv.Itoa(index)
	return func(_ settings.Settings, page Page) (string, bool) {
		if !page.annotated() {
			return "", false
		}
		v := value(page.Annotation)
		if v == "" {
			return "", false
		}
		return "ga('set','" + group + "','" + jsString(v) + "');", true
	}
}

// jsString escapes value for a single-quoted JavaScript literal inside an
// HTML script element.
func jsString(value string) string {
	return template.JSEscapeString(value)
}
