package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentgroups/api/internal/annotate"
	"contentgroups/api/internal/settings"
	"contentgroups/api/internal/store"
)

func championSettings() settings.Settings {
	s := settings.Defaults()
	s.TrackingID = "UA-12345678-1"
	s.Personas = settings.ParseList("Default\nChampion\nSkeptic")
	return s
}

func postPage(a annotate.Annotation) Page {
	return Page{DocumentType: store.DocumentTypePost, Singular: true, Annotation: a}
}

func TestShouldTrack(t *testing.T) {
	for _, trackLoggedIn := range []bool{false, true} {
		s := settings.Defaults()
		s.TrackLoggedIn = trackLoggedIn
		assert.True(t, ShouldTrack(s, false), "anonymous visitors are always tracked")
		assert.Equal(t, trackLoggedIn, ShouldTrack(s, true))
	}
}

func TestEmitAuthenticatedVisitorNotTracked(t *testing.T) {
	s := championSettings()
	out := Emit(s, postPage(annotate.Annotation{Persona: "Champion"}), true)
	assert.Equal(t, "", out)
}

func TestEmitAuthenticatedVisitorTrackedWhenEnabled(t *testing.T) {
	s := championSettings()
	s.TrackLoggedIn = true
	out := Emit(s, postPage(annotate.Annotation{Persona: "Champion"}), true)
	assert.Contains(t, out, "ga('set','contentGroup1','Champion');")
}

func TestEmitAnonymousVisitorWithPersona(t *testing.T) {
	s := championSettings()
	s.AnonymizeIP = false
	out := Emit(s, postPage(annotate.Annotation{Persona: "Champion"}), false)

	assert.Contains(t, out, "ga('set','contentGroup1','Champion');")
	assert.NotContains(t, out, "anonymizeIp")
	assert.NotContains(t, out, "contentGroup2")
	assert.NotContains(t, out, "contentGroup3")
}

func TestEmitDefaultSettingsAnonymizeIP(t *testing.T) {
	out := Emit(championSettings(), postPage(annotate.Annotation{Persona: "Champion"}), false)
	assert.Contains(t, out, "\tga('set', 'anonymizeIp', true);\n")
}

func TestEmitEmptyTrackingIDIsWellFormed(t *testing.T) {
	s := settings.Defaults()
	out := Emit(s, Page{}, false)

	require.True(t, strings.HasPrefix(out, "<script>\n"))
	require.True(t, strings.HasSuffix(out, "</script>\n"))
	assert.Contains(t, out, "\tga('create', '', 'auto');\n")
	assert.Contains(t, out, "\tga('send', 'pageview');\n")
}

func TestEmitExactOutputWithoutDirectives(t *testing.T) {
	s := settings.Defaults()
	s.TrackingID = "UA-1-1"
	s.AnonymizeIP = false

	want := "<script>\n" + loader + "\n" +
		"\tga('create', 'UA-1-1', 'auto');\n" +
		"\tga('send', 'pageview');\n" +
		"</script>\n"
	assert.Equal(t, want, Emit(s, postPage(annotate.Annotation{}), false))
	assert.NotContains(t, Emit(s, postPage(annotate.Annotation{}), false), "'set'")
}

func TestEmitDirectiveOrder(t *testing.T) {
	out := Emit(championSettings(), postPage(annotate.Annotation{
		Persona:       "Champion",
		FunnelStage:   "Decision",
		ContentFormat: "Podcast",
	}), false)

	order := []string{
		"ga('create', 'UA-12345678-1', 'auto');",
		"ga('set', 'anonymizeIp', true);",
		"ga('set','contentGroup1','Champion');",
		"ga('set','contentGroup2','Decision');",
		"ga('set','contentGroup3','Podcast');",
		"ga('send', 'pageview');",
	}
	last := -1
	for _, line := range order {
		idx := strings.Index(out, line)
		require.NotEqualf(t, -1, idx, "missing %s in\n%s", line, out)
		require.Greaterf(t, idx, last, "%s out of order", line)
		last = idx
	}
}

func TestEmitSkipsContentGroupsOffSingularPostsAndPages(t *testing.T) {
	a := annotate.Annotation{Persona: "Champion", FunnelStage: "Decision", ContentFormat: "Podcast"}
	cases := []Page{
		{DocumentType: store.DocumentTypePost, Singular: false, Annotation: a},
		{DocumentType: "attachment", Singular: true, Annotation: a},
		{DocumentType: "", Singular: true, Annotation: a},
	}
	for _, page := range cases {
		out := Emit(championSettings(), page, false)
		assert.NotEmpty(t, out)
		assert.NotContains(t, out, "contentGroup")
	}
	assert.Contains(t, Emit(championSettings(), Page{DocumentType: store.DocumentTypePage, Singular: true, Annotation: a}, false), "contentGroup3")
}

func TestEmitEscapesValues(t *testing.T) {
	s := championSettings()
	s.TrackingID = "UA-1'); alert('x"
	out := Emit(s, postPage(annotate.Annotation{
		Persona:     "O'Brien\n</script><script>alert(1)</script>",
		FunnelStage: `back\slash`,
	}), false)

	assert.Contains(t, out, `ga('create', 'UA-1\'); alert(\'x', 'auto');`)
	assert.Contains(t, out, `ga('set','contentGroup1','O\'Brien\u000A\u003C/script\u003E\u003Cscript\u003Ealert(1)\u003C/script\u003E');`)
	assert.Contains(t, out, `ga('set','contentGroup2','back\\slash');`)
	assert.Equal(t, 1, strings.Count(out, "</script>"))
}
