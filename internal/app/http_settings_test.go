package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"contentgroups/api/internal/settings"
)

func TestSettingsPageListsFieldsWithDefaults(t *testing.T) {
	server, token, _ := newServerWithUser(t, newFakeStore(), "admin")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Title    string `json:"title"`
		Group    string `json:"group"`
		Sections []struct {
			ID     string `json:"id"`
			Fields []struct {
				Name        string `json:"name"`
				Kind        string `json:"kind"`
				Value       string `json:"value"`
				Placeholder string `json:"placeholder"`
				Checked     *bool  `json:"checked"`
			} `json:"fields"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload.Title != "Google Analytics for Content Marketers" || payload.Group != settings.Group {
		t.Fatalf("unexpected page header %+v", payload)
	}
	if len(payload.Sections) != 2 || payload.Sections[0].ID != settings.SectionGoogleAnalytics {
		t.Fatalf("unexpected sections %+v", payload.Sections)
	}

	ga := payload.Sections[0].Fields
	if ga[0].Name != settings.OptionTrackingID || ga[0].Placeholder != "UA-XXXXXXXX-X" || ga[0].Value != "" {
		t.Fatalf("unexpected tracking id field %+v", ga[0])
	}
	if ga[1].Checked == nil || *ga[1].Checked {
		t.Fatalf("expected track logged in unchecked, got %+v", ga[1])
	}
	if ga[2].Checked == nil || !*ga[2].Checked {
		t.Fatalf("expected anonymize ip checked by default, got %+v", ga[2])
	}
	personas := payload.Sections[1].Fields[0]
	if personas.Kind != "textarea" || personas.Value != "Default" {
		t.Fatalf("unexpected personas field %+v", personas)
	}
}

func TestSaveOptionsWritesEveryField(t *testing.T) {
	fs := newFakeStore()
	server, token, _ := newServerWithUser(t, fs, "admin")

	form := url.Values{
		"option_page":                {settings.Group},
		settings.OptionTrackingID:    {"UA-12345678-1"},
		settings.OptionTrackLoggedIn: {"1"},
		settings.OptionPersonas:      {"Default\r\nChampion"},
		"unrelated_option":           {"ignored"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/options", strings.NewReader(form.Encode()))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	ctx := context.Background()
	expect := map[string]string{
		settings.OptionTrackingID:    "UA-12345678-1",
		settings.OptionTrackLoggedIn: "1",
		settings.OptionAnonymizeIP:   "",
		settings.OptionPersonas:      "Default\r\nChampion",
	}
	for name, want := range expect {
		got, ok, err := fs.GetOption(ctx, name)
		if err != nil || !ok {
			t.Fatalf("expected option %s to be stored, ok=%v err=%v", name, ok, err)
		}
		if got != want {
			t.Fatalf("option %s: expected %q, got %q", name, want, got)
		}
	}
	if _, ok, _ := fs.GetOption(ctx, "unrelated_option"); ok {
		t.Fatalf("expected unregistered option to be ignored")
	}
}

func TestSaveOptionsRejectsOtherOptionPage(t *testing.T) {
	server, token, _ := newServerWithUser(t, newFakeStore(), "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/options", strings.NewReader("option_page=general"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if payload["code"] != "INVALID_OPTION_PAGE" {
		t.Fatalf("expected code INVALID_OPTION_PAGE, got %v", payload["code"])
	}
}

func TestActionLinksEndpoint(t *testing.T) {
	server, token, _ := newServerWithUser(t, newFakeStore(), "admin")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/plugins/action-links", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload struct {
		Links []Link `json:"links"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Links) != 2 {
		t.Fatalf("expected 2 links, got %+v", payload.Links)
	}
	last := payload.Links[len(payload.Links)-1]
	if last.Label != "Settings" || last.URL != "https://example.com/wp-admin/options-general.php?page=jp_analytics" {
		t.Fatalf("unexpected settings link %+v", last)
	}
}
