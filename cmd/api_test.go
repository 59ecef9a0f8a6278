package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xRamax/scrapper-violet-wave/internal/leadstore"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/scrape"
	"github.com/xRamax/scrapper-violet-wave/pkg/twilio"
	"github.com/xRamax/scrapper-violet-wave/pkg/twilio/mocks"
)

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	h := buildRouter(newTestEnv(t, leadstore.NewMemoryTable(header)))

	rec := doRequest(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestAPIKeyRequired(t *testing.T) {
	env := newTestEnv(t, leadstore.NewMemoryTable(header))
	env.cfg.Server.APIKey = "secret"
	h := buildRouter(env)

	rec := doRequest(t, h, http.MethodGet, "/api/leads/new", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/leads/new", "", map[string]string{apiKeyHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/leads/new", "", map[string]string{apiKeyHeader: "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// The health check and the Twilio webhook stay open.
	rec = doRequest(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleNewLeads(t *testing.T) {
	tbl := leadstore.NewMemoryTable(header,
		[]string{"A", "1", "New", ""},
		[]string{"B", "2", "Contacted", ""},
	)
	h := buildRouter(newTestEnv(t, tbl))

	rec := doRequest(t, h, http.MethodGet, "/api/leads/new", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int          `json:"count"`
		Leads []model.Lead `json:"leads"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "A", body.Leads[0].Name)
}

func TestHandleImport(t *testing.T) {
	tbl := leadstore.NewMemoryTable(header, []string{"Old", "+1 555 0001", "New", ""})
	h := buildRouter(newTestEnv(t, tbl))

	body := `{"leads":[{"name":"Dup","phone":"(1) 555-0001"},{"name":"Fresh","phone":"+1 555 0002","notes":"referral"}]}`
	rec := doRequest(t, h, http.MethodPost, "/api/leads/import", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.EqualValues(t, 1, got["added"])
	assert.EqualValues(t, 1, got["duplicates"])
	assert.Equal(t, false, got["degraded"])

	rows := tbl.Snapshot()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Fresh", "+1 555 0002", "New", "referral"}, rows[2])
}

func TestHandleImport_BadBody(t *testing.T) {
	h := buildRouter(newTestEnv(t, leadstore.NewMemoryTable(header)))
	rec := doRequest(t, h, http.MethodPost, "/api/leads/import", "{", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleScrape(t *testing.T) {
	tbl := leadstore.NewMemoryTable(header)
	env := newTestEnv(t, tbl)
	env.scraper = scrape.NewService(&stubSource{results: []model.Candidate{
		{Name: "Clinic", Phone: "+51 1 234 5678"},
	}}, env.ingestOpener(), "dentists")
	h := buildRouter(env)

	rec := doRequest(t, h, http.MethodPost, "/api/leads/scrape", `{"city":"Lima","country":"Peru"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "ok", got["status"])
	assert.EqualValues(t, 1, got["found"])
	assert.EqualValues(t, 1, got["added"])
	assert.EqualValues(t, 0, got["duplicates"])
}

func TestHandleScrape_Errors(t *testing.T) {
	env := newTestEnv(t, leadstore.NewMemoryTable(header))
	h := buildRouter(env)

	rec := doRequest(t, h, http.MethodPost, "/api/leads/scrape", `{"city":"Lima"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "scraper not configured")

	env.scraper = scrape.NewService(&stubSource{}, env.ingestOpener(), "")
	rec = doRequest(t, h, http.MethodPost, "/api/leads/scrape", `{"country":"Peru"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing city")

	env.open = func(context.Context, string) (*leadstore.Adapter, error) {
		return nil, leadstore.ErrStoreOpen
	}
	rec = doRequest(t, h, http.MethodPost, "/api/leads/scrape", `{"city":"Lima","niche":"gyms"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code, "store unavailable")
}

func TestHandleOutreach(t *testing.T) {
	tbl := leadstore.NewMemoryTable(header, []string{"A", "+1 555 0001", "New", ""})
	env := newTestEnv(t, tbl)
	h := buildRouter(env)

	rec := doRequest(t, h, http.MethodPost, "/api/outreach/run", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	sender := mocks.NewMockClient(t)
	sender.On("SendMessage", mock.Anything, "+1 555 0001", "Hola A").
		Return(&twilio.Message{SID: "SM1"}, nil).Once()
	env.sender = sender

	rec = doRequest(t, h, http.MethodPost, "/api/outreach/run", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.OutreachReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 1, report.Sent)
}

func inboundForm(from string) url.Values {
	return url.Values{
		"From":       {from},
		"To":         {"+15550000000"},
		"Body":       {"Sí, me interesa"},
		"MessageSid": {"SM123"},
		"AccountSid": {"AC1"},
	}
}

func TestHandleInbound_ReconcilesSender(t *testing.T) {
	tbl := leadstore.NewMemoryTable(header, []string{"A", "+34 611 22 33 44", "Contacted", ""})
	h := buildRouter(newTestEnv(t, tbl))

	rec := doRequest(t, h, http.MethodPost, "/webhook/twilio", inboundForm("+34611223344").Encode(),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, emptyTwiML, rec.Body.String())
	assert.Equal(t, "Replied", tbl.Snapshot()[1][2])
}

func TestHandleInbound_UnknownNumberStillAcknowledged(t *testing.T) {
	tbl := leadstore.NewMemoryTable(header, []string{"A", "+1 555 0001", "Contacted", ""})
	h := buildRouter(newTestEnv(t, tbl))

	rec := doRequest(t, h, http.MethodPost, "/webhook/twilio", inboundForm("+44 20 7946 0958").Encode(),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Contacted", tbl.Snapshot()[1][2])
}

func TestHandleInbound_MissingFrom(t *testing.T) {
	h := buildRouter(newTestEnv(t, leadstore.NewMemoryTable(header)))
	rec := doRequest(t, h, http.MethodPost, "/webhook/twilio", "Body=hi",
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInbound_Signature(t *testing.T) {
	tbl := leadstore.NewMemoryTable(header, []string{"A", "+1 555 0001", "Contacted", ""})
	env := newTestEnv(t, tbl)
	env.cfg.Twilio.ValidateSignature = true
	env.cfg.Twilio.AuthToken = "token"
	env.cfg.Twilio.WebhookURL = "https://leads.example.com/webhook/twilio"
	h := buildRouter(env)

	form := inboundForm("+1 555 0001")
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

	rec := doRequest(t, h, http.MethodPost, "/webhook/twilio", form.Encode(), headers)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Contacted", tbl.Snapshot()[1][2])

	headers[twilio.SignatureHeader] = twilio.Signature("token", env.cfg.Twilio.WebhookURL, form)
	rec = doRequest(t, h, http.MethodPost, "/webhook/twilio", form.Encode(), headers)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Replied", tbl.Snapshot()[1][2])
}

func TestWebhookURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/webhook/twilio?x=1", nil)
	assert.Equal(t, "http://example.com/webhook/twilio?x=1", webhookURL("", req))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://example.com/webhook/twilio?x=1", webhookURL("", req))

	assert.Equal(t, "https://public/hook", webhookURL("https://public/hook", req))
}
