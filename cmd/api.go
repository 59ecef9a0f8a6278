package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/xRamax/scrapper-violet-wave/internal/leadstore"
	"github.com/xRamax/scrapper-violet-wave/internal/model"
	"github.com/xRamax/scrapper-violet-wave/internal/scrape"
	"github.com/xRamax/scrapper-violet-wave/pkg/twilio"
)

const apiKeyHeader = "X-API-Key"

// emptyTwiML acknowledges an inbound message without replying.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// inboundMessage is the subset of the Twilio webhook form we read.
type inboundMessage struct {
	From       string `schema:"From"`
	To         string `schema:"To"`
	Body       string `schema:"Body"`
	MessageSid string `schema:"MessageSid"`
}

type importRequest struct {
	SpreadsheetID string            `json:"spreadsheet_id"`
	Leads         []model.Candidate `json:"leads"`
}

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// buildRouter wires the HTTP surface over env.
func buildRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: env.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", apiKeyHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireAPIKey(env.cfg.Server.APIKey))
		r.Post("/leads/scrape", env.handleScrape)
		r.Post("/leads/import", env.handleImport)
		r.Get("/leads/new", env.handleNewLeads)
		r.Post("/outreach/run", env.handleOutreach)
	})

	r.Post("/webhook/twilio", env.handleInbound)
	return r
}

// requireAPIKey rejects requests without the configured key. An empty key
// disables the check.
func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(apiKeyHeader)), []byte(key)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (e *appEnv) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req model.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := e.scrapeAndSave(r.Context(), req)
	switch {
	case errors.Is(err, scrape.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "city and niche are required")
		return
	case errors.Is(err, errScrapeDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case isStoreOpenError(err):
		writeError(w, http.StatusBadGateway, "lead store unavailable")
		return
	case err != nil:
		zap.L().Error("api: scrape failed", zap.String("query", report.Query), zap.Error(err))
		writeError(w, http.StatusBadGateway, "listing search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"query":      report.Query,
		"found":      report.Found,
		"added":      report.Added,
		"duplicates": report.Duplicates,
		"degraded":   report.Degraded,
	})
}

func (e *appEnv) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := e.ingestCandidates(r.Context(), req.SpreadsheetID, req.Leads)
	if err != nil {
		zap.L().Error("api: import failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "lead store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"added":      res.Added,
		"duplicates": res.Duplicates,
		"degraded":   res.Degraded(),
	})
}

func (e *appEnv) handleNewLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := e.newLeads(r.Context(), r.URL.Query().Get("spreadsheet_id"))
	if err != nil {
		zap.L().Error("api: load new leads failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "lead store unavailable")
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(leads), "leads": leads})
}

func (e *appEnv) handleOutreach(w http.ResponseWriter, r *http.Request) {
	report, err := e.runOutreach(r.Context())
	switch {
	case errors.Is(err, errOutreachDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		zap.L().Error("api: outreach failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "outreach failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleInbound reconciles the sender of an inbound message to the reply
// status. Twilio gets an empty TwiML response even when nothing matched so
// it does not retry.
func (e *appEnv) handleInbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	if e.cfg.Twilio.ValidateSignature {
		if !twilio.ValidSignature(e.cfg.Twilio.AuthToken, webhookURL(e.cfg.Twilio.WebhookURL, r), r.PostForm, r.Header.Get(twilio.SignatureHeader)) {
			zap.L().Warn("api: rejected inbound message with bad signature")
			writeError(w, http.StatusForbidden, "invalid signature")
			return
		}
	}

	var msg inboundMessage
	if err := formDecoder.Decode(&msg, r.PostForm); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	if strings.TrimSpace(msg.From) == "" {
		writeError(w, http.StatusBadRequest, "From is required")
		return
	}

	res, err := e.reconcilePhone(r.Context(), "", msg.From, e.cfg.Outreach.ReplyStatus)
	log := zap.L().With(zap.String("message_sid", msg.MessageSid))
	switch {
	case err != nil:
		log.Error("api: reconcile inbound message failed", zap.Error(err))
	case res.Degraded():
		log.Warn("api: inbound message not reconciled", zap.Error(res.Failure))
	case !res.Updated:
		log.Info("api: inbound message from unknown number")
	default:
		log.Info("api: lead replied", zap.Int("row", res.Row))
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(emptyTwiML))
}

// webhookURL is the URL Twilio signed: the configured public URL, or one
// rebuilt from the request.
func webhookURL(configured string, r *http.Request) string {
	if configured != "" {
		return configured
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func isStoreOpenError(err error) bool {
	return errors.Is(err, leadstore.ErrStoreOpen) || errors.Is(err, leadstore.ErrAuthentication)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
