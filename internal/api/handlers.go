// Package api exposes the campaign war room over HTTP: campaign CRUD,
// content generation, contact list handling and dispatch operations.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/warroomhq/warroom/internal/contacts"
	"github.com/warroomhq/warroom/internal/content"
	"github.com/warroomhq/warroom/internal/domain"
	"github.com/warroomhq/warroom/internal/store"
	"github.com/warroomhq/warroom/internal/transport"
)

// Handlers holds the services the HTTP layer delegates to. The S3 source
// and Redis client are optional; their endpoints return 503 when absent.
type Handlers struct {
	store      store.Store
	transport  transport.MailTransport
	generator  *content.AIGenerator
	newsletter *content.NewsletterBuilder
	s3         *contacts.S3Source
	redis      *redis.Client
	sendDelay  time.Duration
}

// NewHandlers creates the handler set.
func NewHandlers(st store.Store, tr transport.MailTransport, gen *content.AIGenerator, nl *content.NewsletterBuilder, delay time.Duration) *Handlers {
	return &Handlers{
		store:      st,
		transport:  tr,
		generator:  gen,
		newsletter: nl,
		sendDelay:  delay,
	}
}

// SetS3Source enables S3-staged contact imports.
func (h *Handlers) SetS3Source(src *contacts.S3Source) {
	h.s3 = src
}

// SetRedis enables live dispatch progress tracking.
func (h *Handlers) SetRedis(client *redis.Client) {
	h.redis = client
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

type createCampaignRequest struct {
	CompanyName    string   `json:"company_name"`
	CampaignType   string   `json:"campaign_type"`
	TargetAudience string   `json:"target_audience"`
	Location       string   `json:"location"`
	Budget         string   `json:"budget"`
	Currency       string   `json:"currency"`
	Channels       []string `json:"channels"`
	Duration       string   `json:"duration"`
	ProductInfo    string   `json:"product_info"`
}

// CreateCampaign registers a campaign brief and generates its blueprint
// and a starter template in one step.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyName == "" {
		respondError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	now := time.Now()
	c := &domain.Campaign{
		ID:             uuid.New().String(),
		CompanyName:    req.CompanyName,
		CampaignType:   req.CampaignType,
		TargetAudience: req.TargetAudience,
		Location:       req.Location,
		Budget:         req.Budget,
		Currency:       req.Currency,
		Channels:       req.Channels,
		Duration:       req.Duration,
		ProductInfo:    req.ProductInfo,
		Status:         domain.CampaignDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	blueprint, err := content.GenerateBlueprint(content.BlueprintParams{
		CompanyName:    c.CompanyName,
		CampaignType:   c.CampaignType,
		TargetAudience: c.TargetAudience,
		Location:       c.Location,
		Channels:       c.Channels,
		Budget:         c.Budget,
		Currency:       c.Currency,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.Blueprint = blueprint

	tmpl, err := content.StarterTemplate(c.CampaignType, domain.ContentHTML)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.Template = tmpl

	if err := h.store.SaveCampaign(r.Context(), c); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// ListCampaigns returns all campaigns, newest first.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListCampaigns(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": list,
		"count":     len(list),
	})
}

// GetCampaign returns one campaign by ID.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) loadCampaign(w http.ResponseWriter, r *http.Request) (*domain.Campaign, bool) {
	id := chi.URLParam(r, "id")
	c, err := h.store.GetCampaign(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "campaign not found")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return c, true
}

// RegenerateBlueprint rebuilds the strategy document from the stored brief.
func (h *Handlers) RegenerateBlueprint(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	blueprint, err := content.GenerateBlueprint(content.BlueprintParams{
		CompanyName:    c.CompanyName,
		CampaignType:   c.CampaignType,
		TargetAudience: c.TargetAudience,
		Location:       c.Location,
		Channels:       c.Channels,
		Budget:         c.Budget,
		Currency:       c.Currency,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	c.Blueprint = blueprint
	c.UpdatedAt = time.Now()
	if err := h.store.SaveCampaign(r.Context(), c); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"blueprint": blueprint})
}

type generateTemplateRequest struct {
	Tone        string `json:"tone"`
	ContentType string `json:"content_type"` // html or plain
	UseAI       bool   `json:"use_ai"`
}

// GenerateTemplate builds the campaign's message template, optionally with
// an AI provider. Without AI the starter template is used directly.
func (h *Handlers) GenerateTemplate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	var req generateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	contentType := domain.ContentHTML
	if req.ContentType == string(domain.ContentPlain) {
		contentType = domain.ContentPlain
	}

	var tmpl domain.MessageTemplate
	var err error
	if req.UseAI {
		tmpl, err = h.generator.GenerateTemplate(r.Context(), content.Brief{
			CompanyName:  c.CompanyName,
			CampaignType: c.CampaignType,
			Audience:     c.TargetAudience,
			Tone:         req.Tone,
			ContentType:  contentType,
		})
	} else {
		tmpl, err = content.StarterTemplate(c.CampaignType, contentType)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	c.Template = tmpl
	c.UpdatedAt = time.Now()
	if err := h.store.SaveCampaign(r.Context(), c); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, tmpl)
}

type newsletterRequest struct {
	FeedURL string `json:"feed_url"`
}

// BuildNewsletter replaces the campaign template with a digest generated
// from an RSS/Atom feed.
func (h *Handlers) BuildNewsletter(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	var req newsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FeedURL == "" {
		respondError(w, http.StatusBadRequest, "feed_url is required")
		return
	}

	tmpl, items, err := h.newsletter.Build(r.Context(), req.FeedURL)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	c.Template = tmpl
	c.UpdatedAt = time.Now()
	if err := h.store.SaveCampaign(r.Context(), c); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"template": tmpl,
		"items":    items,
	})
}

// UploadContacts parses an uploaded CSV contact file and returns the
// normalized recipient list.
func (h *Handlers) UploadContacts(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	res, err := contacts.Parse(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type s3ImportRequest struct {
	Key string `json:"key"`
}

// ImportContactsFromS3 loads a staged contact file from the configured
// bucket.
func (h *Handlers) ImportContactsFromS3(w http.ResponseWriter, r *http.Request) {
	if h.s3 == nil {
		respondError(w, http.StatusServiceUnavailable, "s3 contact source not configured")
		return
	}

	var req s3ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}

	res, err := h.s3.Fetch(r.Context(), req.Key)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// ListCountries returns the supported target markets with metadata.
func (h *Handlers) ListCountries(w http.ResponseWriter, r *http.Request) {
	names := content.Countries()
	out := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		info := content.CountryFor(name)
		out = append(out, map[string]interface{}{
			"name":     name,
			"currency": info.Currency,
			"lat":      info.Lat,
			"lng":      info.Lng,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"countries": out})
}
