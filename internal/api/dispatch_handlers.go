package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warroomhq/warroom/internal/dispatch"
	"github.com/warroomhq/warroom/internal/domain"
	"github.com/warroomhq/warroom/internal/personalize"
	"github.com/warroomhq/warroom/internal/pkg/logger"
	"github.com/warroomhq/warroom/internal/store"
)

type recipientPayload struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type testSendRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// TestSend delivers the campaign template to a single address with a
// "[TEST] " subject prefix, bypassing run bookkeeping.
func (h *Handlers) TestSend(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	var req testSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}
	if !personalize.ValidAddress(req.Email) {
		respondError(w, http.StatusBadRequest, "invalid address format")
		return
	}

	rcpt := domain.NewRecipient(req.Email, req.Name)
	name := personalize.ResolveDisplayName(rcpt.DisplayName, rcpt.Address)
	subject := "[TEST] " + personalize.Personalize(c.Template.Subject, name, rcpt.Address)
	body := personalize.Personalize(c.Template.Body, name, rcpt.Address)

	if err := h.transport.Send(r.Context(), rcpt.Address, subject, body, c.Template.ContentType); err != nil {
		respondJSON(w, http.StatusBadGateway, map[string]string{
			"status": string(domain.StatusFailed),
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusSent)})
}

type launchRequest struct {
	Recipients []recipientPayload `json:"recipients"`
}

type launchResponse struct {
	RunID       string          `json:"run_id"`
	State       domain.RunState `json:"state"`
	Tally       domain.Tally    `json:"tally"`
	SuccessRate float64         `json:"success_rate"`
}

// Launch runs the campaign synchronously against the submitted recipient
// list. The request blocks until every recipient has an outcome; progress
// is published to Redis for live polling when configured.
func (h *Handlers) Launch(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Recipients) == 0 {
		respondError(w, http.StatusBadRequest, "recipients are required")
		return
	}
	if c.Template.Subject == "" && c.Template.Body == "" {
		respondError(w, http.StatusConflict, "campaign has no template")
		return
	}

	recipients := make([]domain.Recipient, 0, len(req.Recipients))
	for _, p := range req.Recipients {
		recipients = append(recipients, domain.NewRecipient(p.Email, p.Name))
	}

	runID := uuid.New().String()
	opts := dispatch.Options{Delay: h.sendDelay, RunID: runID}
	if h.redis != nil {
		opts.OnProgress = dispatch.NewRedisReporter(h.redis, runID).Report
	}

	c.Status = domain.CampaignSending
	c.UpdatedAt = time.Now()
	if err := h.store.SaveCampaign(r.Context(), c); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	d := dispatch.New(h.transport, opts)
	run, err := d.Dispatch(r.Context(), recipients, c.Template)
	if run == nil {
		// Fatal pre-flight: nothing was attempted.
		c.Status = domain.CampaignFailed
		c.UpdatedAt = time.Now()
		if saveErr := h.store.SaveCampaign(r.Context(), c); saveErr != nil {
			logger.Error("save campaign after failed launch", "campaign_id", c.ID, "error", saveErr.Error())
		}
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err != nil {
		logger.Warn("dispatch interrupted", "run_id", run.ID, "error", err.Error())
	}

	// The run may have ended because the client went away; the outcome log
	// still gets persisted, so detach from the request's cancellation.
	saveCtx := context.WithoutCancel(r.Context())

	run.CampaignID = c.ID
	if saveErr := h.store.SaveRun(saveCtx, run); saveErr != nil {
		logger.Error("save run", "run_id", run.ID, "error", saveErr.Error())
	}

	c.Status = domain.CampaignCompleted
	c.LastRunID = run.ID
	c.UpdatedAt = time.Now()
	if saveErr := h.store.SaveCampaign(saveCtx, c); saveErr != nil {
		logger.Error("save campaign after launch", "campaign_id", c.ID, "error", saveErr.Error())
	}

	respondJSON(w, http.StatusOK, launchResponse{
		RunID:       run.ID,
		State:       run.State,
		Tally:       run.Tally(),
		SuccessRate: run.SuccessRate(),
	})
}

func (h *Handlers) loadRun(w http.ResponseWriter, r *http.Request) (*domain.DispatchRun, bool) {
	id := chi.URLParam(r, "id")
	run, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return run, true
}

// GetRun returns a persisted run with its full outcome log.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// GetRunProgress returns the live progress snapshot for an in-flight run.
func (h *Handlers) GetRunProgress(w http.ResponseWriter, r *http.Request) {
	if h.redis == nil {
		respondError(w, http.StatusServiceUnavailable, "progress tracking not configured")
		return
	}

	id := chi.URLParam(r, "id")
	p, err := dispatch.GetProgress(r.Context(), h.redis, id)
	if err != nil {
		respondError(w, http.StatusNotFound, "no progress for run")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

type domainBreakdown struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Invalid int `json:"invalid"`
}

// GetRunAnalytics folds a run's outcome log into campaign analytics:
// per-status counts, success rate and a per-recipient-domain breakdown.
func (h *Handlers) GetRunAnalytics(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	byDomain := make(map[string]*domainBreakdown)
	for _, o := range run.Outcomes {
		dom := o.Recipient.Domain()
		if dom == "" {
			dom = "(invalid)"
		}
		b := byDomain[dom]
		if b == nil {
			b = &domainBreakdown{}
			byDomain[dom] = b
		}
		switch o.Status {
		case domain.StatusSent:
			b.Sent++
		case domain.StatusFailed:
			b.Failed++
		case domain.StatusInvalid:
			b.Invalid++
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       run.ID,
		"campaign_id":  run.CampaignID,
		"tally":        run.Tally(),
		"success_rate": run.SuccessRate(),
		"by_domain":    byDomain,
		"started_at":   run.StartedAt,
		"completed_at": run.CompletedAt,
		"duration_ms":  run.CompletedAt.Sub(run.StartedAt).Milliseconds(),
	})
}

// ExportRun streams a run's outcome log as a downloadable CSV.
func (h *Handlers) ExportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=email_results_%s.csv", run.ID))
	if err := store.WriteRunCSV(w, run); err != nil {
		logger.Error("export run", "run_id", run.ID, "error", err.Error())
	}
}

// ListRuns returns all runs for a campaign, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCampaign(w, r)
	if !ok {
		return
	}

	runs, err := h.store.ListRuns(r.Context(), c.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type runSummary struct {
		RunID       string          `json:"run_id"`
		State       domain.RunState `json:"state"`
		Tally       domain.Tally    `json:"tally"`
		SuccessRate float64         `json:"success_rate"`
		StartedAt   time.Time       `json:"started_at"`
	}
	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, runSummary{
			RunID:       run.ID,
			State:       run.State,
			Tally:       run.Tally(),
			SuccessRate: run.SuccessRate(),
			StartedAt:   run.StartedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"runs": out, "count": len(out)})
}
