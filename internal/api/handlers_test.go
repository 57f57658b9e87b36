package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warroomhq/warroom/internal/content"
	"github.com/warroomhq/warroom/internal/domain"
	"github.com/warroomhq/warroom/internal/store"
)

// fakeTransport records sends and fails per-address on demand.
type fakeTransport struct {
	sends     []string
	subjects  []string
	failWith  map[string]string
	verifyErr error
}

func (f *fakeTransport) Send(_ context.Context, address, subject, _ string, _ domain.ContentType) error {
	f.sends = append(f.sends, address)
	f.subjects = append(f.subjects, subject)
	if reason, ok := f.failWith[address]; ok {
		return errors.New(reason)
	}
	return nil
}

func (f *fakeTransport) Verify(_ context.Context) error { return f.verifyErr }

func newTestServer(t *testing.T, tr *fakeTransport) (*httptest.Server, *Handlers) {
	t.Helper()
	h := NewHandlers(store.NewMemoryStore(), tr, content.NewAIGenerator(), content.NewNewsletterBuilder(5), 0)
	srv := httptest.NewServer(SetupRoutes(h))
	t.Cleanup(srv.Close)
	return srv, h
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createTestCampaign(t *testing.T, srv *httptest.Server) domain.Campaign {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/campaigns", map[string]interface{}{
		"company_name":    "Acme Corp",
		"campaign_type":   "Product Launch",
		"target_audience": "SaaS founders",
		"location":        "Germany",
		"channels":        []string{"Email"},
		"budget":          "5000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var c domain.Campaign
	decode(t, resp, &c)
	return c
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateCampaign(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	c := createTestCampaign(t, srv)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, domain.CampaignDraft, c.Status)
	assert.Contains(t, c.Blueprint, "# Acme Corp - Product Launch Campaign Strategy")
	assert.Contains(t, c.Blueprint, "**Budget:** 5000 EUR")
	assert.Contains(t, c.Template.Body, "{first_name}")
}

func TestCreateCampaignRequiresCompanyName(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	resp := postJSON(t, srv.URL+"/api/campaigns", map[string]string{"campaign_type": "Sale"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetCampaignNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	resp, err := http.Get(srv.URL + "/api/campaigns/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateTemplatePlain(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	c := createTestCampaign(t, srv)

	resp := postJSON(t, srv.URL+"/api/campaigns/"+c.ID+"/template", map[string]interface{}{
		"content_type": "plain",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tmpl domain.MessageTemplate
	decode(t, resp, &tmpl)
	assert.Equal(t, domain.ContentPlain, tmpl.ContentType)
	assert.NotContains(t, tmpl.Body, "<html")
}

func TestUploadContacts(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contacts.csv")
	require.NoError(t, err)
	fw.Write([]byte("email,name\njane@x.com,Jane Doe\nbogus,Nobody\n"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/contacts/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		Recipients []domain.Recipient `json:"recipients"`
		Skipped    int                `json:"skipped"`
	}
	decode(t, resp, &res)
	require.Len(t, res.Recipients, 1)
	assert.Equal(t, "jane@x.com", res.Recipients[0].Address)
	assert.Equal(t, 1, res.Skipped)
}

func TestTestSendPrefixesSubject(t *testing.T) {
	tr := &fakeTransport{}
	srv, _ := newTestServer(t, tr)
	c := createTestCampaign(t, srv)

	resp := postJSON(t, srv.URL+"/api/campaigns/"+c.ID+"/test-send", map[string]string{
		"email": "qa@x.com",
		"name":  "QA Team",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, tr.sends, 1)
	assert.Equal(t, "qa@x.com", tr.sends[0])
	assert.True(t, strings.HasPrefix(tr.subjects[0], "[TEST] "))
	assert.Contains(t, tr.subjects[0], "QA")
}

func TestTestSendRejectsInvalidAddress(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	c := createTestCampaign(t, srv)

	resp := postJSON(t, srv.URL+"/api/campaigns/"+c.ID+"/test-send", map[string]string{"email": "nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLaunchRecordsRunAndTally(t *testing.T) {
	tr := &fakeTransport{failWith: map[string]string{"a@x.com": "mailbox full"}}
	srv, h := newTestServer(t, tr)
	c := createTestCampaign(t, srv)

	resp := postJSON(t, srv.URL+"/api/campaigns/"+c.ID+"/launch", map[string]interface{}{
		"recipients": []map[string]string{
			{"email": "a@x.com"},
			{"email": "bad"},
			{"email": "b@x.com", "name": "Bob Lee"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		RunID       string       `json:"run_id"`
		Tally       domain.Tally `json:"tally"`
		SuccessRate float64      `json:"success_rate"`
	}
	decode(t, resp, &out)

	assert.Equal(t, 1, out.Tally.Sent)
	assert.Equal(t, 1, out.Tally.Failed)
	assert.Equal(t, 1, out.Tally.Invalid)
	assert.InDelta(t, 33.33, out.SuccessRate, 0.1)

	// The run is persisted with the outcome log in dispatch order.
	run, err := h.store.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	require.Len(t, run.Outcomes, 3)
	assert.Equal(t, "mailbox full", run.Outcomes[0].ErrorDetail)
	assert.Equal(t, domain.StatusInvalid, run.Outcomes[1].Status)

	// The campaign reflects the completed launch.
	updated, err := h.store.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignCompleted, updated.Status)
	assert.Equal(t, out.RunID, updated.LastRunID)
}

func TestLaunchFatalPreflight(t *testing.T) {
	tr := &fakeTransport{verifyErr: errors.New("credentials rejected")}
	srv, h := newTestServer(t, tr)
	c := createTestCampaign(t, srv)

	resp := postJSON(t, srv.URL+"/api/campaigns/"+c.ID+"/launch", map[string]interface{}{
		"recipients": []map[string]string{{"email": "a@x.com"}},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Empty(t, tr.sends)

	updated, err := h.store.GetCampaign(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignFailed, updated.Status)
}

// ctxCheckingStore rejects writes on a cancelled context the way the
// Postgres store does, so tests can observe lost persistence.
type ctxCheckingStore struct {
	store.Store
}

func (s ctxCheckingStore) SaveRun(ctx context.Context, run *domain.DispatchRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.SaveRun(ctx, run)
}

func (s ctxCheckingStore) SaveCampaign(ctx context.Context, c *domain.Campaign) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Store.SaveCampaign(ctx, c)
}

// cancellingTransport cancels the request context on its first send,
// simulating a client that disconnects mid-run.
type cancellingTransport struct {
	fakeTransport
	cancel context.CancelFunc
}

func (c *cancellingTransport) Send(ctx context.Context, address, subject, body string, ct domain.ContentType) error {
	c.cancel()
	return c.fakeTransport.Send(ctx, address, subject, body, ct)
}

func TestLaunchPersistsRunAfterClientDisconnect(t *testing.T) {
	mem := store.NewMemoryStore()
	require.NoError(t, mem.SaveCampaign(context.Background(), &domain.Campaign{
		ID:       "c1",
		Status:   domain.CampaignDraft,
		Template: domain.MessageTemplate{Subject: "s", Body: "b", ContentType: domain.ContentPlain},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := &cancellingTransport{cancel: cancel}
	h := NewHandlers(ctxCheckingStore{mem}, tr, content.NewAIGenerator(), content.NewNewsletterBuilder(5), 0)

	body, err := json.Marshal(map[string]interface{}{
		"recipients": []map[string]string{{"email": "a@x.com"}, {"email": "b@x.com"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/campaigns/c1/launch", bytes.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	SetupRoutes(h).ServeHTTP(rec, req)

	// The partial outcome log survives even though the request context died.
	runs, err := mem.ListRuns(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunCancelled, runs[0].State)
	require.Len(t, runs[0].Outcomes, 1)
	assert.Equal(t, domain.StatusSent, runs[0].Outcomes[0].Status)

	updated, err := mem.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, runs[0].ID, updated.LastRunID)
}

func TestRunAnalyticsAndExport(t *testing.T) {
	tr := &fakeTransport{failWith: map[string]string{"fail@y.com": "rejected"}}
	srv, _ := newTestServer(t, tr)
	c := createTestCampaign(t, srv)

	resp := postJSON(t, srv.URL+"/api/campaigns/"+c.ID+"/launch", map[string]interface{}{
		"recipients": []map[string]string{
			{"email": "ok@x.com"},
			{"email": "fail@y.com"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		RunID string `json:"run_id"`
	}
	decode(t, resp, &out)

	aresp, err := http.Get(srv.URL + "/api/runs/" + out.RunID + "/analytics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, aresp.StatusCode)
	var analytics struct {
		ByDomain map[string]struct {
			Sent   int `json:"sent"`
			Failed int `json:"failed"`
		} `json:"by_domain"`
		SuccessRate float64 `json:"success_rate"`
	}
	decode(t, aresp, &analytics)
	assert.Equal(t, 1, analytics.ByDomain["x.com"].Sent)
	assert.Equal(t, 1, analytics.ByDomain["y.com"].Failed)

	eresp, err := http.Get(srv.URL + "/api/runs/" + out.RunID + "/export")
	require.NoError(t, err)
	defer eresp.Body.Close()
	require.Equal(t, http.StatusOK, eresp.StatusCode)
	assert.Equal(t, "text/csv", eresp.Header.Get("Content-Type"))

	var csv bytes.Buffer
	_, err = csv.ReadFrom(eresp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(csv.String(), "email,name,status,error,timestamp"))
	assert.Contains(t, csv.String(), "ok@x.com")
}

func TestRunProgressWithRedis(t *testing.T) {
	tr := &fakeTransport{}
	srv, h := newTestServer(t, tr)
	mr := miniredis.RunT(t)
	h.SetRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	c := createTestCampaign(t, srv)
	resp := postJSON(t, srv.URL+"/api/campaigns/"+c.ID+"/launch", map[string]interface{}{
		"recipients": []map[string]string{{"email": "a@x.com"}, {"email": "b@x.com"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		RunID string `json:"run_id"`
	}
	decode(t, resp, &out)

	presp, err := http.Get(srv.URL + "/api/runs/" + out.RunID + "/progress")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, presp.StatusCode)
	var progress struct {
		Completed int `json:"completed"`
		Total     int `json:"total"`
	}
	decode(t, presp, &progress)
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 2, progress.Total)
}

func TestRunProgressUnavailableWithoutRedis(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	resp, err := http.Get(srv.URL + "/api/runs/whatever/progress")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestImportS3Unconfigured(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	resp := postJSON(t, srv.URL+"/api/contacts/import-s3", map[string]string{"key": "lists/today.csv"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestListCountries(t *testing.T) {
	srv, _ := newTestServer(t, &fakeTransport{})
	resp, err := http.Get(srv.URL + "/api/countries")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Countries []struct {
			Name     string `json:"name"`
			Currency string `json:"currency"`
		} `json:"countries"`
	}
	decode(t, resp, &out)
	require.NotEmpty(t, out.Countries)
	assert.Equal(t, "Global", out.Countries[0].Name)
	assert.Equal(t, "USD", out.Countries[0].Currency)
}
