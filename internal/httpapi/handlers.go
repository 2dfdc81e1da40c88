package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/leadpilot/leadsync/internal/leads"
	"github.com/leadpilot/leadsync/internal/provider"
	"github.com/leadpilot/leadsync/internal/runlog"
	"github.com/leadpilot/leadsync/internal/syncer"
	"github.com/leadpilot/leadsync/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Store   leads.Store
	Orch    *syncer.Orchestrator
	Runs    *runlog.Service
	Cache   syncer.SummaryCache
	Factory provider.Factory
}

/* ===================== sync ===================== */

type triggerSyncRequest struct {
	CampaignID string `json:"campaign_id"`
}

// TriggerSync runs a sync pass synchronously and returns its summary. The
// pass itself never fails on campaign errors; those land in the summary's
// errors list and the caller decides whether to alert.
func (h Handlers) TriggerSync(c *gin.Context) {
	var req triggerSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	summary, err := h.Orch.Run(c.Request.Context(), syncer.Scope{CampaignID: req.CampaignID})
	if err != nil {
		switch {
		case errors.Is(err, leads.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		case errors.Is(err, syncer.ErrCampaignNotSyncable):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "campaign has no provider credential"})
		default:
			logger.FromGin(c).Error("sync trigger failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync failed to start"})
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h Handlers) ListRuns(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	runs, err := h.Runs.List(c.Request.Context(), c.Query("campaign_id"), limit)
	if err != nil {
		logger.FromGin(c).Error("run history list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "run history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// LastSummary serves the cached summary of the most recent pass for a scope.
func (h Handlers) LastSummary(c *gin.Context) {
	scope := c.DefaultQuery("scope", "all")
	summary, ok, err := h.Cache.Load(c.Request.Context(), scope)
	if err != nil {
		logger.FromGin(c).Error("summary cache read failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary unavailable"})
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no summary recorded for scope"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

/* ===================== campaigns ===================== */

type createCampaignRequest struct {
	Name               string `json:"name"`
	ClientName         string `json:"client_name"`
	ProviderType       string `json:"provider_type"`
	ProviderCampaignID string `json:"provider_campaign_id"`
	APIKey             string `json:"api_key"`
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	campaign := leads.Campaign{
		Name:       req.Name,
		ClientName: req.ClientName,
	}
	if req.APIKey != "" {
		typ := provider.Type(req.ProviderType)
		if err := h.validateCredential(c, typ, req.APIKey); err != nil {
			return // response already written
		}
		campaign.ProviderType = typ
		campaign.ProviderCampaignID = req.ProviderCampaignID
		campaign.APIKey = req.APIKey
	}

	if err := h.Store.CreateCampaign(c.Request.Context(), &campaign); err != nil {
		if errors.Is(err, leads.ErrDuplicate) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "provider campaign already linked"})
			return
		}
		logger.FromGin(c).Error("campaign create failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign create failed"})
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

type campaignWithLastRun struct {
	leads.Campaign
	LastRun *runlog.Run `json:"last_run,omitempty"`
}

// ListCampaigns returns every campaign together with its most recent
// campaign-scoped sync run.
func (h Handlers) ListCampaigns(c *gin.Context) {
	campaigns, err := h.Store.ListCampaigns(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("campaign list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign list failed"})
		return
	}

	out := make([]campaignWithLastRun, 0, len(campaigns))
	for _, campaign := range campaigns {
		entry := campaignWithLastRun{Campaign: campaign}
		runs, err := h.Runs.List(c.Request.Context(), campaign.ID, 1)
		if err != nil {
			logger.FromGin(c).Warn("last run lookup failed", "campaign_id", campaign.ID, "err", err)
		} else if len(runs) > 0 {
			run := runs[0]
			entry.LastRun = &run
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": out})
}

type rotateCredentialRequest struct {
	ProviderType       string `json:"provider_type"`
	ProviderCampaignID string `json:"provider_campaign_id"`
	APIKey             string `json:"api_key"`
}

// RotateCredential replaces a campaign's provider credential. The key is
// probed against the provider before the row changes, so a typo cannot take
// a campaign out of the sync rotation.
func (h Handlers) RotateCredential(c *gin.Context) {
	var req rotateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.APIKey == "" || req.ProviderCampaignID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "api_key and provider_campaign_id required"})
		return
	}
	typ := provider.Type(req.ProviderType)
	if err := h.validateCredential(c, typ, req.APIKey); err != nil {
		return
	}

	err := h.Store.UpdateCampaignCredential(c.Request.Context(), c.Param("id"), typ, req.ProviderCampaignID, req.APIKey)
	switch {
	case errors.Is(err, leads.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
	case errors.Is(err, leads.ErrDuplicate):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "provider campaign already linked"})
	case err != nil:
		logger.FromGin(c).Error("credential rotate failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "credential rotate failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ListRemoteCampaigns lists the campaigns a credential can see, so an
// operator can pick the provider_campaign_id to link.
func (h Handlers) ListRemoteCampaigns(c *gin.Context) {
	campaign, err := h.Store.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return
	}
	if campaign.APIKey == "" || !campaign.ProviderType.Valid() {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "campaign has no provider credential"})
		return
	}
	prov, err := h.Factory(campaign.ProviderType, campaign.APIKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	remote, err := prov.ListCampaigns(c.Request.Context())
	if err != nil {
		h.providerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": remote})
}

/* ===================== leads ===================== */

func (h Handlers) ListLeads(c *gin.Context) {
	rows, err := h.Store.ListLeads(c.Request.Context(), c.Param("id"), intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		logger.FromGin(c).Error("lead list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lead list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": rows})
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetLeadStatus is the explicit workflow override. It is the only path that
// may move a lead backward (e.g. reopening a closed_lost).
func (h Handlers) SetLeadStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.Store.SetLeadStatus(c.Request.Context(), c.Param("id"), leads.Status(req.Status))
	switch {
	case errors.Is(err, leads.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
	case errors.Is(err, leads.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "lead not found"})
	case err != nil:
		logger.FromGin(c).Error("status override failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status override failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// DuplicateReport lists (campaign, email) pairs holding more than one lead
// row. Duplicates are tolerated by the engine but surfaced here for cleanup.
func (h Handlers) DuplicateReport(c *gin.Context) {
	groups, err := h.Store.FindDuplicateLeads(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("duplicate report failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "duplicate report failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": groups})
}

/* ===================== helpers ===================== */

// validateCredential probes the provider with the candidate key. Writes the
// error response itself and returns non-nil when the caller should stop.
func (h Handlers) validateCredential(c *gin.Context, typ provider.Type, apiKey string) error {
	if !typ.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown provider_type"})
		return errors.New("invalid type")
	}
	prov, err := h.Factory(typ, apiKey)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return err
	}
	if err := prov.ValidateKey(c.Request.Context()); err != nil {
		h.providerError(c, err)
		return err
	}
	return nil
}

func (h Handlers) providerError(c *gin.Context, err error) {
	switch {
	case provider.IsCredential(err):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "provider rejected the api key"})
	case provider.IsTransient(err):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "provider temporarily unavailable"})
	default:
		logger.FromGin(c).Error("provider call failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "provider call failed"})
	}
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
