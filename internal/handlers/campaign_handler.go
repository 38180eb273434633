package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yowaacademy/backend/internal/models"
	"go.uber.org/zap"
)

// CampaignService is the interface that wraps methods for promotional campaigns
type CampaignService interface {
	// Method Create stores a campaign.
	//
	// If the end date is not after the start date a Validation error is returned,
	// if a featured course does not exist a NotFound error naming the first missing id is returned.
	Create(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error)
	// Method GetActive returns active campaigns with featured course titles.
	GetActive(ctx context.Context) ([]models.Campaign, error)
	// Method GetByID returns a campaign or a NotFound error.
	GetByID(ctx context.Context, id int) (*models.Campaign, error)
	// Method Update applies the provided fields with the create rules.
	Update(ctx context.Context, id int, req *models.UpdateCampaignRequest) (*models.Campaign, error)
	// Method Delete removes a campaign.
	Delete(ctx context.Context, id int) error
}

// CampaignHandler handles campaign HTTP requests
type CampaignHandler struct {
	BaseHandler
	campaignService CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService CampaignService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		campaignService: campaignService,
	}
}

// RegisterRoutes registers campaign routes. All of them are admin-only.
func (h *CampaignHandler) RegisterRoutes(r chi.Router, guards Guards) {
	r.Route("/campaigns", func(r chi.Router) {
		r.Use(guards.Admin()...)
		r.Get("/", h.GetActive)
		r.Post("/", h.Create)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// GetActive handles GET /campaigns
// @Summary List active campaigns
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Campaign
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /campaigns [get]
func (h *CampaignHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaignService.GetActive(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []models.Campaign{}
	}
	h.RespondJSON(w, http.StatusOK, campaigns)
}

// Create handles POST /campaigns
// @Summary Create campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCampaignRequest true "Campaign"
// @Success 201 {object} models.Campaign
// @Failure 400 {object} map[string]string "Invalid dates"
// @Failure 404 {object} map[string]string "Featured course not found"
// @Router /campaigns [post]
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCampaignRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	campaign, err := h.campaignService.Create(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, campaign)
}

// GetByID handles GET /campaigns/{id}
// @Summary Get campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} map[string]string "Campaign not found"
// @Router /campaigns/{id} [get]
func (h *CampaignHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	campaign, err := h.campaignService.GetByID(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, campaign)
}

// Update handles PUT /campaigns/{id}
// @Summary Update campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Param request body models.UpdateCampaignRequest true "Campaign fields"
// @Success 200 {object} models.Campaign
// @Failure 400 {object} map[string]string "Invalid dates"
// @Failure 404 {object} map[string]string "Campaign or course not found"
// @Router /campaigns/{id} [put]
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	var req models.UpdateCampaignRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	campaign, err := h.campaignService.Update(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, campaign)
}

// Delete handles DELETE /campaigns/{id}
// @Summary Delete campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} map[string]string "Campaign deleted"
// @Failure 404 {object} map[string]string "Campaign not found"
// @Router /campaigns/{id} [delete]
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := URLParamInt(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.campaignService.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondMessage(w, http.StatusOK, "campaign deleted successfully")
}
