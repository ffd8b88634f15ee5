// Package domains exposes domain reads gated by domain ownership.
package domains

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/auth"
	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/ownership"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// Handler handles domain-related requests
type Handler struct {
	store    *store.Store
	resolver *ownership.Resolver
	log      *zap.Logger
}

// NewHandler creates a new domains handler
func NewHandler(s *store.Store, resolver *ownership.Resolver, log *zap.Logger) *Handler {
	return &Handler{store: s, resolver: resolver, log: log}
}

// DomainResponse represents a domain in API responses
type DomainResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Selectors string  `json:"selectors,omitempty"`
	LastRan   *string `json:"last_ran,omitempty"`
}

// SummaryResponse represents one DMARC summary period
type SummaryResponse struct {
	Period        string `json:"period"`
	TotalMessages int    `json:"total_messages"`
	FullPass      int    `json:"full_pass"`
	PassSPFOnly   int    `json:"pass_spf_only"`
	PassDKIMOnly  int    `json:"pass_dkim_only"`
	Fail          int    `json:"fail"`
}

// authorize loads the domain named by the path and checks the caller may act
// on it. It writes the response and returns nil when the request should stop.
func (h *Handler) authorize(c *gin.Context) *models.Domain {
	ctx := c.Request.Context()
	userID, _ := auth.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain ID"})
		return nil
	}
	domainID := uint(id)

	domain, err := h.store.FindDomain(ctx, domainID)
	if err != nil {
		h.log.Error(store.Message(err, "fetching domain"), zap.Uint("domain_key", domainID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch domain"})
		return nil
	}
	if domain == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
		return nil
	}

	allowed, err := h.resolver.CanActOnDomain(ctx, userID, domainID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return nil
	}
	return domain
}

// Get returns a domain
func (h *Handler) Get(c *gin.Context) {
	domain := h.authorize(c)
	if domain == nil {
		return
	}

	resp := DomainResponse{ID: domain.ID, Name: domain.Name, Selectors: domain.Selectors}
	if domain.LastRan != nil {
		s := domain.LastRan.Format(time.RFC3339)
		resp.LastRan = &s
	}
	c.JSON(http.StatusOK, resp)
}

// ListSummaries returns the DMARC summaries of a domain
func (h *Handler) ListSummaries(c *gin.Context) {
	domain := h.authorize(c)
	if domain == nil {
		return
	}

	summaries, err := h.store.SummariesForDomain(c.Request.Context(), domain.ID)
	if err != nil {
		h.log.Error(store.Message(err, "listing dmarc summaries"), zap.Uint("domain_key", domain.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch summaries"})
		return
	}

	resp := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = SummaryResponse{
			Period:        s.Period,
			TotalMessages: s.TotalMessages,
			FullPass:      s.FullPass,
			PassSPFOnly:   s.PassSPFOnly,
			PassDKIMOnly:  s.PassDKIMOnly,
			Fail:          s.Fail,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers domain routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.Get)
	rg.GET("/:id/summaries", h.ListSummaries)
}
