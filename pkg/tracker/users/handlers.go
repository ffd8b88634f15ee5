// Package users exposes user profiles to callers with reach over them.
package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/auth"
	"github.com/mikepea/tracker/pkg/tracker/locale"
	"github.com/mikepea/tracker/pkg/tracker/permissions"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// Handler handles user lookups
type Handler struct {
	store     *store.Store
	evaluator *permissions.Evaluator
	presenter *locale.Presenter
	log       *zap.Logger
}

// NewHandler creates a new users handler
func NewHandler(s *store.Store, evaluator *permissions.Evaluator, presenter *locale.Presenter, log *zap.Logger) *Handler {
	return &Handler{store: s, evaluator: evaluator, presenter: presenter, log: log}
}

// AffiliationResponse is one organization the user belongs to
type AffiliationResponse struct {
	OrganizationID uint   `json:"organization_id"`
	Name           string `json:"name"`
	Permission     string `json:"permission"`
	Owner          bool   `json:"owner"`
}

// ProfileResponse represents a user profile
type ProfileResponse struct {
	ID             uint                  `json:"id"`
	Username       string                `json:"username"`
	DisplayName    string                `json:"display_name"`
	PreferredLang  string                `json:"preferred_lang"`
	EmailValidated bool                  `json:"email_validated"`
	PhoneValidated bool                  `json:"phone_validated"`
	TFAValidated   bool                  `json:"tfa_validated"`
	Affiliations   []AffiliationResponse `json:"affiliations"`
}

// Get returns the profile of the user named in the path. Callers see their
// own profile and the profiles of users they administer; everyone else gets
// a 404.
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := auth.GetUserID(c)
	username := c.Param("username")

	target, err := h.store.FindUserByUsername(ctx, username)
	if err != nil {
		h.log.Error(store.Message(err, "fetching user"),
			zap.Uint("user_key", userID), zap.String("target_username", username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if target.ID != userID {
		allowed, err := h.evaluator.CanActOnUser(ctx, userID, target.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		if !allowed {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
	}

	affs, err := h.store.AffiliationsForUser(ctx, target.ID)
	if err != nil {
		h.log.Error(store.Message(err, "fetching user"),
			zap.Uint("user_key", userID), zap.Uint("target_key", target.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	code := locale.Code(h.presenter.Language(c))
	resp := ProfileResponse{
		ID:             target.ID,
		Username:       target.Username,
		DisplayName:    target.DisplayName,
		PreferredLang:  target.PreferredLang,
		EmailValidated: target.EmailValidated,
		PhoneValidated: target.PhoneValidated,
		TFAValidated:   target.TFAValidated,
		Affiliations:   make([]AffiliationResponse, len(affs)),
	}
	for i, a := range affs {
		resp.Affiliations[i] = AffiliationResponse{
			OrganizationID: a.OrganizationID,
			Name:           a.Organization.Detail(code).Name,
			Permission:     string(a.Permission),
			Owner:          a.Owner,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:username", h.Get)
}
