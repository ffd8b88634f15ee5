// Package organizations exposes the organization lifecycle and membership
// endpoints.
package organizations

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/auth"
	"github.com/mikepea/tracker/pkg/tracker/lifecycle"
	"github.com/mikepea/tracker/pkg/tracker/locale"
	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/outcome"
	"github.com/mikepea/tracker/pkg/tracker/permissions"
	"github.com/mikepea/tracker/pkg/tracker/roles"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"go.uber.org/zap"
)

// Handler handles organization-related requests
type Handler struct {
	store     *store.Store
	engine    *lifecycle.Engine
	roles     *roles.Service
	evaluator *permissions.Evaluator
	presenter *locale.Presenter
	log       *zap.Logger
}

// NewHandler creates a new organizations handler
func NewHandler(
	s *store.Store,
	engine *lifecycle.Engine,
	roleService *roles.Service,
	evaluator *permissions.Evaluator,
	presenter *locale.Presenter,
	log *zap.Logger,
) *Handler {
	return &Handler{
		store:     s,
		engine:    engine,
		roles:     roleService,
		evaluator: evaluator,
		presenter: presenter,
		log:       log,
	}
}

// OrgResponse represents an organization in API responses
type OrgResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Acronym     string `json:"acronym"`
	Slug        string `json:"slug"`
	Verified    bool   `json:"verified"`
	Permission  string `json:"permission,omitempty"` // Caller's permission in this org
	Owner       bool   `json:"owner"`
	MemberCount int64  `json:"member_count"`
	CreatedAt   string `json:"created_at"`
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Permission  string `json:"permission"`
	Owner       bool   `json:"owner"`
}

// RoleChangeResponse represents one recorded role change
type RoleChangeResponse struct {
	ActorID      uint   `json:"actor_id"`
	TargetUserID uint   `json:"target_user_id"`
	Previous     string `json:"previous"`
	Current      string `json:"current"`
	RequestID    string `json:"request_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// UpdateRoleRequest represents the request to change a member's permission
type UpdateRoleRequest struct {
	Permission string `json:"permission" binding:"required"`
}

func (h *Handler) orgResponse(c *gin.Context, org models.Organization, aff *models.Affiliation, members int64) OrgResponse {
	detail := org.Detail(locale.Code(h.presenter.Language(c)))
	resp := OrgResponse{
		ID:          org.ID,
		Name:        detail.Name,
		Acronym:     detail.Acronym,
		Slug:        detail.Slug,
		Verified:    org.Verified,
		MemberCount: members,
		CreatedAt:   org.CreatedAt.Format(time.RFC3339),
	}
	if aff != nil {
		resp.Permission = string(aff.Permission)
		resp.Owner = aff.Owner
	}
	return resp
}

func parseOrgID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID"})
		return 0, false
	}
	return uint(id), true
}

// membership returns the caller's affiliation in the org named by the path,
// writing a 404 when the caller is not a member.
func (h *Handler) membership(c *gin.Context) (uint, *models.Affiliation, bool) {
	userID, _ := auth.GetUserID(c)
	orgID, ok := parseOrgID(c)
	if !ok {
		return 0, nil, false
	}

	aff, err := h.store.FindAffiliation(c.Request.Context(), orgID, userID)
	if err != nil {
		h.log.Error(store.Message(err, "checking membership"),
			zap.Uint("user_key", userID), zap.Uint("org_key", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch organization"})
		return 0, nil, false
	}
	if aff == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return 0, nil, false
	}
	return orgID, aff, true
}

// List returns all organizations the current user is affiliated with
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := auth.GetUserID(c)

	affs, err := h.store.AffiliationsForUser(ctx, userID)
	if err != nil {
		h.log.Error(store.Message(err, "listing organizations"), zap.Uint("user_key", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch organizations"})
		return
	}

	orgs := make([]OrgResponse, 0, len(affs))
	for i := range affs {
		members, err := h.store.CountAffiliations(ctx, affs[i].OrganizationID)
		if err != nil {
			h.log.Error(store.Message(err, "listing organizations"),
				zap.Uint("user_key", userID), zap.Uint("org_key", affs[i].OrganizationID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch organizations"})
			return
		}
		orgs = append(orgs, h.orgResponse(c, affs[i].Organization, &affs[i], members))
	}

	c.JSON(http.StatusOK, orgs)
}

// Get returns a specific organization
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, aff, ok := h.membership(c)
	if !ok {
		return
	}

	org, err := h.store.FindOrganization(ctx, orgID)
	if err == nil && org == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}
	var members int64
	if err == nil {
		members, err = h.store.CountAffiliations(ctx, orgID)
	}
	if err != nil {
		h.log.Error(store.Message(err, "fetching organization"), zap.Uint("org_key", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch organization"})
		return
	}

	c.JSON(http.StatusOK, h.orgResponse(c, *org, aff, members))
}

// ListMembers returns all members of an organization
func (h *Handler) ListMembers(c *gin.Context) {
	orgID, _, ok := h.membership(c)
	if !ok {
		return
	}

	affs, err := h.store.AffiliationsInOrganization(c.Request.Context(), orgID)
	if err != nil {
		h.log.Error(store.Message(err, "listing members"), zap.Uint("org_key", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	members := make([]MemberResponse, len(affs))
	for i, a := range affs {
		members[i] = MemberResponse{
			UserID:      a.UserID,
			Username:    a.User.Username,
			DisplayName: a.User.DisplayName,
			Permission:  string(a.Permission),
			Owner:       a.Owner,
		}
	}

	c.JSON(http.StatusOK, members)
}

// Leave removes the caller from an organization
func (h *Handler) Leave(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, ok := parseOrgID(c)
	if !ok {
		return
	}

	res, err := h.engine.LeaveOrganization(c.Request.Context(), userID, orgID)
	h.presenter.Render(c, outcome.OpLeaveOrganization, res, err)
}

// Delete removes an organization and everything it solely claims
func (h *Handler) Delete(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, ok := parseOrgID(c)
	if !ok {
		return
	}

	res, err := h.engine.RemoveOrganization(c.Request.Context(), userID, orgID)
	h.presenter.Render(c, outcome.OpRemoveOrganization, res, err)
}

// UpdateMemberRole changes the permission of the member named in the path
func (h *Handler) UpdateMemberRole(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, ok := parseOrgID(c)
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tier, err := permissions.ParseTier(req.Permission)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Permission must be one of user, admin, super_admin"})
		return
	}

	res, err := h.roles.UpdateUserRole(c.Request.Context(), roles.Request{
		ActingUserID:   userID,
		TargetUsername: c.Param("username"),
		OrganizationID: orgID,
		Requested:      tier,
	})
	h.presenter.Render(c, outcome.OpUpdateUserRole, res, err)
}

// ListRoleChanges returns the role change audit trail of an organization.
// Requires admin or super admin in the organization.
func (h *Handler) ListRoleChanges(c *gin.Context) {
	ctx := c.Request.Context()
	orgID, aff, ok := h.membership(c)
	if !ok {
		return
	}
	if permissions.FromPermission(aff.Permission) < permissions.TierAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	changes, err := h.store.RoleChangesForOrganization(ctx, orgID)
	if err != nil {
		h.log.Error(store.Message(err, "listing role changes"), zap.Uint("org_key", orgID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch role changes"})
		return
	}

	resp := make([]RoleChangeResponse, len(changes))
	for i, rc := range changes {
		resp[i] = RoleChangeResponse{
			ActorID:      rc.ActorID,
			TargetUserID: rc.TargetUserID,
			Previous:     string(rc.Previous),
			Current:      string(rc.Current),
			RequestID:    rc.RequestID,
			CreatedAt:    rc.CreatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers organization routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/leave", h.Leave)
	rg.GET("/:id/role-changes", h.ListRoleChanges)
}

// RegisterMemberRoutes registers organization member routes
func (h *Handler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/members", h.ListMembers)
	rg.PUT("/:id/members/:username/role", h.UpdateMemberRole)
}
