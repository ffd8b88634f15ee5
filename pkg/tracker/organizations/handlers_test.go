package organizations

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/tracker/pkg/tracker/auth"
	"github.com/mikepea/tracker/pkg/tracker/lifecycle"
	"github.com/mikepea/tracker/pkg/tracker/locale"
	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/permissions"
	"github.com/mikepea/tracker/pkg/tracker/roles"
	"github.com/mikepea/tracker/pkg/tracker/store"
	"github.com/mikepea/tracker/pkg/tracker/testutil"
	"go.uber.org/zap"
)

var tokens = auth.NewTokens("test-secret", time.Hour, "tracker-test")

type env struct {
	router *gin.Engine
	graph  *testutil.Graph
}

func setupTestRouter(t *testing.T) *env {
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	log := zap.NewNop()

	s := store.New(db)
	evaluator := permissions.NewEvaluator(s, log)
	presenter, err := locale.New("en")
	if err != nil {
		t.Fatalf("Failed to build presenter: %v", err)
	}
	handler := NewHandler(
		s,
		lifecycle.NewEngine(s, evaluator, log, nil),
		roles.NewService(s, evaluator, log, nil),
		evaluator,
		presenter,
		log,
	)

	r := gin.New()
	r.Use(locale.Middleware(presenter))
	orgs := r.Group("/organizations")
	orgs.Use(auth.Middleware(tokens))
	handler.RegisterRoutes(orgs)
	handler.RegisterMemberRoutes(orgs)

	return &env{router: r, graph: testutil.NewGraph(t, db)}
}

func getAuthHeader(t *testing.T, user models.User) string {
	token, err := tokens.Generate(user.ID, user.Username)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return "Bearer " + token
}

func (e *env) do(t *testing.T, method, path string, user models.User, body interface{}, lang string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", getAuthHeader(t, user))
	req.Header.Set("Content-Type", "application/json")
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestListOrganizations(t *testing.T) {
	e := setupTestRouter(t)
	user := e.graph.User("user@example.com")
	other := e.graph.User("other@example.com")
	cds := e.graph.Org("cds", false)
	tbs := e.graph.Org("tbs", true)
	e.graph.Affiliate(cds, user, models.PermissionAdmin)
	e.graph.Affiliate(cds, other, models.PermissionUser)
	e.graph.Affiliate(tbs, user, models.PermissionUser)

	w := e.do(t, http.MethodGet, "/organizations", user, nil, "fr")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var orgs []OrgResponse
	decode(t, w, &orgs)
	if len(orgs) != 2 {
		t.Fatalf("Expected 2 organizations, got %d", len(orgs))
	}
	if orgs[0].Name != "cds (fr)" {
		t.Errorf("Expected French name, got %q", orgs[0].Name)
	}
	if orgs[0].Permission != "admin" || orgs[0].MemberCount != 2 {
		t.Errorf("Unexpected first org: %+v", orgs[0])
	}
	if !orgs[1].Verified || orgs[1].MemberCount != 1 {
		t.Errorf("Unexpected second org: %+v", orgs[1])
	}
}

func TestGetOrganizationRequiresMembership(t *testing.T) {
	e := setupTestRouter(t)
	member := e.graph.User("member@example.com")
	outsider := e.graph.User("outsider@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, member, models.PermissionUser)

	w := e.do(t, http.MethodGet, "/organizations/1", member, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp OrgResponse
	decode(t, w, &resp)
	if resp.Name != "cds (en)" || resp.Permission != "user" {
		t.Errorf("Unexpected org: %+v", resp)
	}

	w = e.do(t, http.MethodGet, "/organizations/1", outsider, nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for non-member, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/organizations/abc", member, nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid ID, got %d", w.Code)
	}
}

func TestListMembers(t *testing.T) {
	e := setupTestRouter(t)
	admin := e.graph.User("admin@example.com")
	user := e.graph.User("user@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, admin, models.PermissionAdmin)
	e.graph.Affiliate(org, user, models.PermissionUser)

	w := e.do(t, http.MethodGet, "/organizations/1/members", user, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var members []MemberResponse
	decode(t, w, &members)
	if len(members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(members))
	}
	if members[0].Username != "admin@example.com" || members[0].Permission != "admin" {
		t.Errorf("Unexpected member: %+v", members[0])
	}
}

func TestLeaveOrganization(t *testing.T) {
	e := setupTestRouter(t)
	user := e.graph.User("user@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, user, models.PermissionUser)
	domain := e.graph.Domain("cds.example.ca")
	e.graph.Claim(org, domain)

	w := e.do(t, http.MethodPost, "/organizations/1/leave", user, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "Successfully left organization: cds (en)." {
		t.Errorf("Unexpected status: %q", body["status"])
	}
	if n := e.graph.CountAll(&models.Organization{}); n != 0 {
		t.Errorf("Expected organization to be removed, %d remain", n)
	}
	if n := e.graph.CountAll(&models.Domain{}); n != 0 {
		t.Errorf("Expected sole-claimed domain to be removed, %d remain", n)
	}
}

func TestLeaveOrganizationNotAffiliated(t *testing.T) {
	e := setupTestRouter(t)
	user := e.graph.User("user@example.com")
	e.graph.Org("cds", false)

	w := e.do(t, http.MethodPost, "/organizations/1/leave", user, nil, "fr")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	var body map[string]interface{}
	decode(t, w, &body)
	if body["reason"] != "NOT_AFFILIATED" {
		t.Errorf("Expected NOT_AFFILIATED, got %v", body["reason"])
	}
	if body["error"] != "Impossible de quitter l'organisation. Vous n'y êtes pas affilié." {
		t.Errorf("Expected French description, got %v", body["error"])
	}
}

func TestLeaveOrganizationFailureIsGeneric(t *testing.T) {
	e := setupTestRouter(t)
	user := e.graph.User("user@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, user, models.PermissionUser)
	testutil.FailDeletesOn(t, e.graph.DB, "affiliations")

	w := e.do(t, http.MethodPost, "/organizations/1/leave", user, nil, "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "Unable to leave organization. Please try again." {
		t.Errorf("Unexpected error message: %q", body["error"])
	}
	if n := e.graph.CountAll(&models.Affiliation{}); n != 1 {
		t.Errorf("Expected affiliation to survive rollback, got %d", n)
	}
}

func TestDeleteOrganization(t *testing.T) {
	tests := []struct {
		name       string
		verified   bool
		permission models.Permission
		wantStatus int
		wantReason string
	}{
		{"admin removes unverified", false, models.PermissionAdmin, http.StatusOK, ""},
		{"user cannot remove", false, models.PermissionUser, http.StatusForbidden, "PERMISSION_DENIED"},
		{"admin cannot remove verified", true, models.PermissionAdmin, http.StatusForbidden, "PERMISSION_DENIED"},
		{"super admin removes verified", true, models.PermissionSuperAdmin, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := setupTestRouter(t)
			user := e.graph.User("user@example.com")
			org := e.graph.Org("cds", tt.verified)
			e.graph.Affiliate(org, user, tt.permission)

			w := e.do(t, http.MethodDelete, "/organizations/1", user, nil, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			var body map[string]interface{}
			decode(t, w, &body)
			if tt.wantReason != "" && body["reason"] != tt.wantReason {
				t.Errorf("Expected reason %s, got %v", tt.wantReason, body["reason"])
			}

			wantOrgs := int64(1)
			if tt.wantStatus == http.StatusOK {
				wantOrgs = 0
			}
			if n := e.graph.CountAll(&models.Organization{}); n != wantOrgs {
				t.Errorf("Expected %d organizations, got %d", wantOrgs, n)
			}
		})
	}
}

func TestDeleteUnknownOrganization(t *testing.T) {
	e := setupTestRouter(t)
	user := e.graph.User("user@example.com")

	w := e.do(t, http.MethodDelete, "/organizations/42", user, nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestUpdateMemberRole(t *testing.T) {
	e := setupTestRouter(t)
	admin := e.graph.User("admin@example.com")
	user := e.graph.User("user@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, admin, models.PermissionAdmin)
	e.graph.Affiliate(org, user, models.PermissionUser)

	w := e.do(t, http.MethodPut, "/organizations/1/members/user@example.com/role", admin,
		UpdateRoleRequest{Permission: "ADMIN"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	decode(t, w, &body)
	if body["username"] != "user@example.com" || body["permission"] != "admin" {
		t.Errorf("Unexpected response: %v", body)
	}
	if n := e.graph.Count(&models.Affiliation{}, "user_id = ? AND permission = ?", user.ID, models.PermissionAdmin); n != 1 {
		t.Errorf("Expected permission to be updated")
	}
}

func TestUpdateMemberRoleDenied(t *testing.T) {
	e := setupTestRouter(t)
	admin := e.graph.User("admin@example.com")
	super := e.graph.User("super@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, admin, models.PermissionAdmin)
	e.graph.Affiliate(org, super, models.PermissionSuperAdmin)

	w := e.do(t, http.MethodPut, "/organizations/1/members/super@example.com/role", admin,
		UpdateRoleRequest{Permission: "user"}, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", w.Code)
	}
	var body map[string]interface{}
	decode(t, w, &body)
	if body["reason"] != "CANNOT_LOWER_SUPER_ADMIN" {
		t.Errorf("Expected CANNOT_LOWER_SUPER_ADMIN, got %v", body["reason"])
	}
	if body["error"] != "Permission Denied: Please contact super admin for help with user role changes." {
		t.Errorf("Unexpected description: %v", body["error"])
	}
}

func TestUpdateMemberRoleInvalidPermission(t *testing.T) {
	e := setupTestRouter(t)
	admin := e.graph.User("admin@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, admin, models.PermissionAdmin)

	w := e.do(t, http.MethodPut, "/organizations/1/members/user@example.com/role", admin,
		UpdateRoleRequest{Permission: "owner"}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	w = e.do(t, http.MethodPut, "/organizations/1/members/user@example.com/role", admin, nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing body, got %d", w.Code)
	}
}

func TestListRoleChanges(t *testing.T) {
	e := setupTestRouter(t)
	admin := e.graph.User("admin@example.com")
	user := e.graph.User("user@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, admin, models.PermissionAdmin)
	e.graph.Affiliate(org, user, models.PermissionUser)

	w := e.do(t, http.MethodPut, "/organizations/1/members/user@example.com/role", admin,
		UpdateRoleRequest{Permission: "admin"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected role update to succeed, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/organizations/1/role-changes", admin, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var changes []RoleChangeResponse
	decode(t, w, &changes)
	if len(changes) != 1 {
		t.Fatalf("Expected 1 role change, got %d", len(changes))
	}
	if changes[0].Previous != "user" || changes[0].Current != "admin" || changes[0].ActorID != admin.ID {
		t.Errorf("Unexpected role change: %+v", changes[0])
	}
}

func TestListRoleChangesRequiresAdmin(t *testing.T) {
	e := setupTestRouter(t)
	user := e.graph.User("user@example.com")
	org := e.graph.Org("cds", false)
	e.graph.Affiliate(org, user, models.PermissionUser)

	w := e.do(t, http.MethodGet, "/organizations/1/role-changes", user, nil, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	e := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/organizations", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}
