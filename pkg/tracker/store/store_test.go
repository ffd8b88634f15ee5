package store

import (
	"context"
	"errors"
	"testing"

	"github.com/mikepea/tracker/pkg/tracker/models"
	"github.com/mikepea/tracker/pkg/tracker/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*Store, *testutil.Graph) {
	db := testutil.OpenDB(t)
	return New(db), testutil.NewGraph(t, db)
}

func TestFindAffiliation(t *testing.T) {
	s, g := setupTestStore(t)
	ctx := context.Background()

	org := g.Org("cds", false)
	alice := g.User("alice@example.com")
	bob := g.User("bob@example.com")
	g.Affiliate(org, alice, models.PermissionAdmin)

	aff, err := s.FindAffiliation(ctx, org.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, aff)
	assert.Equal(t, models.PermissionAdmin, aff.Permission)

	aff, err = s.FindAffiliation(ctx, org.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, aff)
}

func TestFindOrganizationLoadsDetails(t *testing.T) {
	s, g := setupTestStore(t)
	org := g.Org("tbs", true)

	found, err := s.FindOrganization(context.Background(), org.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Verified)
	assert.Len(t, found.Details, 2)

	missing, err := s.FindOrganization(context.Background(), org.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSharedPermissions(t *testing.T) {
	s, g := setupTestStore(t)

	shared := g.Org("shared", false)
	other := g.Org("other", false)
	acting := g.User("acting@example.com")
	target := g.User("target@example.com")

	g.Affiliate(shared, acting, models.PermissionAdmin)
	g.Affiliate(shared, target, models.PermissionUser)
	// Only the acting user belongs to other.
	g.Affiliate(other, acting, models.PermissionSuperAdmin)

	perms, err := s.SharedPermissions(context.Background(), acting.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Permission{models.PermissionAdmin}, perms)
}

func TestOwnershipQueries(t *testing.T) {
	s, g := setupTestStore(t)
	ctx := context.Background()

	owner := g.Org("owner", false)
	claimant := g.Org("claimant", false)
	super := g.User("super@example.com")
	member := g.User("member@example.com")
	outsider := g.User("outsider@example.com")
	g.Affiliate(owner, super, models.PermissionSuperAdmin)
	g.Affiliate(owner, member, models.PermissionUser)
	g.Affiliate(claimant, outsider, models.PermissionSuperAdmin)

	domain := g.Domain("canada.ca")
	g.Claim(owner, domain)
	g.Claim(claimant, domain)
	g.Own(owner, domain)

	ok, err := s.HasSuperAdminOwnership(ctx, super.ID, domain.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasSuperAdminOwnership(ctx, member.ID, domain.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.HasAffiliatedOwnership(ctx, member.ID, domain.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasAffiliatedOwnership(ctx, outsider.ID, domain.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimedDomainsAndOtherClaims(t *testing.T) {
	s, g := setupTestStore(t)
	ctx := context.Background()

	a := g.Org("a", false)
	b := g.Org("b", false)
	solo := g.Domain("solo.ca")
	both := g.Domain("both.ca")
	g.Claim(a, solo)
	g.Claim(a, both)
	g.Claim(b, both)

	claimed, err := s.ClaimedDomains(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []ClaimedDomain{
		{DomainID: solo.ID, Name: "solo.ca"},
		{DomainID: both.ID, Name: "both.ca"},
	}, claimed)

	n, err := s.CountOtherClaims(ctx, solo.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.CountOtherClaims(ctx, both.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSummariesForDomain(t *testing.T) {
	s, g := setupTestStore(t)
	domain := g.Domain("cyber.gc.ca")
	other := g.Domain("other.gc.ca")
	g.Summary(domain, "thirtyDays")
	g.Summary(domain, "2026-09")
	g.Summary(other, "thirtyDays")

	summaries, err := s.SummariesForDomain(context.Background(), domain.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "thirtyDays", summaries[0].Period)
	assert.Equal(t, "2026-09", summaries[1].Period)
}

func TestQueryErrorClass(t *testing.T) {
	s, g := setupTestStore(t)
	org := g.Org("broken", false)
	require.NoError(t, g.DB.Migrator().DropTable(&models.Claim{}))

	_, err := s.ClaimedDomains(context.Background(), org.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuery))
	assert.False(t, errors.Is(err, ErrCursor))
	assert.Equal(t, "database error while gathering domain info", Message(err, "gathering domain info"))
}

func TestCursorErrorClass(t *testing.T) {
	s, g := setupTestStore(t)
	g.Domain("not-a-number.ca")

	q := g.DB.Table("domains").Select("name AS id")
	_, err := collect[idRow](s, "scanNames", q)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCursor))
	assert.Equal(t, "cursor error while checking tier", Message(err, "checking tier"))
}

func TestMessageForForeignError(t *testing.T) {
	assert.Equal(t, "unexpected error while checking tier", Message(errors.New("boom"), "checking tier"))
	assert.Nil(t, Class(errors.New("boom")))
}
