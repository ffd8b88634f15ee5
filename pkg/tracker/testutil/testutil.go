// Package testutil provides database fixtures for tests.
package testutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mikepea/tracker/pkg/tracker/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrInjected is the error produced by the Fail*On hooks.
var ErrInjected = errors.New("injected failure")

// OpenDB returns a migrated in-memory sqlite database. The pool is pinned to
// one connection so every query sees the same memory database.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// FailDeletesOn makes every delete against table fail with ErrInjected.
func FailDeletesOn(t testing.TB, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Delete().Before("gorm:delete").
		Register("testutil:fail_delete_"+table, failOn(table))
	if err != nil {
		t.Fatalf("Failed to register delete hook: %v", err)
	}
}

// FailUpdatesOn makes every update against table fail with ErrInjected.
func FailUpdatesOn(t testing.TB, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Update().Before("gorm:update").
		Register("testutil:fail_update_"+table, failOn(table))
	if err != nil {
		t.Fatalf("Failed to register update hook: %v", err)
	}
}

// FailCreatesOn makes every insert into table fail with ErrInjected.
func FailCreatesOn(t testing.TB, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").
		Register("testutil:fail_create_"+table, failOn(table))
	if err != nil {
		t.Fatalf("Failed to register create hook: %v", err)
	}
}

func failOn(table string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(ErrInjected)
		}
	}
}

// Graph seeds users, organizations, domains and the edges between them.
type Graph struct {
	t  testing.TB
	DB *gorm.DB
}

// NewGraph returns a fixture builder over db.
func NewGraph(t testing.TB, db *gorm.DB) *Graph {
	return &Graph{t: t, DB: db}
}

func (g *Graph) create(value interface{}) {
	g.t.Helper()
	if err := g.DB.Create(value).Error; err != nil {
		g.t.Fatalf("Failed to create %T: %v", value, err)
	}
}

// User creates a user with the given username.
func (g *Graph) User(username string) models.User {
	g.t.Helper()
	user := models.User{Username: username, DisplayName: username, EmailValidated: true}
	g.create(&user)
	return user
}

// Org creates an organization with English and French details.
func (g *Graph) Org(name string, verified bool) models.Organization {
	g.t.Helper()
	org := models.Organization{Verified: verified}
	g.create(&org)
	for _, locale := range []string{models.LocaleEnglish, models.LocaleFrench} {
		detail := models.OrganizationDetail{
			OrganizationID: org.ID,
			Locale:         locale,
			Slug:           fmt.Sprintf("%s-%s", name, locale),
			Name:           fmt.Sprintf("%s (%s)", name, locale),
			Acronym:        name,
		}
		g.create(&detail)
		org.Details = append(org.Details, detail)
	}
	return org
}

// Affiliate links user to org with the given permission.
func (g *Graph) Affiliate(org models.Organization, user models.User, perm models.Permission) models.Affiliation {
	g.t.Helper()
	aff := models.Affiliation{OrganizationID: org.ID, UserID: user.ID, Permission: perm}
	g.create(&aff)
	return aff
}

// Domain creates a domain with one scan artifact of every kind.
func (g *Graph) Domain(name string) models.Domain {
	g.t.Helper()
	domain := models.Domain{Name: name}
	g.create(&domain)

	now := time.Now()
	for _, kind := range models.ScanKinds {
		var scanID uint
		switch kind {
		case models.ScanDKIM:
			doc := models.DKIMScan{Timestamp: now, Selector: "selector1"}
			g.create(&doc)
			scanID = doc.ID
		case models.ScanDMARC:
			doc := models.DMARCScan{Timestamp: now, Policy: "reject"}
			g.create(&doc)
			scanID = doc.ID
		case models.ScanSPF:
			doc := models.SPFScan{Timestamp: now, SPFDefault: "fail"}
			g.create(&doc)
			scanID = doc.ID
		case models.ScanHTTPS:
			doc := models.HTTPSScan{Timestamp: now, Implementation: "Valid HTTPS"}
			g.create(&doc)
			scanID = doc.ID
		case models.ScanTLS:
			doc := models.TLSScan{Timestamp: now, AcceptableCiphers: 3}
			g.create(&doc)
			scanID = doc.ID
		}
		g.create(&models.DomainScan{DomainID: domain.ID, Kind: kind, ScanID: scanID})
	}
	return domain
}

// Claim records org's claim on domain.
func (g *Graph) Claim(org models.Organization, domain models.Domain) {
	g.t.Helper()
	g.create(&models.Claim{OrganizationID: org.ID, DomainID: domain.ID})
}

// Own makes org the designated owner of domain.
func (g *Graph) Own(org models.Organization, domain models.Domain) {
	g.t.Helper()
	g.create(&models.Ownership{OrganizationID: org.ID, DomainID: domain.ID})
}

// Summary links a DMARC summary for period to domain.
func (g *Graph) Summary(domain models.Domain, period string) models.DmarcSummary {
	g.t.Helper()
	summary := models.DmarcSummary{Period: period, TotalMessages: 100, FullPass: 90, Fail: 10}
	g.create(&summary)
	g.create(&models.DomainSummary{DomainID: domain.ID, SummaryID: summary.ID})
	return summary
}

// Count counts rows of model matching the condition.
func (g *Graph) Count(model interface{}, query string, args ...interface{}) int64 {
	g.t.Helper()
	var n int64
	if err := g.DB.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		g.t.Fatalf("Failed to count %T: %v", model, err)
	}
	return n
}

// CountAll counts every row of model.
func (g *Graph) CountAll(model interface{}) int64 {
	g.t.Helper()
	var n int64
	if err := g.DB.Model(model).Count(&n).Error; err != nil {
		g.t.Fatalf("Failed to count %T: %v", model, err)
	}
	return n
}

// FailCommitsAfter makes every transaction that runs event (INSERT, UPDATE
// or DELETE) against table fail when it commits. A trigger leaves a dangling
// deferred foreign key behind, which sqlite only checks at COMMIT. Call it
// after seeding: autocommit writes to table fail immediately.
func FailCommitsAfter(t testing.TB, db *gorm.DB, table, event string) {
	t.Helper()
	stmts := []string{
		"PRAGMA foreign_keys = ON",
		"CREATE TABLE IF NOT EXISTS commit_guards (id INTEGER PRIMARY KEY)",
		"CREATE TABLE IF NOT EXISTS commit_guard_refs (guard_id INTEGER NOT NULL " +
			"REFERENCES commit_guards(id) DEFERRABLE INITIALLY DEFERRED)",
		fmt.Sprintf("CREATE TRIGGER fail_commit_%s_%s AFTER %s ON %s "+
			"BEGIN INSERT INTO commit_guard_refs (guard_id) VALUES (1); END",
			table, strings.ToLower(event), event, table),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("Failed to install commit guard on %s: %v", table, err)
		}
	}
}
