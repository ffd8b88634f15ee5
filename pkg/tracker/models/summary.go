package models

import (
	"time"
)

// DmarcSummary is one aggregate DMARC report period for a domain.
type DmarcSummary struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Period        string    `gorm:"not null" json:"period"` // e.g. "2026-09" or "thirtyDays"
	TotalMessages int       `json:"total_messages"`
	FullPass      int       `json:"full_pass"`
	PassSPFOnly   int       `json:"pass_spf_only"`
	PassDKIMOnly  int       `json:"pass_dkim_only"`
	Fail          int       `json:"fail"`
}

// DomainSummary is the edge linking a domain to one DMARC summary.
type DomainSummary struct {
	ID        uint `gorm:"primarykey" json:"id"`
	DomainID  uint `gorm:"not null;index" json:"domain_id"`
	SummaryID uint `gorm:"not null;uniqueIndex" json:"summary_id"`
}
