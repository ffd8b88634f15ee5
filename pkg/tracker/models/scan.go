package models

import (
	"time"
)

// ScanKind names one of the scan artifact collections attached to a domain.
type ScanKind string

const (
	ScanDKIM  ScanKind = "dkim"
	ScanDMARC ScanKind = "dmarc"
	ScanSPF   ScanKind = "spf"
	ScanHTTPS ScanKind = "https"
	ScanTLS   ScanKind = "tls"
)

// ScanKinds lists every artifact kind in the order they are purged.
var ScanKinds = []ScanKind{ScanDKIM, ScanDMARC, ScanSPF, ScanHTTPS, ScanTLS}

// DomainScan is the edge linking a domain to one scan artifact document.
type DomainScan struct {
	ID       uint     `gorm:"primarykey" json:"id"`
	DomainID uint     `gorm:"not null;index" json:"domain_id"`
	Kind     ScanKind `gorm:"type:varchar(10);not null;index" json:"kind"`
	ScanID   uint     `gorm:"not null" json:"scan_id"`
}

// DKIMScan is a DKIM scan result for one selector.
type DKIMScan struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Selector  string    `json:"selector"`
	Record    string    `json:"record"`
	KeyLength int       `json:"key_length"`
}

// DMARCScan is a DMARC record scan result.
type DMARCScan struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Record          string    `json:"record"`
	Policy          string    `json:"policy"`
	SubdomainPolicy string    `json:"subdomain_policy"`
	Pct             int       `json:"pct"`
}

// SPFScan is an SPF record scan result.
type SPFScan struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Record     string    `json:"record"`
	Lookups    int       `json:"lookups"`
	SPFDefault string    `json:"spf_default"`
}

// HTTPSScan is an HTTPS configuration scan result.
type HTTPSScan struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Implementation string    `json:"implementation"`
	Enforced       string    `json:"enforced"`
	HSTS           string    `json:"hsts"`
	Preloaded      string    `json:"preloaded"`
}

// TableName keeps HTTPS as one word; the default naming gives http_s_scans.
func (HTTPSScan) TableName() string {
	return "https_scans"
}

// TLSScan is a TLS/cipher scan result.
type TLSScan struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	AcceptableCiphers int       `json:"acceptable_ciphers"`
	WeakCiphers       int       `json:"weak_ciphers"`
	WeakCurves        int       `json:"weak_curves"`
	SSLv3             bool      `json:"sslv3"`
}

// ScanModel returns an empty model pointer for the given kind, or nil for an
// unknown kind.
func ScanModel(kind ScanKind) interface{} {
	switch kind {
	case ScanDKIM:
		return &DKIMScan{}
	case ScanDMARC:
		return &DMARCScan{}
	case ScanSPF:
		return &SPFScan{}
	case ScanHTTPS:
		return &HTTPSScan{}
	case ScanTLS:
		return &TLSScan{}
	}
	return nil
}
