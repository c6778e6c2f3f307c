package config

import (
	"time"

	"ies4ops/internal/domain"
)

const (
	DefaultDatabase       = "OP7"
	DefaultServiceURL     = "http://127.0.0.1:8080"
	DefaultPingTimeout    = 5 * time.Second
	DefaultRequestTimeout = 60 * time.Second
	DefaultRefreshDelay   = 3 * time.Second
	DefaultDataDir        = "data"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "pretty"
)

// DefaultDataDirCandidates is the probe list used when none is configured.
// Most specific first; DefaultDataDir is the fallback.
var DefaultDataDirCandidates = []string{
	"./data",
	"../data",
	"../ies4-military-database-analysis/data",
	"~/ies4-military-database-analysis/data",
	"~/Documents/ies4-military-database-analysis/data",
}

// DefaultDatabases mirrors the registry of the companion analysis service
func DefaultDatabases() []domain.Database {
	return []domain.Database{
		{Code: "OP1", DataFile: "donetsk_oblast.json", DisplayName: "Donetsk Oblast", Description: "Operational picture for Donetsk oblast"},
		{Code: "OP2", DataFile: "dnipropetrovsk_oblast.json", DisplayName: "Dnipropetrovsk Oblast", Description: "Operational picture for Dnipropetrovsk oblast"},
		{Code: "OP3", DataFile: "zaporizhzhia_oblast.json", DisplayName: "Zaporizhzhia Oblast", Description: "Operational picture for Zaporizhzhia oblast"},
		{Code: "OP4", DataFile: "kyiv_oblast.json", DisplayName: "Kyiv Oblast", Description: "Operational picture for Kyiv oblast"},
		{Code: "OP5", DataFile: "kirovohrad_oblast.json", DisplayName: "Kirovohrad Oblast", Description: "Operational picture for Kirovohrad oblast"},
		{Code: "OP6", DataFile: "mykolaiv_oblast.json", DisplayName: "Mykolaiv Oblast", Description: "Operational picture for Mykolaiv oblast"},
		{Code: "OP7", DataFile: "odesa_oblast.json", DisplayName: "Odesa Oblast", Description: "Operational picture for Odesa oblast"},
		{Code: "OP8", DataFile: "sumy_oblast.json", DisplayName: "Sumy Oblast", Description: "Operational picture for Sumy oblast"},
		{Code: "combined", DataFile: "ies4_consolidated.json", DisplayName: "Combined", Description: "All national databases merged"},
		{Code: "usa", DataFile: "ies4_usa_consolidated.json", DisplayName: "United States", Description: "National consolidated database"},
		{Code: "uk", DataFile: "ies4_uk_consolidated.json", DisplayName: "United Kingdom", Description: "National consolidated database"},
		{Code: "sweden", DataFile: "ies4_sweden_consolidated.json", DisplayName: "Sweden", Description: "National consolidated database"},
		{Code: "russia", DataFile: "ies4_russia_consolidated.json", DisplayName: "Russia", Description: "National consolidated database"},
		{Code: "poland", DataFile: "ies4_poland_consolidated.json", DisplayName: "Poland", Description: "National consolidated database"},
		{Code: "germany", DataFile: "ies4_germany_consolidated.json", DisplayName: "Germany", Description: "National consolidated database"},
		{Code: "finland", DataFile: "ies4_finland_consolidated.json", DisplayName: "Finland", Description: "National consolidated database"},
		{Code: "iran", DataFile: "ies4_iran_consolidated.json", DisplayName: "Iran", Description: "National consolidated database"},
		{Code: "china", DataFile: "ies4_china_consolidated.json", DisplayName: "China", Description: "National consolidated database"},
		{Code: "france", DataFile: "ies4_france_consolidated.json", DisplayName: "France", Description: "National consolidated database"},
		{Code: "north_korea", DataFile: "ies4_north_korea_consolidated.json", DisplayName: "North Korea", Description: "National consolidated database"},
	}
}
