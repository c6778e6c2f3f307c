package ports

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrEndpointNotFound matches calls the service answered with 404, meaning
// it does not offer that endpoint
var ErrEndpointNotFound = errors.New("companion: endpoint not found")

// DatabaseList is the service's view of the registry
type DatabaseList struct {
	Available []string `json:"available"`
	Loaded    []string `json:"loaded"`
}

// LoadResult is returned by load and force-reload
type LoadResult struct {
	Message      string         `json:"message"`
	EntityCounts map[string]int `json:"entity_counts"`
	FileModTime  *float64       `json:"file_mod_time,omitempty"`
}

// AnalyzeRequest asks the service to rebuild its graph for a database
type AnalyzeRequest struct {
	Database    string         `json:"database_name"`
	Layout      string         `json:"layout"`
	ShowLabels  bool           `json:"show_labels"`
	Filters     map[string]any `json:"filters"`
	ForceReload bool           `json:"force_reload"`
}

// AnalyzeResult summarizes an analysis run. The visualization payload is
// not decoded.
type AnalyzeResult struct {
	NodeCount     int             `json:"node_count"`
	EdgeCount     int             `json:"edge_count"`
	VehicleCount  int             `json:"vehicle_count"`
	AreaCount     int             `json:"area_count"`
	ForceReloaded bool            `json:"force_reloaded"`
	Statistics    json.RawMessage `json:"statistics,omitempty"`
}

// EntityCounts is the service's vehicles/areas tally
type EntityCounts struct {
	Vehicles int `json:"vehicles"`
	Areas    int `json:"areas"`
}

// FileStatus compares the file on disk with the service's in-memory copy
type FileStatus struct {
	DatabaseName string        `json:"database_name"`
	FilePath     string        `json:"file_path"`
	FileModTime  float64       `json:"file_mod_time"`
	FileSize     int64         `json:"file_size"`
	IsLoaded     bool          `json:"is_loaded_in_memory"`
	FileCounts   EntityCounts  `json:"file_entity_counts"`
	MemoryCounts *EntityCounts `json:"memory_entity_counts"`
	SyncStatus   string        `json:"data_sync_status"`
}

// Report is the comprehensive cross-database report
type Report struct {
	Report            json.RawMessage `json:"report"`
	DatabasesAnalyzed int             `json:"databases_analyzed"`
	ForceReloaded     bool            `json:"force_reloaded"`
}

// Suggestions lists filter values the service knows about
type Suggestions struct {
	Suggestions map[string][]string `json:"suggestions"`
	Fallback    bool                `json:"fallback"`
}

// CompanionService is the external analysis service that caches data
// files in memory. Every call is best effort from the caller's side.
type CompanionService interface {
	// Ping checks liveness with a short timeout
	Ping(ctx context.Context) error

	Databases(ctx context.Context) (*DatabaseList, error)
	Load(ctx context.Context, database string) (*LoadResult, error)
	ForceReload(ctx context.Context, database string) (*LoadResult, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error)
	FileStatus(ctx context.Context, database string) (*FileStatus, error)

	// Report builds the comprehensive report; no databases means all loaded
	Report(ctx context.Context, databases []string) (*Report, error)
	Suggestions(ctx context.Context, database string) (*Suggestions, error)

	// Entity fetches one record by id from the service's copy
	Entity(ctx context.Context, database, id string) (json.RawMessage, error)
}
