package models

import "time"

// RiskAssessment is the result of a re-identification risk computation.
// Score is the percentage of rows whose quasi-identifier tuple occurs exactly
// once in the table.
type RiskAssessment struct {
	Score            float64   `json:"score"`
	TotalRows        int       `json:"total_rows"`
	UniqueRows       int       `json:"unique_rows"`
	QuasiIdentifiers []string  `json:"quasi_identifiers"`
	AssessedAt       time.Time `json:"assessed_at"`
}

// AnonymizationConfig describes a transform pipeline: additive Laplace noise
// on the named numeric columns, then optional age-bucket generalization.
type AnonymizationConfig struct {
	NoiseColumns   []string `json:"noise_columns,omitempty"`
	NoiseScale     float64  `json:"noise_scale,omitempty"`
	RoundToInt     bool     `json:"round_to_int,omitempty"`
	Seed           *uint64  `json:"seed,omitempty"`
	AgeColumn      string   `json:"age_column,omitempty"`
	AgeBucketWidth int      `json:"age_bucket_width,omitempty"`
}

// ColumnDrift reports how much noise moved a column's distribution
type ColumnDrift struct {
	Column       string  `json:"column"`
	MeanBefore   float64 `json:"mean_before"`
	MeanAfter    float64 `json:"mean_after"`
	StdDevBefore float64 `json:"stddev_before"`
	StdDevAfter  float64 `json:"stddev_after"`
	MeanAbsDelta float64 `json:"mean_abs_delta"`
}

// ComparisonReport holds before/after risk assessments for the same
// quasi-identifier set, plus the utility cost of the transform.
type ComparisonReport struct {
	Before *RiskAssessment `json:"before"`
	After  *RiskAssessment `json:"after"`
	Delta  float64         `json:"delta"`
	Drift  []ColumnDrift   `json:"drift,omitempty"`
}

// LinkageResult is the outcome of matching the working table against an
// auxiliary true-identifiers table on shared quasi-identifier columns.
type LinkageResult struct {
	MatchedRecords   int      `json:"matched_records"`
	TotalRecords     int      `json:"total_records"`
	Risk             float64  `json:"risk"`
	QuasiIdentifiers []string `json:"quasi_identifiers"`
}

// DatasetSummary describes an uploaded table without its data
type DatasetSummary struct {
	ID             string    `json:"id"`
	Columns        []string  `json:"columns"`
	NumericColumns []string  `json:"numeric_columns"`
	RowCount       int       `json:"row_count"`
	HasTrueIDs     bool      `json:"has_true_identifiers"`
	HasAnonymized  bool      `json:"has_anonymized"`
	CreatedAt      time.Time `json:"created_at"`
}
