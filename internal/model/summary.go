package model

import (
	"github.com/guregu/null/v6"
)

// DateRange represents a range of dates in YYYY-MM-DD form
type DateRange struct {
	Start null.String `json:"start"`
	End   null.String `json:"end"`
}

// Summary is the aggregate view over a bar collection
type Summary struct {
	TotalRecords int       `json:"total_records"`
	DateRange    DateRange `json:"date_range"`
}

// DailyStats is the summary served for the daily dataset
type DailyStats struct {
	Summary
	LatestClose null.Float `json:"latest_close"`
	LatestRSI   null.Float `json:"latest_rsi"`
}

// UploadResult is returned after a CSV file has been ingested
type UploadResult struct {
	Status           string    `json:"status"`
	Message          string    `json:"message"`
	RecordsProcessed int       `json:"records_processed"`
	DateRange        DateRange `json:"date_range"`
}

// DatasetKind identifies which bar table a dataset belongs to
type DatasetKind string

const (
	DatasetDaily   DatasetKind = "daily"
	DatasetMonthly DatasetKind = "monthly"
)
