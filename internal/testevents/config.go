package testevents

import "time"

// Config holds configuration for the event test
type Config struct {
	BaseURL    string        // Base URL of the service
	StoreID    string        // Store the synthetic events belong to
	Days       int           // Number of business days to simulate
	StaffCount int           // Number of staff members on the roster
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for events
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// AckResponse represents the response from event submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsFailed     int
	ScoresRetrieved  int
	AwardsRetrieved  int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
