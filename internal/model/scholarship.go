package model

import "time"

// ModerationState tracks a scholarship's editorial lifecycle.
type ModerationState string

const (
	ModerationDraft     ModerationState = "draft"
	ModerationPublished ModerationState = "published"
	ModerationArchived  ModerationState = "archived"
)

// Scholarship is the normalized, persisted representation of one scholarship.
// Code is the durable business identity; APIHash fingerprints the raw feed
// item that produced the current field content.
type Scholarship struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	APIHash         string          `json:"api_hash"`
	LastUpdate      int64           `json:"last_update"`      // epoch seconds from the feed's lastUpdated
	APIUpdateStamp  int64           `json:"api_update_stamp"` // epoch seconds of the import that wrote this row
	ClassLevels     []string        `json:"class_levels"`
	Kind            string          `json:"kind"`
	MinimumGPA      *float64        `json:"minimum_gpa,omitempty"`
	MinimumAge      *int            `json:"minimum_age,omitempty"`
	RaceCodes       []string        `json:"race_codes"`
	International   string          `json:"international"` // "yes" or empty
	Population      []string        `json:"population"`
	HomeStateIDs    []int64         `json:"home_state_ids"`
	SchoolIDs       []int64         `json:"school_ids"`
	MajorIDs        []int64         `json:"major_ids"`
	Published       bool            `json:"published"`
	ModerationState ModerationState `json:"moderation_state"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ScholarshipPayload is one scholarship as delivered by the remote feed.
// Optional fields are pointers so that absence never maps to a zero value.
type ScholarshipPayload struct {
	Code            string       `json:"code"`
	Name            string       `json:"name"`
	LastUpdated     string       `json:"lastUpdated"`
	Description     string       `json:"description"`
	Levels          []string     `json:"levels"`
	Merit           []MeritEntry `json:"merit"`
	MinimumAge      *int         `json:"minimumAge"`
	RaceCodes       []RaceCode   `json:"raceCodes"`
	International   bool         `json:"international"`
	StudentsOfColor bool         `json:"studentsOfColor"`
	Veterans        bool         `json:"veterans"`
	Gender          string       `json:"gender"`
	States          []string     `json:"states"`
	Colleges        []CollegeRef `json:"colleges"`
	Majors          []MajorRef   `json:"majors"`
}

// MeritEntry carries the merit classification of a feed item; only the first
// entry is meaningful to the importer.
type MeritEntry struct {
	MeritType  string   `json:"meritType"`
	MinimumGPA *float64 `json:"minimumGPA"`
}

// RaceCode is one race-code tag as delivered by the feed.
type RaceCode struct {
	ID string `json:"id"`
}

// CollegeRef references a school/college by its banner code.
type CollegeRef struct {
	CollegeCode string `json:"collegeCode"`
}

// MajorRef references a major and the college it belongs to.
type MajorRef struct {
	MajorCode   string `json:"majorCode"`
	Major       string `json:"major"`
	CollegeCode string `json:"collegeCode"`
}
