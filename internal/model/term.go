package model

import "time"

// Vocabulary names the three reference-entity namespaces.
const (
	VocabularyLocation string = "location"
	VocabularySchools  string = "schools"
	VocabularyMajor    string = "scholarship_major"
)

// Term is a reusable lookup entity (home state, school, major).
// The natural key depends on the vocabulary:
//   - location: Name (full state name)
//   - schools: BannerCode
//   - scholarship_major: (MajorCode, Name)
//
// Unused key columns stay empty so one composite unique index covers all
// three vocabularies.
type Term struct {
	ID         int64     `json:"id"`
	Vocabulary string    `json:"vocabulary"`
	Name       string    `json:"name"`
	BannerCode string    `json:"banner_code"`
	MajorCode  string    `json:"major_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
