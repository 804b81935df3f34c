package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ScholarshipLockKey returns the advisory edit-lock key for a scholarship.
func (r *CacheKeyStruct) ScholarshipLockKey(scholarshipID int64) string {
	return fmt.Sprintf("content_lock:scholarship:%d", scholarshipID)
}

var CacheKey = NewCacheKeyStruct()
