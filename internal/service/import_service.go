package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/du-marcomm/scholarship-sync/internal/config"
	"github.com/du-marcomm/scholarship-sync/internal/lock"
	"github.com/du-marcomm/scholarship-sync/internal/model"
	"github.com/du-marcomm/scholarship-sync/internal/repository"
	"github.com/du-marcomm/scholarship-sync/internal/scholarhash"
)

// Domain errors.
var (
	ErrInvalidScholarship = errors.New("scholarship item is missing code or name")
	ErrInvalidManualJSON  = errors.New("manual import payload is not valid JSON")
)

// ImportOutcome reports what reconciling one feed item did.
type ImportOutcome int

const (
	ImportSkipped ImportOutcome = iota
	ImportCreated
	ImportUpdated
)

func (o ImportOutcome) String() string {
	switch o {
	case ImportCreated:
		return "created"
	case ImportUpdated:
		return "updated"
	default:
		return "skipped"
	}
}

// ImportService reconciles raw feed items into stored scholarships and
// feeds the Redis work queues.
type ImportService struct {
	scholarships repository.ScholarshipRepository
	terms        *TermService
	locks        lock.EditLock
	feed         *FeedService
	rdb          *redis.Client
	log          zerolog.Logger
	now          func() time.Time
}

func NewImportService(
	scholarships repository.ScholarshipRepository,
	terms *TermService,
	locks lock.EditLock,
	feed *FeedService,
	rdb *redis.Client,
	log zerolog.Logger,
) *ImportService {
	return &ImportService{
		scholarships: scholarships,
		terms:        terms,
		locks:        locks,
		feed:         feed,
		rdb:          rdb,
		log:          log.With().Str("component", "import_service").Logger(),
		now:          time.Now,
	}
}

// ProcessItem reconciles one raw feed item against the store.
//
// Reprocessing an unchanged item is a no-op: the (code, fingerprint) lookup
// finds the previously written row and the timestamp gate leaves it alone,
// which is what makes redelivery from the at-least-once queue safe.
func (s *ImportService) ProcessItem(ctx context.Context, raw json.RawMessage) (ImportOutcome, error) {
	var payload model.ScholarshipPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ImportSkipped, fmt.Errorf("%w: %v", ErrInvalidScholarship, err)
	}
	if payload.Code == "" || payload.Name == "" {
		return ImportSkipped, ErrInvalidScholarship
	}

	fingerprint, err := scholarhash.Fingerprint(raw)
	if err != nil {
		return ImportSkipped, err
	}

	node, err := s.scholarships.FindByCodeAndHash(ctx, payload.Code, fingerprint)
	if err != nil {
		return ImportSkipped, fmt.Errorf("find scholarship: %w", err)
	}

	isNew := node == nil
	if isNew {
		node = &model.Scholarship{
			Code:            payload.Code,
			ModerationState: model.ModerationDraft,
		}
	}

	needUpdate := false
	if !isNew {
		needUpdate = s.needsUpdate(&payload, node)
	}

	if !isNew && !needUpdate && node.Published {
		s.log.Info().
			Str("code", node.Code).
			Str("title", node.Title).
			Msg("scholarship already imported and unchanged, skipping")
		return ImportSkipped, nil
	}

	if err := s.applyPayload(ctx, node, &payload, fingerprint); err != nil {
		return ImportSkipped, err
	}

	// An import always (re)publishes: a refreshed record that was archived
	// in a previous cycle has reappeared in the feed.
	node.Published = true
	node.ModerationState = model.ModerationPublished

	if !isNew {
		if err := s.locks.Release(ctx, node.ID); err != nil {
			s.log.Warn().Err(err).Int64("id", node.ID).Msg("failed to release edit lock")
		}
	}

	if err := s.scholarships.Upsert(ctx, node); err != nil {
		return ImportSkipped, fmt.Errorf("save scholarship: %w", err)
	}

	s.log.Info().
		Str("code", node.Code).
		Str("title", node.Title).
		Int64("id", node.ID).
		Bool("new", isNew).
		Msg("scholarship imported")

	if isNew {
		return ImportCreated, nil
	}
	return ImportUpdated, nil
}

// needsUpdate compares the feed's lastUpdated against the stored value.
// The comparison is <= rather than <: an identical timestamp still counts
// as updated, so redelivery of an unchanged item rewrites the same row
// with the same content rather than skipping it.
func (s *ImportService) needsUpdate(payload *model.ScholarshipPayload, node *model.Scholarship) bool {
	feedUpdated := parseFeedTime(payload.LastUpdated)

	if node.LastUpdate <= feedUpdated {
		s.log.Info().
			Str("code", node.Code).
			Str("title", node.Title).
			Int64("stored", node.LastUpdate).
			Int64("feed", feedUpdated).
			Msg("scholarship requires updating")
		return true
	}

	s.log.Info().
		Str("code", node.Code).
		Str("title", node.Title).
		Msg("scholarship did not require updating")
	return false
}

// applyPayload maps the feed item onto the stored record. Optional feed
// fields are only written when present; absence keeps the prior value.
func (s *ImportService) applyPayload(ctx context.Context, node *model.Scholarship, payload *model.ScholarshipPayload, fingerprint string) error {
	node.APIUpdateStamp = s.now().Unix()
	node.LastUpdate = parseFeedTime(payload.LastUpdated)
	node.APIHash = fingerprint
	node.Title = html.UnescapeString(payload.Name)

	if payload.Description != "" {
		node.Description = payload.Description
	}

	if len(payload.Levels) > 0 {
		node.ClassLevels = classLevelTags(payload.Levels)
	}

	if len(payload.Merit) > 0 {
		if payload.Merit[0].MeritType != "" {
			node.Kind = strings.ToLower(payload.Merit[0].MeritType)
		}
		if payload.Merit[0].MinimumGPA != nil {
			node.MinimumGPA = payload.Merit[0].MinimumGPA
		}
	}

	if payload.MinimumAge != nil {
		node.MinimumAge = payload.MinimumAge
	}

	if len(payload.RaceCodes) > 0 {
		raceCodes := make([]string, 0, len(payload.RaceCodes))
		for _, rc := range payload.RaceCodes {
			raceCodes = append(raceCodes, rc.ID)
		}
		node.RaceCodes = raceCodes
	}

	if payload.International {
		node.International = "yes"
	}

	// Population tags are additive and independent; the set is always
	// rewritten so dropped tags disappear.
	var population []string
	if payload.StudentsOfColor {
		population = append(population, "students_color")
	}
	if payload.Gender == "F" {
		population = append(population, "women")
	}
	if payload.Veterans {
		population = append(population, "veterans")
	}
	node.Population = population

	if len(payload.States) > 0 {
		if err := s.applyHomeStates(ctx, node, payload.States); err != nil {
			return err
		}
	}

	return s.applySchoolsAndMajors(ctx, node, payload)
}

func (s *ImportService) applyHomeStates(ctx context.Context, node *model.Scholarship, states []string) error {
	names := HomeStateNames(states)

	var stateIDs []int64
	seen := make(map[string]bool)
	for _, abbr := range states {
		abbr = strings.ToUpper(strings.TrimSpace(abbr))
		name, ok := names[abbr]
		if !ok || seen[abbr] {
			continue
		}
		seen[abbr] = true

		term, err := s.terms.ResolveLocation(ctx, name)
		if err != nil {
			return fmt.Errorf("resolve home state %q: %w", name, err)
		}
		stateIDs = append(stateIDs, term.ID)
	}
	node.HomeStateIDs = stateIDs
	return nil
}

func (s *ImportService) applySchoolsAndMajors(ctx context.Context, node *model.Scholarship, payload *model.ScholarshipPayload) error {
	// schoolIDs mirrors the feed's college list one-to-one; schoolByCode
	// indexes the resolved ids by normalized code for the major
	// association lookup below.
	var schoolIDs []int64
	schoolByCode := make(map[string]int64)

	if len(payload.Colleges) > 0 {
		for _, college := range payload.Colleges {
			code := normalizeCollegeCode(college.CollegeCode)
			term, err := s.terms.ResolveSchool(ctx, code)
			if err != nil {
				return fmt.Errorf("resolve school %q: %w", code, err)
			}
			schoolIDs = append(schoolIDs, term.ID)
			schoolByCode[code] = term.ID
		}
		node.SchoolIDs = schoolIDs
	}

	if len(payload.Majors) == 0 {
		return nil
	}

	var majorIDs []int64
	for _, major := range payload.Majors {
		term, err := s.terms.ResolveMajor(ctx, major.MajorCode, major.Major)
		if err != nil {
			return fmt.Errorf("resolve major %q: %w", major.Major, err)
		}
		majorIDs = append(majorIDs, term.ID)

		// With several schools on the record, a major associates to the
		// school matching its own college code; with exactly one school,
		// every major associates to it regardless of code.
		switch {
		case len(schoolIDs) > 1:
			code := normalizeCollegeCode(major.CollegeCode)
			if id, ok := schoolByCode[code]; ok {
				if err := s.terms.AddSchoolAssociation(ctx, term.ID, []int64{id}); err != nil {
					return err
				}
			}
		case len(schoolIDs) == 1:
			if err := s.terms.AddSchoolAssociation(ctx, term.ID, schoolIDs); err != nil {
				return err
			}
		}
	}
	node.MajorIDs = majorIDs
	return nil
}

// QueueFromFeed fetches the remote feed and enqueues every valid item onto
// the import queue, followed by one archive item carrying the cycle's
// deduplicated fingerprint set. Returns (queued, total fetched).
func (s *ImportService) QueueFromFeed(ctx context.Context) (int, int, error) {
	items, err := s.feed.GetScholarships(ctx)
	if err != nil {
		// Already logged by the feed service; the cycle proceeds as
		// "no scholarships available".
		return 0, 0, err
	}
	if len(items) == 0 {
		s.log.Info().Msg("feed returned no scholarships, nothing queued")
		return 0, 0, nil
	}

	queued := 0
	var fingerprints []string
	seen := make(map[string]bool)

	for _, raw := range items {
		if !validScholarshipItem(raw) {
			continue
		}

		fingerprint, err := scholarhash.Fingerprint(raw)
		if err != nil {
			s.log.Warn().Err(err).Msg("skipping unfingerprintable feed item")
			continue
		}
		if !seen[fingerprint] {
			seen[fingerprint] = true
			fingerprints = append(fingerprints, fingerprint)
		}

		if err := s.rdb.RPush(ctx, config.WorkerKey.ScholarshipImportQueue, []byte(raw)).Err(); err != nil {
			return queued, len(items), fmt.Errorf("enqueue scholarship: %w", err)
		}
		queued++
	}

	archiveItem, err := json.Marshal(fingerprints)
	if err != nil {
		return queued, len(items), fmt.Errorf("encode archive set: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.ScholarshipArchiveQueue, archiveItem).Err(); err != nil {
		return queued, len(items), fmt.Errorf("enqueue archive set: %w", err)
	}

	s.log.Info().
		Int("queued", queued).
		Int("total", len(items)).
		Msg("scholarship import cycle queued")
	return queued, len(items), nil
}

// QueueManual enqueues operator-pasted JSON: either an array of scholarships
// or a single scholarship object, detected by a top-level code key. Items
// missing code or name are silently dropped. Manual imports never enqueue an
// archive set.
func (s *ImportService) QueueManual(ctx context.Context, rawJSON string) (int, error) {
	data := []byte(rawJSON)

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		// Not an array; maybe a single scholarship object.
		if !json.Valid(data) {
			return 0, ErrInvalidManualJSON
		}
		if !validScholarshipItem(data) {
			return 0, nil
		}
		if err := s.rdb.RPush(ctx, config.WorkerKey.ScholarshipImportQueue, data).Err(); err != nil {
			return 0, fmt.Errorf("enqueue scholarship: %w", err)
		}
		s.log.Info().Msg("manual import queued 1 scholarship")
		return 1, nil
	}

	queued := 0
	for _, raw := range items {
		if !validScholarshipItem(raw) {
			continue
		}
		if err := s.rdb.RPush(ctx, config.WorkerKey.ScholarshipImportQueue, []byte(raw)).Err(); err != nil {
			return queued, fmt.Errorf("enqueue scholarship: %w", err)
		}
		queued++
	}

	s.log.Info().
		Int("queued", queued).
		Int("total", len(items)).
		Msg("manual import queued")
	return queued, nil
}

// validScholarshipItem reports whether a raw item is a JSON object with
// non-empty code and name.
func validScholarshipItem(raw []byte) bool {
	var head struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return false
	}
	return head.Code != "" && head.Name != ""
}
