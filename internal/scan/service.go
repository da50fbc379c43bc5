package scan

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ahjaypee/se-asia-scanner/internal/convert"
	"github.com/ahjaypee/se-asia-scanner/internal/extraction"
	"github.com/ahjaypee/se-asia-scanner/internal/geo"
	"github.com/ahjaypee/se-asia-scanner/internal/vision"
)

// AmountConverter computes a currency conversion for an extracted total.
type AmountConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (*convert.Result, error)
}

// IDGenerator generates unique IDs for scans and trips.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// PipelineOutcome is the result of one pipeline invocation. Total is nil
// when no amount could be extracted; Errors lists the error kinds hit.
type PipelineOutcome struct {
	Scan       *Scan           `json:"scan,omitempty"`
	Total      *float64        `json:"total"`
	Converted  *convert.Result `json:"converted"`
	Display    string          `json:"display,omitempty"`
	Commentary string          `json:"commentary,omitempty"`
	Errors     []string        `json:"errors"`
}

// Service coordinates the scan pipeline: recognize, extract, convert,
// persist. The pipeline stages themselves are pure; the only state here is
// the history store and the latest-result guard.
type Service struct {
	db          DB
	recognizer  vision.Recognizer
	storage     Storage
	converter   AmountConverter
	locator     geo.Locator
	idGenerator IDGenerator
	timeSource  TimeSource
	extractCfg  extraction.Config

	// seq tags each invocation so a stale in-flight result cannot
	// overwrite a newer one after the user retakes the photo.
	seq    atomic.Uint64
	mu     sync.Mutex
	latest *PipelineOutcome
}

// NewService creates a Service with default ID generator and time source.
// locator may be nil when no geolocation lookup is configured.
func NewService(db DB, recognizer vision.Recognizer, storage Storage, converter AmountConverter, locator geo.Locator, extractCfg extraction.Config) *Service {
	return &Service{
		db:          db,
		recognizer:  recognizer,
		storage:     storage,
		converter:   converter,
		locator:     locator,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
		extractCfg:  extractCfg,
	}
}

// NewServiceWithDeps creates a Service with custom dependencies for testing.
func NewServiceWithDeps(db DB, recognizer vision.Recognizer, storage Storage, converter AmountConverter, locator geo.Locator, extractCfg extraction.Config, idGen IDGenerator, timeSrc TimeSource) *Service {
	s := NewService(db, recognizer, storage, converter, locator, extractCfg)
	s.idGenerator = idGen
	s.timeSource = timeSrc
	return s
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	// Phone cameras generate very long names
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "scan"
	}

	return base + ext
}

// commit publishes an outcome as the latest result, unless a newer
// invocation has been issued since this one started.
func (s *Service) commit(seq uint64, outcome *PipelineOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.seq.Load() {
		s.latest = outcome
	} else {
		slog.Info("Discarding stale pipeline result", "seq", seq, "latest", s.seq.Load())
	}
}

// Latest returns the most recent committed outcome, or nil before the
// first successful invocation. Failed invocations never replace it.
func (s *Service) Latest() *PipelineOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// RunPipeline processes one capture end to end: recognize the photo,
// extract a total (or take the provider's structured one), convert it, and
// persist the scan with its photo.
//
// The returned outcome is always non-nil; on failure its Errors field names
// the error kind and the returned error matches the package sentinels. A
// failed invocation leaves the previously displayed result untouched.
func (s *Service) RunPipeline(ctx context.Context, filename string, data []byte, contentType string, mode vision.Mode, from, to string) (*PipelineOutcome, error) {
	seq := s.seq.Add(1)
	outcome := &PipelineOutcome{Errors: []string{}}

	recognized, err := s.recognizer.Scan(data, contentType, mode)
	if err != nil {
		slog.Error("Failed to recognize photo",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		outcome.Errors = append(outcome.Errors, KindRecognitionFailed)
		return outcome, fmt.Errorf("%w: %v", ErrRecognitionFailed, err)
	}

	var total float64
	switch {
	case recognized.Total != nil && *recognized.Total == 0:
		// Provider sentinel: the photo holds no monetary amount.
		outcome.Errors = append(outcome.Errors, KindNoAmountFound)
		return outcome, fmt.Errorf("%w: not a monetary scan", ErrNoAmountFound)
	case recognized.Total != nil:
		total = *recognized.Total
	default:
		normalized := extraction.Normalize(recognized.Text, s.extractCfg)
		token, ok := extraction.SelectTotal(extraction.Tokens(normalized, s.extractCfg))
		if !ok {
			outcome.Errors = append(outcome.Errors, KindNoAmountFound)
			return outcome, fmt.Errorf("%w: no candidate in recognized text", ErrNoAmountFound)
		}
		total = token.Value
	}
	outcome.Total = &total

	result, err := s.converter.Convert(ctx, total, from, to)
	if err != nil {
		if kind, ok := Kind(err); ok {
			outcome.Errors = append(outcome.Errors, kind)
		}
		return outcome, err
	}
	outcome.Converted = result
	outcome.Display = result.Display()
	outcome.Commentary = recognized.Commentary

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return outcome, fmt.Errorf("saving photo: %w", err)
	}

	record := &Scan{
		ID:             id,
		Mode:           string(mode),
		From:           result.From,
		To:             result.To,
		Total:          total,
		Rate:           result.Rate.InexactFloat64(),
		ConvertedCents: result.Cents(),
		Commentary:     recognized.Commentary,
		Filename:       savedPath,
		ContentType:    contentType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.SaveScan(record); err != nil {
		// Clean up the photo if the database save fails
		s.storage.Delete(savedPath)
		return outcome, fmt.Errorf("saving scan to database: %w", err)
	}
	outcome.Scan = record

	s.commit(seq, outcome)
	return outcome, nil
}

// ConvertManualAmount converts a user-edited total, bypassing recognition
// entirely. Successful conversions replace the latest displayed result
// under the same staleness guard as the full pipeline.
func (s *Service) ConvertManualAmount(ctx context.Context, amount float64, from, to string) (*convert.Result, error) {
	seq := s.seq.Add(1)

	result, err := s.converter.Convert(ctx, amount, from, to)
	if err != nil {
		return nil, err
	}

	s.commit(seq, &PipelineOutcome{
		Total:     &amount,
		Converted: result,
		Display:   result.Display(),
		Errors:    []string{},
	})
	return result, nil
}

// SuggestCurrency returns a location-based currency code for pre-populating
// a selector. Best-effort: any failure is reported as absence.
func (s *Service) SuggestCurrency(ctx context.Context) (string, bool) {
	if s.locator == nil {
		return "", false
	}
	code, err := s.locator.LocateCurrency(ctx)
	if err != nil {
		slog.Info("Currency suggestion unavailable", "error", err)
		return "", false
	}
	return code, true
}

// GetScan retrieves a scan by ID.
func (s *Service) GetScan(id string) (*Scan, error) {
	record, err := s.db.GetScan(id)
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return record, nil
}

// ListScans returns all scans.
func (s *Service) ListScans() ([]*Scan, error) {
	scans, err := s.db.ListScans()
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return scans, nil
}

// DeleteScan removes a scan and its photo.
func (s *Service) DeleteScan(id string) error {
	record, err := s.db.GetScan(id)
	if err != nil {
		return fmt.Errorf("getting scan for deletion: %w", err)
	}

	if err := s.storage.Delete(record.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete photo", "filename", record.Filename, "error", err)
	}

	if err := s.db.DeleteScan(id); err != nil {
		return fmt.Errorf("deleting scan from database: %w", err)
	}
	return nil
}

// GetScanPhoto retrieves the photo bytes for a scan.
func (s *Service) GetScanPhoto(id string) ([]byte, string, error) {
	record, err := s.db.GetScan(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan: %w", err)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting scan photo: %w", err)
	}

	return data, record.ContentType, nil
}

// CreateTrip groups the given scans into a trip and sums their converted
// spend. A scan can belong to at most one trip.
func (s *Service) CreateTrip(name string, scanIDs []string) (*Trip, error) {
	if len(scanIDs) == 0 {
		return nil, fmt.Errorf("at least one scan is required")
	}

	now := s.timeSource.Now()
	id := s.idGenerator.Generate()

	var totalCents int
	for _, scanID := range scanIDs {
		record, err := s.db.GetScan(scanID)
		if err != nil {
			return nil, fmt.Errorf("getting scan %s: %w", scanID, err)
		}
		if record.TripID != "" {
			return nil, fmt.Errorf("scan %s already belongs to a trip", scanID)
		}
		totalCents += record.ConvertedCents
	}

	trip := &Trip{
		ID:         id,
		Name:       strings.TrimSpace(name),
		ScanIDs:    scanIDs,
		TotalCents: totalCents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.db.SaveTrip(trip); err != nil {
		return nil, fmt.Errorf("saving trip: %w", err)
	}

	for _, scanID := range scanIDs {
		record, err := s.db.GetScan(scanID)
		if err != nil {
			return nil, fmt.Errorf("getting scan %s for update: %w", scanID, err)
		}
		record.TripID = id
		record.UpdatedAt = now
		if err := s.db.SaveScan(record); err != nil {
			return nil, fmt.Errorf("updating scan %s: %w", scanID, err)
		}
	}

	return trip, nil
}

// GetTripWithScans retrieves a trip along with its scans.
func (s *Service) GetTripWithScans(id string) (*Trip, []*Scan, error) {
	trip, err := s.db.GetTrip(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting trip: %w", err)
	}

	scans := make([]*Scan, 0, len(trip.ScanIDs))
	for _, scanID := range trip.ScanIDs {
		record, err := s.db.GetScan(scanID)
		if err != nil {
			return nil, nil, fmt.Errorf("getting scan %s: %w", scanID, err)
		}
		scans = append(scans, record)
	}

	return trip, scans, nil
}

// ListTrips returns all trips.
func (s *Service) ListTrips() ([]*Trip, error) {
	trips, err := s.db.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	return trips, nil
}
