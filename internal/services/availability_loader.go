package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/apperrors"
	"alfredoptarigan/profile-matcher/internal/models"
)

// AvailabilityHeaders are the columns every availability CSV must carry.
// available_to and manager_name are read when present.
var AvailabilityHeaders = []string{
	"res_id",
	"status",
	"allocation_pct",
	"current_project",
	"available_from",
	"updated_at",
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

type LoadResult struct {
	TotalRows int `json:"total_rows"`
	Loaded    int `json:"loaded"`
	Skipped   int `json:"skipped"`
	// Evicted counts cached resources dropped because the new load no
	// longer lists them.
	Evicted int `json:"evicted"`
}

// AvailabilityLoader parses the canonical availability CSV. Invalid rows are
// logged and skipped.
type AvailabilityLoader struct {
	logger *zap.Logger
}

func NewAvailabilityLoader(logger *zap.Logger) *AvailabilityLoader {
	return &AvailabilityLoader{logger: logger.Named("availability_loader")}
}

func (l *AvailabilityLoader) LoadFile(path string) ([]models.ProfileAvailability, LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, LoadResult{}, apperrors.NotFound(apperrors.CodeDocumentNotFound, "availability CSV not found: %s", path)
		}
		return nil, LoadResult{}, fmt.Errorf("failed to open availability CSV: %w", err)
	}
	defer f.Close()

	return l.Load(f)
}

func (l *AvailabilityLoader) Load(r io.Reader) ([]models.ProfileAvailability, LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, LoadResult{}, apperrors.Validation(apperrors.CodeInvalidInput, "CSV header is required")
	}
	if err != nil {
		return nil, LoadResult{}, apperrors.Validation(apperrors.CodeInvalidInput, "invalid CSV header: %v", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var missing []string
	for _, name := range AvailabilityHeaders {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, LoadResult{}, apperrors.Validation(apperrors.CodeInvalidInput, "missing required CSV headers: %s", strings.Join(missing, ", "))
	}

	var (
		records []models.ProfileAvailability
		result  LoadResult
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, result, apperrors.Validation(apperrors.CodeInvalidInput, "invalid CSV row %d: %v", result.TotalRows+1, err)
		}
		result.TotalRows++

		field := func(name string) string {
			if i, ok := columns[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		rec, reason := parseAvailabilityRow(field)
		if reason != "" {
			result.Skipped++
			l.logger.Warn("skipping availability row",
				zap.Int("row", result.TotalRows),
				zap.String("reason", reason),
			)
			continue
		}
		records = append(records, rec)
	}

	result.Loaded = len(records)
	return records, result, nil
}

func parseAvailabilityRow(field func(string) string) (models.ProfileAvailability, string) {
	resID, err := strconv.ParseInt(field("res_id"), 10, 64)
	if err != nil || resID <= 0 {
		return models.ProfileAvailability{}, "invalid res_id=" + field("res_id")
	}

	status := models.AvailabilityStatus(strings.ToLower(field("status")))
	if !status.Valid() {
		return models.ProfileAvailability{}, "invalid status=" + field("status")
	}

	allocation, err := strconv.Atoi(field("allocation_pct"))
	if err != nil || allocation < 0 || allocation > 100 {
		return models.ProfileAvailability{}, "invalid allocation_pct=" + field("allocation_pct")
	}

	updatedAt, ok := parseDatetime(field("updated_at"))
	if !ok {
		return models.ProfileAvailability{}, "invalid updated_at=" + field("updated_at")
	}

	rec := models.ProfileAvailability{
		ResID:          resID,
		Status:         status,
		AllocationPct:  allocation,
		CurrentProject: field("current_project"),
		ManagerName:    field("manager_name"),
		UpdatedAt:      updatedAt,
	}
	if from, err := time.Parse(time.DateOnly, field("available_from")); err == nil {
		rec.AvailableFrom = &from
	}
	if to, err := time.Parse(time.DateOnly, field("available_to")); err == nil {
		rec.AvailableTo = &to
	}

	return rec, ""
}

func parseDatetime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
