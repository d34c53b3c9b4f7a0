package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	// currency symbols, thousands separators, brackets and blanks
	moneyNoiseRegex = regexp.MustCompile(`[\s$€£,\[\]]`)

	dateLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05-0700",
		"2006-01-02 15:04:05 -0700 MST",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02 15:04:05",
		"2006/01/02",
		"1/2/2006 3:04:05 PM",
		"1/2/2006 3:04 PM",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006",
		"1/2/06 15:04",
		"1/2/06",
		"1-2-2006",
		"1-2-06", // Excel short date saved as text
		"Jan 2, 2006 3:04 PM",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"Mon, 02 Jan 2006 15:04:05 -0700",
	}
)

// CleanerPolicy configures which rows are left out of invoiced aggregates
type CleanerPolicy struct {
	ExcludedBroker string // case-insensitive substring of the broker name; "" disables
	CancelToken    string // case-insensitive substring of the load status; "" disables
}

// DataCleaner normalizes raw table rows into typed LoadRecords
type DataCleaner struct {
	logger *utils.Logger
	policy CleanerPolicy
	refs   *models.ReferenceData
}

// NewDataCleaner creates a new DataCleaner. refs may be nil.
func NewDataCleaner(logger *utils.Logger, policy CleanerPolicy, refs *models.ReferenceData) *DataCleaner {
	return &DataCleaner{logger: logger, policy: policy, refs: refs}
}

// Clean converts raw rows to a frozen LoadSet.
// Field-level defects never reject a row: the field is left absent and tallied.
func (c *DataCleaner) Clean(raw []models.RawRow) *models.LoadSet {
	set := &models.LoadSet{
		Records:     make([]*models.LoadRecord, 0, len(raw)),
		AllRecords:  make([]*models.LoadRecord, 0, len(raw)),
		Diagnostics: make(models.Diagnostics),
	}
	diag := set.Diagnostics
	seen := make(map[string]bool)

	for _, r := range raw {
		broker := strings.TrimSpace(r.Get(models.ColBroker))
		if containsFold(broker, c.policy.ExcludedBroker) {
			diag.Add(models.ReasonExcludedBroker)
			continue
		}

		rec := c.normalize(r, diag)

		// a cancelled booking never claims its load id, so a later rebooking still counts
		if rec.Status == models.StatusCancelled {
			set.AllRecords = append(set.AllRecords, rec)
			diag.Add(models.ReasonCancelled)
			continue
		}

		if rec.LoadID != "" {
			if seen[rec.LoadID] {
				c.logger.Debug("Skipping duplicate load id %s (row %d)", rec.LoadID, r.Index)
				diag.Add(models.ReasonDuplicateLoadID)
				continue
			}
			seen[rec.LoadID] = true
		}

		set.AllRecords = append(set.AllRecords, rec)
		set.Records = append(set.Records, rec)
	}

	c.logger.Info("Normalized %d invoiced loads (%d including cancelled) from %d raw rows",
		len(set.Records), len(set.AllRecords), len(raw))
	for _, rc := range diag.Sorted() {
		c.logger.Debug("  %-24s %d", rc.Reason, rc.Count)
	}
	return set
}

func (c *DataCleaner) normalize(r models.RawRow, diag models.Diagnostics) *models.LoadRecord {
	rec := &models.LoadRecord{
		Row:             r.Index,
		LoadID:          strings.TrimSpace(r.Get(models.ColLoadID)),
		DriverID:        strings.TrimSpace(r.Get(models.ColDriverID)),
		DriverName:      cleanName(r.Get(models.ColDriverName)),
		DispatcherName:  cleanName(r.Get(models.ColDispatcher)),
		BrokerName:      strings.TrimSpace(r.Get(models.ColBroker)),
		StatusText:      strings.TrimSpace(r.Get(models.ColStatus)),
		DestinationCity: strings.TrimSpace(r.Get(models.ColCityTo)),
		Trailer:         strings.TrimSpace(r.Get(models.ColTrailer)),
	}
	rec.Status = classifyStatus(rec.StatusText, c.policy.CancelToken)

	rec.PickupAt = parseDateField(r.Get(models.ColPickupDate), models.ReasonBadPickupDate, diag)
	rec.DeliveredAt = parseDateField(r.Get(models.ColDeliverDate), models.ReasonBadDeliveryDate, diag)
	rec.BookedAt = parseDateField(r.Get(models.ColBookedAt), models.ReasonBadBookingTime, diag)

	if rec.PickupAt != nil && rec.DeliveredAt != nil && rec.PickupAt.After(*rec.DeliveredAt) {
		// delivery drives the week, so the pickup is the field given up
		c.logger.Debug("Row %d: pickup %s after delivery %s", r.Index, rec.PickupAt, rec.DeliveredAt)
		rec.PickupAt = nil
		diag.Add(models.ReasonPickupAfterDelivery)
	}
	rec.Week = WeekOfPtr(rec.DeliveredAt)

	rec.BrokerRate = parseAmountField(r.Get(models.ColBrokerRate), models.ReasonBadBrokerRate, diag)
	rec.DriverRate = parseAmountField(r.Get(models.ColDriverRate), models.ReasonBadDriverRate, diag)
	rec.Miles = parseAmountField(r.Get(models.ColMiles), models.ReasonBadMiles, diag)

	if rec.DispatcherName == "" {
		if fc, ok := c.refs.DispatcherFor(rec.DriverName); ok {
			rec.DispatcherName = fc
			diag.Add(models.ReasonDispatcherMapped)
		}
	}
	return rec
}

func parseDateField(raw string, reason models.DropReason, diag models.Diagnostics) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t, ok := ParseDate(raw)
	if !ok {
		diag.Add(reason)
		return nil
	}
	return &t
}

func parseAmountField(raw string, reason models.DropReason, diag models.Diagnostics) decimal.NullDecimal {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}
	}
	d, ok := ParseAmount(raw)
	if !ok {
		diag.Add(reason)
		return decimal.NullDecimal{}
	}
	if d.IsNegative() {
		diag.Add(models.ReasonNegativeAmount)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseDate tolerantly parses a date or timestamp. Any UTC offset is dropped and the
// wall clock kept, so every result lives on one timezone-free calendar (expressed as UTC).
func ParseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	// Excel numeric date serial, as exported by spreadsheets
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return wallClock(t), true
			}
		}
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return wallClock(t), true
		}
	}
	return time.Time{}, false
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ParseAmount parses a money or distance value like "$1,234.50"
func ParseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := moneyNoiseRegex.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func classifyStatus(text, cancelToken string) models.LoadStatus {
	s := strings.ToLower(text)
	switch {
	case s == "":
		return models.StatusOther
	case containsFold(s, cancelToken):
		return models.StatusCancelled
	case strings.Contains(s, "deliver"), strings.Contains(s, "complete"),
		strings.Contains(s, "invoiced"), strings.Contains(s, "paid"):
		return models.StatusDelivered
	case strings.Contains(s, "active"), strings.Contains(s, "dispatch"),
		strings.Contains(s, "transit"), strings.Contains(s, "booked"),
		strings.Contains(s, "picked"), strings.Contains(s, "loaded"),
		strings.Contains(s, "assigned"), strings.Contains(s, "en route"):
		return models.StatusActive
	default:
		return models.StatusOther
	}
}

// containsFold is a case-insensitive substring test; an empty token never matches
func containsFold(s, token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(token))
}

// cleanName collapses inner whitespace of a person's name
func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
