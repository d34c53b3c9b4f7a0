package storage

import (
	"fmt"
	"strings"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	"github.com/shopspring/decimal"
)

// ReferencePaths names the optional reference tables. An empty path skips that table.
type ReferencePaths struct {
	MarketRates string
	DeadZones   string
	DriverFC    string
}

// ReferenceReader loads the optional reference tables
type ReferenceReader struct {
	logger *utils.Logger
}

// NewReferenceReader creates a new ReferenceReader
func NewReferenceReader(logger *utils.Logger) *ReferenceReader {
	return &ReferenceReader{logger: logger}
}

// Read loads every configured table. A table that fails to load is logged and left
// unavailable; it never fails the whole read.
func (r *ReferenceReader) Read(paths ReferencePaths) *models.ReferenceData {
	refs := &models.ReferenceData{}

	if paths.MarketRates != "" {
		rates, err := r.ReadMarketRates(paths.MarketRates)
		if err != nil {
			r.logger.Warn("Market rates unavailable: %v", err)
		} else {
			refs.MarketRates = rates
		}
	}
	if paths.DeadZones != "" {
		zones, err := r.ReadDeadZones(paths.DeadZones)
		if err != nil {
			r.logger.Warn("Dead zones unavailable: %v", err)
		} else {
			refs.DeadZones = zones
		}
	}
	if paths.DriverFC != "" {
		mapping, err := r.ReadDriverDispatcher(paths.DriverFC)
		if err != nil {
			r.logger.Warn("Driver-FC mapping unavailable: %v", err)
		} else {
			refs.DriverDispatcher = mapping
		}
	}
	return refs
}

// ReadMarketRates reads STATE + MARKET_RATE, or the name + value export format
func (r *ReferenceReader) ReadMarketRates(path string) (map[string]decimal.Decimal, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	stateIdx, valueIdx, err := pickColumns(path, table, [][2]string{{"STATE", "MARKET_RATE"}, {"NAME", "VALUE"}})
	if err != nil {
		return nil, err
	}

	rates := make(map[string]decimal.Decimal)
	skipped := 0
	for _, record := range table[1:] {
		state, ok := models.StateAbbr(cellValue(record, stateIdx))
		if !ok {
			skipped++
			continue
		}
		rate, ok := parseReferenceAmount(cellValue(record, valueIdx))
		if !ok {
			skipped++
			continue
		}
		rates[state] = rate
	}
	r.logger.Info("Loaded %d market rates from %s (%d rows skipped)", len(rates), path, skipped)
	return rates, nil
}

// ReadDeadZones reads a list of states from a STATE or name column
func (r *ReferenceReader) ReadDeadZones(path string) (map[string]bool, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if len(table) == 0 {
		return nil, &MissingColumnsError{Path: path, Columns: []models.Column{"STATE"}}
	}
	index := headerIndex(table[0])
	stateIdx, ok := index["STATE"]
	if !ok {
		if stateIdx, ok = index["NAME"]; !ok {
			return nil, &MissingColumnsError{Path: path, Columns: []models.Column{"STATE"}}
		}
	}

	zones := make(map[string]bool)
	for _, record := range table[1:] {
		if state, ok := models.StateAbbr(cellValue(record, stateIdx)); ok {
			zones[state] = true
		}
	}
	r.logger.Info("Loaded %d dead zone states from %s", len(zones), path)
	return zones, nil
}

// ReadDriverDispatcher reads the DRIVER NAME -> FC NAME mapping, keyed by upper-cased driver
func (r *ReferenceReader) ReadDriverDispatcher(path string) (map[string]string, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	driverIdx, fcIdx, err := pickColumns(path, table, [][2]string{{string(models.ColDriverName), string(models.ColDispatcher)}})
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]string)
	for _, record := range table[1:] {
		driver := strings.ToUpper(cellValue(record, driverIdx))
		fc := cellValue(record, fcIdx)
		if driver == "" || fc == "" {
			continue
		}
		if _, dup := mapping[driver]; !dup {
			mapping[driver] = fc
		}
	}
	r.logger.Info("Loaded %d driver-FC assignments from %s", len(mapping), path)
	return mapping, nil
}

// pickColumns returns the indexes of the first column pair fully present in the header
func pickColumns(path string, table [][]string, pairs [][2]string) (int, int, error) {
	if len(table) > 0 {
		index := headerIndex(table[0])
		for _, p := range pairs {
			a, okA := index[normalizeHeader(p[0])]
			b, okB := index[normalizeHeader(p[1])]
			if okA && okB {
				return a, b, nil
			}
		}
	}
	return 0, 0, &MissingColumnsError{Path: path, Columns: []models.Column{models.Column(pairs[0][0]), models.Column(pairs[0][1])}}
}

// parseReferenceAmount accepts plain and bracketed values like "[2.35]"
func parseReferenceAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.Trim(strings.TrimSpace(raw), "[]$ ")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// String is used in log lines
func (p ReferencePaths) String() string {
	return fmt.Sprintf("market=%q dead_zones=%q driver_fc=%q", p.MarketRates, p.DeadZones, p.DriverFC)
}
