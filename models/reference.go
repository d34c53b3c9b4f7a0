package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ReferenceData holds the optional side tables. A nil map means the table was not supplied.
type ReferenceData struct {
	MarketRates      map[string]decimal.Decimal // state abbreviation -> rate per mile
	DeadZones        map[string]bool            // state abbreviation
	DriverDispatcher map[string]string          // upper-cased driver name -> dispatcher
}

func (r *ReferenceData) HasMarketRates() bool      { return r != nil && r.MarketRates != nil }
func (r *ReferenceData) HasDeadZones() bool        { return r != nil && r.DeadZones != nil }
func (r *ReferenceData) HasDriverDispatcher() bool { return r != nil && r.DriverDispatcher != nil }

// DispatcherFor looks up the mapped dispatcher of a driver
func (r *ReferenceData) DispatcherFor(driver string) (string, bool) {
	if !r.HasDriverDispatcher() {
		return "", false
	}
	fc, ok := r.DriverDispatcher[strings.ToUpper(strings.TrimSpace(driver))]
	return fc, ok && fc != ""
}

var stateAbbrToFull = map[string]string{
	"AL": "ALABAMA", "AK": "ALASKA", "AZ": "ARIZONA", "AR": "ARKANSAS", "CA": "CALIFORNIA",
	"CO": "COLORADO", "CT": "CONNECTICUT", "DE": "DELAWARE", "FL": "FLORIDA", "GA": "GEORGIA",
	"HI": "HAWAII", "ID": "IDAHO", "IL": "ILLINOIS", "IN": "INDIANA", "IA": "IOWA",
	"KS": "KANSAS", "KY": "KENTUCKY", "LA": "LOUISIANA", "ME": "MAINE", "MD": "MARYLAND",
	"MA": "MASSACHUSETTS", "MI": "MICHIGAN", "MN": "MINNESOTA", "MS": "MISSISSIPPI",
	"MO": "MISSOURI", "MT": "MONTANA", "NE": "NEBRASKA", "NV": "NEVADA", "NH": "NEW HAMPSHIRE",
	"NJ": "NEW JERSEY", "NM": "NEW MEXICO", "NY": "NEW YORK", "NC": "NORTH CAROLINA",
	"ND": "NORTH DAKOTA", "OH": "OHIO", "OK": "OKLAHOMA", "OR": "OREGON", "PA": "PENNSYLVANIA",
	"RI": "RHODE ISLAND", "SC": "SOUTH CAROLINA", "SD": "SOUTH DAKOTA", "TN": "TENNESSEE",
	"TX": "TEXAS", "UT": "UTAH", "VT": "VERMONT", "VA": "VIRGINIA", "WA": "WASHINGTON",
	"WV": "WEST VIRGINIA", "WI": "WISCONSIN", "WY": "WYOMING",
}

var stateFullToAbbr = func() map[string]string {
	m := make(map[string]string, len(stateAbbrToFull))
	for abbr, full := range stateAbbrToFull {
		m[full] = abbr
	}
	return m
}()

// StateAbbr normalizes a state given as abbreviation or full name.
// ok is false when the value is neither.
func StateAbbr(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, ok := stateAbbrToFull[s]; ok {
		return s, true
	}
	abbr, ok := stateFullToAbbr[s]
	return abbr, ok
}
