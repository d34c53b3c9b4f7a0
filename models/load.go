package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column is a canonical column name of the load-history table
type Column string

const (
	ColLoadID      Column = "LOAD ID"
	ColDriverID    Column = "DRIVER ID"
	ColDriverName  Column = "DRIVER NAME"
	ColDispatcher  Column = "FC NAME"
	ColBroker      Column = "BROKER NAME"
	ColStatus      Column = "LOAD STATUS"
	ColPickupDate  Column = "PICK-UP DATE"
	ColDeliverDate Column = "DELIVERY DATE"
	ColBookedAt    Column = "DATE UPLOADED TO THE SYSTEM"
	ColBrokerRate  Column = "BROKER RATE (FC) [$]"
	ColDriverRate  Column = "DRIVER RATE [$]"
	ColMiles       Column = "FULL MILES TOTAL"

	// optional
	ColCityTo  Column = "CITY TO"
	ColTrailer Column = "TRAILER"
)

// RequiredColumns must all be present in a load-history table
var RequiredColumns = []Column{
	ColLoadID, ColDriverID, ColDriverName, ColDispatcher, ColBroker, ColStatus,
	ColPickupDate, ColDeliverDate, ColBookedAt, ColBrokerRate, ColDriverRate, ColMiles,
}

// OptionalColumns are read when present
var OptionalColumns = []Column{ColCityTo, ColTrailer}

// RawRow represents one unprocessed row of the load-history table
type RawRow struct {
	Index  int // 0-based data row index, header excluded
	Fields map[Column]string
}

// Get returns the trimmed-as-is field value, or "" when the column is absent
func (r RawRow) Get(c Column) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[c]
}

// LoadStatus is the normalized lifecycle state of a load
type LoadStatus int

const (
	StatusOther LoadStatus = iota
	StatusActive
	StatusDelivered
	StatusCancelled
)

func (s LoadStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDelivered:
		return "delivered"
	case StatusCancelled:
		return "cancelled"
	default:
		return "other"
	}
}

func (s LoadStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LoadRecord represents one normalized freight load.
// Absent dates are nil; absent amounts have Valid == false.
type LoadRecord struct {
	Row             int                 `json:"row"`
	LoadID          string              `json:"load_id"`
	DriverID        string              `json:"driver_id"`
	DriverName      string              `json:"driver_name"`
	DispatcherName  string              `json:"dispatcher_name"`
	BrokerName      string              `json:"broker_name"`
	StatusText      string              `json:"status_text"`
	Status          LoadStatus          `json:"status"`
	BookedAt        *time.Time          `json:"booked_at"`
	PickupAt        *time.Time          `json:"pickup_at"`
	DeliveredAt     *time.Time          `json:"delivered_at"`
	BrokerRate      decimal.NullDecimal `json:"broker_rate"`
	DriverRate      decimal.NullDecimal `json:"driver_rate"`
	Miles           decimal.NullDecimal `json:"miles"`
	DestinationCity string              `json:"destination_city,omitempty"`
	Trailer         string              `json:"trailer,omitempty"`
	Week            *Week               `json:"week"`
}

// LoadSet is the frozen result of normalizing one uploaded table
type LoadSet struct {
	// Records holds invoiced loads: cancelled and excluded-broker rows removed
	Records []*LoadRecord
	// AllRecords additionally holds cancelled loads, for status reporting
	AllRecords  []*LoadRecord
	Diagnostics Diagnostics
}
