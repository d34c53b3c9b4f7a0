package models

import "sort"

// DropReason names why a row was excluded or a field was marked absent
type DropReason string

const (
	ReasonExcludedBroker      DropReason = "excluded_broker"
	ReasonCancelled           DropReason = "cancelled"
	ReasonDuplicateLoadID     DropReason = "duplicate_load_id"
	ReasonBadPickupDate       DropReason = "bad_pickup_date"
	ReasonBadDeliveryDate     DropReason = "bad_delivery_date"
	ReasonBadBookingTime      DropReason = "bad_booking_time"
	ReasonBadBrokerRate       DropReason = "bad_broker_rate"
	ReasonBadDriverRate       DropReason = "bad_driver_rate"
	ReasonBadMiles            DropReason = "bad_miles"
	ReasonNegativeAmount      DropReason = "negative_amount"
	ReasonPickupAfterDelivery DropReason = "pickup_after_delivery"
	ReasonDispatcherMapped    DropReason = "dispatcher_from_mapping"
)

// Diagnostics tallies drop reasons. It is informational only.
type Diagnostics map[DropReason]int

func (d Diagnostics) Add(r DropReason) { d[r]++ }

// Count returns the tally for r, 0 when never seen
func (d Diagnostics) Count(r DropReason) int { return d[r] }

// ReasonCount is one diagnostics row
type ReasonCount struct {
	Reason DropReason `json:"reason"`
	Count  int        `json:"count"`
}

// Sorted returns the tally as rows ordered by reason name
func (d Diagnostics) Sorted() []ReasonCount {
	rows := make([]ReasonCount, 0, len(d))
	for r, n := range d {
		rows = append(rows, ReasonCount{Reason: r, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Reason < rows[j].Reason })
	return rows
}
