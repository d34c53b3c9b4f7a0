package models

import "strings"

// UnknownIdentity replaces a missing driver or dispatcher name in grouping keys
const UnknownIdentity = "unknown"

// IdentityOrUnknown returns name, or UnknownIdentity when name is blank
func IdentityOrUnknown(name string) string {
	if strings.TrimSpace(name) == "" {
		return UnknownIdentity
	}
	return name
}

// FilterSelection restricts aggregation to a set of drivers and dispatchers.
// An empty set places no restriction on that dimension. The zero value selects everything.
type FilterSelection struct {
	drivers     map[string]struct{}
	dispatchers map[string]struct{}
}

// NewFilterSelection builds a selection; blank names are ignored
func NewFilterSelection(drivers, dispatchers []string) FilterSelection {
	return FilterSelection{
		drivers:     toSet(drivers),
		dispatchers: toSet(dispatchers),
	}
}

func toSet(names []string) map[string]struct{} {
	var set map[string]struct{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{})
		}
		set[n] = struct{}{}
	}
	return set
}

// IsEmpty reports whether the selection matches every record
func (f FilterSelection) IsEmpty() bool {
	return len(f.drivers) == 0 && len(f.dispatchers) == 0
}

// Matches reports whether r is inside the selection
func (f FilterSelection) Matches(r *LoadRecord) bool {
	if len(f.drivers) > 0 {
		if _, ok := f.drivers[IdentityOrUnknown(r.DriverName)]; !ok {
			return false
		}
	}
	if len(f.dispatchers) > 0 {
		if _, ok := f.dispatchers[IdentityOrUnknown(r.DispatcherName)]; !ok {
			return false
		}
	}
	return true
}

// Apply returns the matching records in their original order
func (f FilterSelection) Apply(records []*LoadRecord) []*LoadRecord {
	if f.IsEmpty() {
		return records
	}
	out := make([]*LoadRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
