package model

import "time"

// DateRange is the result of a range derivation. Start and End are rendered
// the same way calculate-date renders a single result (bare ISO date, or an
// ISO datetime when the reference carried a time or a timezone).
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusinessDays is the result of counting (and optionally listing) business
// days over a closed interval.
type BusinessDays struct {
	BusinessDays int `json:"business_days"`

	// Dates is only filled by list-business-days.
	Dates []string `json:"dates,omitempty"`
}

// CurrentDateTime is the structured rendering of one sampled instant. Every
// field is derived from the same sample.
type CurrentDateTime struct {
	ISO       string `json:"iso"`
	Readable  string `json:"readable"`
	Unix      int64  `json:"unix"`
	RFC3339   string `json:"rfc3339"`
	Timezone  string `json:"timezone"`
	UTCOffset string `json:"utc_offset"`
	IsDST     bool   `json:"is_dst"`
}

// TimezoneInfo backs the datetime://timezone-info resource.
type TimezoneInfo struct {
	TimezoneName     string `json:"timezone_name"`
	UTCOffset        string `json:"utc_offset"`
	IsDST            bool   `json:"is_dst"`
	CurrentTime      string `json:"current_time"`
	UTCTime          string `json:"utc_time"`
	DSTOffsetSeconds int    `json:"dst_offset_seconds"`
}

// ZoneEntry is one zone inside SupportedTimezones.
type ZoneEntry struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	CurrentOffset string `json:"current_offset"`
}

// SupportedTimezones groups every known zone by its leading region segment.
type SupportedTimezones struct {
	TotalTimezones int                    `json:"total_timezones"`
	Regions        map[string][]ZoneEntry `json:"regions"`
	GeneratedAt    string                 `json:"generated_at"`
}

// Note is a stored free-text note.
type Note struct {
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}
