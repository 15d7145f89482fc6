package types

import "time"

// Channel is the canonical bucket a raw activity label maps into
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelLinkedIn Channel = "linkedin"
	ChannelCall     Channel = "call"
	ChannelOther    Channel = "other"
)

// DayFormat is the calendar-day key layout used for all day grouping
const DayFormat = "2006-01-02"

// Activity is a single normalized CRM activity record.
// Hour and Day are always derived from Timestamp in the configured
// timezone, never supplied independently.
type Activity struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Type      string    `json:"type"` // raw channel label as exported by the CRM
	Timestamp time.Time `json:"timestamp"`
	Hour      int       `json:"hour"` // 0-23
	Day       string    `json:"day"`  // YYYY-MM-DD
}

// NewActivity builds a normalized record, deriving Hour and Day from
// the timestamp in loc.
func NewActivity(id, user, rawType string, ts time.Time, loc *time.Location) Activity {
	local := ts.In(loc)
	return Activity{
		ID:        id,
		User:      user,
		Type:      rawType,
		Timestamp: ts,
		Hour:      local.Hour(),
		Day:       local.Format(DayFormat),
	}
}

// ActivityRow is the persistence shape for a raw activity.
// Day is not stored; it is re-derived from ActivityDate on reload.
type ActivityRow struct {
	ID           string `json:"id" dynamodbav:"ID"`
	Period       string `json:"period" dynamodbav:"Period"`
	UserName     string `json:"user_name" dynamodbav:"UserName"`
	Type         string `json:"type" dynamodbav:"Type"`
	ActivityDate string `json:"activity_date" dynamodbav:"ActivityDate"` // ISO-8601
	Hour         int    `json:"hour" dynamodbav:"Hour"`
}

// ToRow converts an activity to its persistence shape
func (a Activity) ToRow(period string) ActivityRow {
	return ActivityRow{
		ID:           a.ID,
		Period:       period,
		UserName:     a.User,
		Type:         a.Type,
		ActivityDate: a.Timestamp.Format(time.RFC3339),
		Hour:         a.Hour,
	}
}
