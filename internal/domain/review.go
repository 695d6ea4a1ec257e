package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Review struct {
	ID           string     `json:"id"`
	PropertyName string     `json:"propertyName"`
	GuestName    string     `json:"guestName"`
	Review       string     `json:"review"`
	Rating       float64    `json:"rating"` // 0..10
	Categories   Categories `json:"categories"`
	Date         time.Time  `json:"date"`
	Channel      string     `json:"channel"`
	Type         string     `json:"type"`
	IsApproved   bool       `json:"isApproved"` // only field mutated after load
}

type Property struct {
	Name            string   `json:"name"`
	TotalReviews    int      `json:"totalReviews"`
	AverageRating   float64  `json:"averageRating"`
	ApprovedReviews []Review `json:"approvedReviews,omitempty"`
}

// dateLayouts are tried in order; zoneless forms are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate reads an ISO 8601 date or date-time as sent by the reviews API.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// UnmarshalJSON accepts the date forms of ParseDate. Encoding is unchanged
// (RFC 3339), so cached copies decode through the first layout.
func (r *Review) UnmarshalJSON(b []byte) error {
	type plain Review
	aux := struct {
		*plain
		Date *string `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Date = time.Time{}
	if aux.Date == nil || strings.TrimSpace(*aux.Date) == "" {
		return nil
	}
	t, err := ParseDate(*aux.Date)
	if err != nil {
		return fmt.Errorf("review %s: %w", r.ID, err)
	}
	r.Date = t
	return nil
}
