package leads

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // timezones must resolve on minimal images

	ics "github.com/arran4/golang-ical"
)

// Call slots: every 30 minutes from 09:00, last slot 16:30.
const (
	firstSlot       = 9 * 60
	lastSlot        = 16*60 + 30
	slotStep        = 30
	DefaultDuration = 30
	maxDuration     = 120

	StatusRequested = "requested"
)

// Slots lists the bookable start times in "15:04" form.
func Slots() []string {
	var out []string
	for m := firstSlot; m <= lastSlot; m += slotStep {
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

// CallRequest is the scheduling form as submitted.
type CallRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Company  string `json:"company,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Date     string `json:"date"` // 2006-01-02
	Time     string `json:"time"` // 15:04
	Duration int    `json:"duration,omitempty"`
	Timezone string `json:"timezone"`
	Source   string `json:"source,omitempty"`
}

// Call is a validated request with a resolved time window.
type Call struct {
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Company  string    `json:"company,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	Timezone string    `json:"timezone"`
	Source   string    `json:"source,omitempty"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
	Status   string    `json:"status"`
}

// Schedule validates r and resolves the local date and slot in r.Timezone to
// a UTC window.
func (r *CallRequest) Schedule() (Call, error) {
	trim(&r.FullName, &r.Email, &r.Company, &r.Notes, &r.Date, &r.Time, &r.Timezone, &r.Source)
	if r.Duration == 0 {
		r.Duration = DefaultDuration
	}

	var ck checker
	ck.length("full_name", r.FullName, 2, 100, "Full name is required", "Full name too long")
	ck.email("email", r.Email, true)
	ck.length("company", r.Company, 0, 100, "", "Company name too long")
	ck.length("notes", r.Notes, 0, 2000, "", "Notes too long")

	loc, err := time.LoadLocation(r.Timezone)
	switch {
	case r.Timezone == "":
		ck.add("timezone", "Timezone is required")
	case err != nil:
		ck.add("timezone", "Unknown timezone")
	}

	day, derr := time.Parse(time.DateOnly, r.Date)
	if r.Date == "" {
		ck.add("date", "Please select a date")
	} else if derr != nil {
		ck.add("date", "Date must be YYYY-MM-DD")
	}

	minute, ok := slotMinute(r.Time)
	if r.Time == "" {
		ck.add("time", "Please select a time")
	} else if !ok {
		ck.add("time", "Time must be a 30-minute slot between 09:00 and 16:30")
	}

	if r.Duration < 0 || r.Duration > maxDuration || r.Duration%15 != 0 {
		ck.add("duration", "Duration must be 15 to 120 minutes in 15-minute steps")
	}
	if err := ck.err(); err != nil {
		return Call{}, err
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, loc).UTC()
	return Call{
		FullName: r.FullName,
		Email:    r.Email,
		Company:  r.Company,
		Notes:    r.Notes,
		Timezone: r.Timezone,
		Source:   r.Source,
		StartAt:  start,
		EndAt:    start.Add(time.Duration(r.Duration) * time.Minute),
		Status:   StatusRequested,
	}, nil
}

func slotMinute(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	m := t.Hour()*60 + t.Minute()
	if m < firstSlot || m > lastSlot || (m-firstSlot)%slotStep != 0 {
		return 0, false
	}
	return m, true
}

// ICS renders an RFC 5545 calendar with one event for call id. Text values
// are escaped and lines folded at 75 octets by the encoder.
func ICS(id string, c Call, now time.Time) string {
	desc := "Discovery call to discuss your automation needs."
	if c.Notes != "" {
		desc += "\n\nNotes: " + strings.ReplaceAll(c.Notes, "\r\n", "\n")
	}
	cal := ics.NewCalendarFor("TIAI Solutions")
	cal.SetProductId("-//TIAI Solutions//Schedule Call//EN")
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)

	ev := cal.AddEvent("tiai-call-" + id + "@tiai-solutions.com")
	ev.SetDtStampTime(now)
	ev.SetStartAt(c.StartAt)
	ev.SetEndAt(c.EndAt)
	ev.SetSummary("Intro Call - TIAI Solutions")
	ev.SetDescription(desc)
	ev.SetLocation("Online (details will be sent via email)")
	ev.SetStatus(ics.ObjectStatusConfirmed)
	ev.SetTimeTransparency(ics.TransparencyOpaque)
	return cal.Serialize()
}
