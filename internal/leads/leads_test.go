package leads

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
	var out []string
	for _, f := range ve.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestContact_Validate(t *testing.T) {
	t.Parallel()

	valid := func() Contact {
		return Contact{Name: " Ada ", Email: "ada@example.com", Message: "We need help automating invoices."}
	}

	tests := []struct {
		name   string
		mutate func(*Contact)
		fields []string
	}{
		{"valid", func(*Contact) {}, nil},
		{"missing name", func(c *Contact) { c.Name = "  " }, []string{"name"}},
		{"bad email", func(c *Contact) { c.Email = "ada@" }, []string{"email"}},
		{"display-name email", func(c *Contact) { c.Email = "Ada <ada@example.com>" }, []string{"email"}},
		{"short message", func(c *Contact) { c.Message = "hi" }, []string{"message"}},
		{"long company", func(c *Contact) { c.Company = strings.Repeat("x", 101) }, []string{"company"}},
		{"several", func(c *Contact) { c.Name = ""; c.Message = "" }, []string{"name", "message"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.fields == nil {
				require.NoError(t, err)
				require.Equal(t, "Ada", c.Name)
				return
			}
			require.Equal(t, tt.fields, fieldNames(t, err))
		})
	}
}

func TestContact_Honeypot(t *testing.T) {
	t.Parallel()
	c := Contact{Honeypot: "http://spam", Name: ""}
	require.ErrorIs(t, c.Validate(), ErrSpam)
}

func TestDownloadAndLead(t *testing.T) {
	t.Parallel()

	d := Download{TemplateName: "ROI Calculator", Email: "x@y.io"}
	require.NoError(t, d.Validate())
	d = Download{Email: "nope"}
	require.Equal(t, []string{"template_name", "email"}, fieldNames(t, d.Validate()))

	l := Lead{Source: "pricing_page"}
	require.NoError(t, l.Validate())
	require.NotNil(t, l.Payload)
	l = Lead{Source: strings.Repeat("s", 51), Email: "bad"}
	require.Equal(t, []string{"source", "email"}, fieldNames(t, l.Validate()))

	cl := ContactLead("c-1", Contact{Name: "Ada", Email: "ada@example.com", Message: "secret body"})
	require.Equal(t, SourceContactForm, cl.Source)
	require.Equal(t, "c-1", cl.Payload["contactId"])
	require.NotContains(t, cl.Payload, "message")
}

func TestSlots(t *testing.T) {
	t.Parallel()
	s := Slots()
	require.Len(t, s, 16)
	require.Equal(t, "09:00", s[0])
	require.Equal(t, "16:30", s[len(s)-1])
}

func TestCallRequest_Schedule(t *testing.T) {
	t.Parallel()

	r := CallRequest{
		FullName: "Ada Lovelace", Email: "ada@example.com",
		Date: "2025-07-01", Time: "09:30", Timezone: "America/New_York",
	}
	c, err := r.Schedule()
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 7, 1, 13, 30, 0, 0, time.UTC), c.StartAt)
	require.Equal(t, 30*time.Minute, c.EndAt.Sub(c.StartAt))
	require.Equal(t, StatusRequested, c.Status)

	bad := CallRequest{FullName: "A", Email: "a@b.co", Date: "07/01/2025", Time: "17:00", Timezone: "Mars/Base", Duration: 50}
	_, err = bad.Schedule()
	require.Equal(t, []string{"full_name", "timezone", "date", "time", "duration"}, fieldNames(t, err))

	empty := CallRequest{}
	_, err = empty.Schedule()
	require.Contains(t, fieldNames(t, err), "timezone")
}

func TestICS(t *testing.T) {
	t.Parallel()

	c := Call{
		StartAt: time.Date(2025, 7, 1, 13, 30, 0, 0, time.UTC),
		EndAt:   time.Date(2025, 7, 1, 14, 0, 0, 0, time.UTC),
		Notes:   "Invoices, approvals; and a long note " + strings.Repeat("é", 40),
	}
	out := ICS("abc", c, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	require.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	require.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	require.Contains(t, out, "UID:tiai-call-abc@tiai-solutions.com\r\n")
	require.Contains(t, out, "DTSTART:20250701T133000Z\r\n")
	require.Contains(t, out, "DTEND:20250701T140000Z\r\n")
	require.Contains(t, out, "DTSTAMP:20250601T000000Z\r\n")
	require.Contains(t, out, `Invoices\, approvals\; and`)
	require.Contains(t, out, "PRODID:-//TIAI Solutions//Schedule Call//EN\r\n")
	require.Contains(t, out, "METHOD:PUBLISH\r\n")
	require.Contains(t, out, "STATUS:CONFIRMED\r\n")
	require.Contains(t, out, "TRANSP:OPAQUE\r\n")

	for _, line := range strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n") {
		require.LessOrEqual(t, len(line), 75, "line %q", line)
	}
	unfolded := strings.ReplaceAll(out, "\r\n ", "")
	require.Contains(t, unfolded, `Notes: Invoices`)
	require.Contains(t, unfolded, strings.Repeat("é", 40))
}

func TestICS_NotesLineBreaks(t *testing.T) {
	t.Parallel()

	c := Call{
		StartAt: time.Date(2025, 7, 1, 13, 30, 0, 0, time.UTC),
		EndAt:   time.Date(2025, 7, 1, 14, 0, 0, 0, time.UTC),
		Notes:   "line one\r\nline two",
	}
	out := ICS("xyz", c, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	unfolded := strings.ReplaceAll(out, "\r\n ", "")
	require.Contains(t, unfolded, `Notes: line one\nline two`)
	require.NotContains(t, unfolded, "line one\r")
}
