// Package leads validates the submissions the site accepts: contact form,
// generic lead events, template downloads and call requests.
//
// Validation collects every failing field instead of stopping at the first
// one, so a form can highlight all problems at once.
package leads

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// ErrSpam is returned when the honeypot field is filled in.
var ErrSpam = errors.New("leads: spam detected")

// FieldError is one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field errors.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "leads: invalid input: " + strings.Join(parts, "; ")
}

// checker accumulates field errors.
type checker struct{ fields []FieldError }

func (c *checker) add(field, msg string) {
	c.fields = append(c.fields, FieldError{Field: field, Message: msg})
}

func (c *checker) length(field, v string, lo, hi int, short, long string) {
	n := utf8.RuneCountInString(v)
	switch {
	case n < lo:
		c.add(field, short)
	case hi > 0 && n > hi:
		c.add(field, long)
	}
}

func (c *checker) email(field, v string, required bool) {
	if v == "" && !required {
		return
	}
	if !validEmail(v) {
		c.add(field, "Invalid email address")
	}
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

// validEmail accepts a bare addr-spec with a dotted domain.
func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s || a.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func trim(ps ...*string) {
	for _, p := range ps {
		*p = strings.TrimSpace(*p)
	}
}

// Contact is the contact form.
type Contact struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Role      string `json:"role,omitempty"`
	Message   string `json:"message"`
	Timeframe string `json:"timeframe,omitempty"`
	Budget    string `json:"budget,omitempty"`
	Honeypot  string `json:"honeypot,omitempty"`
}

// Validate trims c in place and checks it. A filled honeypot yields ErrSpam
// before any field is looked at.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Honeypot) != "" {
		return ErrSpam
	}
	trim(&c.Name, &c.Email, &c.Company, &c.Role, &c.Message, &c.Timeframe, &c.Budget)
	c.Honeypot = ""

	var ck checker
	ck.length("name", c.Name, 1, 100, "Name is required", "Name too long")
	ck.email("email", c.Email, true)
	ck.length("company", c.Company, 0, 100, "", "Company name too long")
	ck.length("role", c.Role, 0, 100, "", "Role too long")
	ck.length("message", c.Message, 10, 2000, "Message must be at least 10 characters", "Message too long")
	return ck.err()
}

// Download records a template download.
type Download struct {
	TemplateName string `json:"template_name"`
	Email        string `json:"email"`
	Company      string `json:"company,omitempty"`
}

func (d *Download) Validate() error {
	trim(&d.TemplateName, &d.Email, &d.Company)
	var ck checker
	ck.length("template_name", d.TemplateName, 1, 200, "Template name is required", "Template name too long")
	ck.email("email", d.Email, true)
	ck.length("company", d.Company, 0, 100, "", "Company name too long")
	return ck.err()
}

// Lead is a free-form analytics event.
type Lead struct {
	Source  string         `json:"source"`
	Email   string         `json:"email,omitempty"`
	Payload map[string]any `json:"payload"`
}

// SourceContactForm is the lead source recorded for every contact submission.
const SourceContactForm = "contact_form"

func (l *Lead) Validate() error {
	trim(&l.Source, &l.Email)
	var ck checker
	ck.length("source", l.Source, 1, 50, "Source is required", "Source too long")
	ck.email("email", l.Email, false)
	if l.Payload == nil {
		l.Payload = map[string]any{}
	}
	return ck.err()
}

// ContactLead is the lead recorded alongside a stored contact.
func ContactLead(contactID string, c Contact) Lead {
	return Lead{
		Source: SourceContactForm,
		Email:  c.Email,
		Payload: map[string]any{
			"contactId": contactID,
			"name":      c.Name,
			"email":     c.Email,
			"company":   c.Company,
			"role":      c.Role,
			"timeframe": c.Timeframe,
			"budget":    c.Budget,
		},
	}
}

// String is used in logs; it never includes the message body.
func (c Contact) String() string {
	return fmt.Sprintf("contact{company=%q role=%q}", c.Company, c.Role)
}
