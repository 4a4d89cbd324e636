package extract

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrValidation is returned when an utterance yields no usable fields.
var ErrValidation = errors.New("extract: could not parse patient info")

// PatientInfo is the structured output of extraction. Fields are pointers so
// "absent" is explicit rather than defaulted; callers must handle nil.
type PatientInfo struct {
	Name     *string `json:"name"`
	DOB      *string `json:"dob"` // normalized DD-MM-YYYY
	Doctor   *string `json:"doctor"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
}

// Extractor turns a free-text patient utterance into structured fields.
type Extractor interface {
	Extract(ctx context.Context, utterance string) (PatientInfo, error)
}

// Value returns the pointed-to string, or "" when the field is absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ptr returns a pointer to s, or nil when s is empty or a null-ish marker
// such as "null" or "none" (LLMs emit these for absent fields).
func ptr(s string) *string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a":
		return nil
	}
	return &s
}

// dobLayouts are the date shapes patients actually type, matched in order.
var dobLayouts = []string{"02-01-2006", "2006-01-02"}

// NormalizeDOB canonicalizes a date of birth to DD-MM-YYYY. Slashes are
// treated as dashes and two-digit years are widened: 20-99 into the 1900s,
// 00-19 into the 2000s.
func NormalizeDOB(raw string) (string, bool) {
	token := strings.ReplaceAll(strings.TrimSpace(raw), "/", "-")
	if token == "" {
		return "", false
	}
	// Widen two-digit years before parsing so the century rule is ours, not
	// the time package's 69/68 pivot.
	if parts := strings.Split(token, "-"); len(parts) == 3 && len(parts[2]) == 2 {
		if yy, err := strconv.Atoi(parts[2]); err == nil {
			century := "20"
			if yy >= 20 {
				century = "19"
			}
			token = parts[0] + "-" + parts[1] + "-" + century + parts[2]
		}
	}
	for _, layout := range dobLayouts {
		dt, err := time.Parse(layout, token)
		if err != nil {
			continue
		}
		return dt.Format("02-01-2006"), true
	}
	return "", false
}

// normalize canonicalizes extracted fields in place: null-ish strings become
// nil and the DOB is reformatted when parseable.
func (p *PatientInfo) normalize() {
	p.Name = ptr(Value(p.Name))
	p.Doctor = ptr(Value(p.Doctor))
	p.Location = ptr(Value(p.Location))
	p.Phone = ptr(Value(p.Phone))
	p.Email = ptr(Value(p.Email))

	p.DOB = ptr(Value(p.DOB))
	if p.DOB != nil {
		if canonical, ok := NormalizeDOB(*p.DOB); ok {
			p.DOB = &canonical
		}
	}
}

// Empty reports whether extraction produced nothing at all.
func (p PatientInfo) Empty() bool {
	return p.Name == nil && p.DOB == nil && p.Doctor == nil &&
		p.Location == nil && p.Phone == nil && p.Email == nil
}
