package extract

import (
	"context"
	"regexp"
	"strings"
)

var (
	dobRe    = regexp.MustCompile(`\b(\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`)
	doctorRe = regexp.MustCompile(`(?i)\b(dr\.?\s+[A-Za-z]+(?:\s+[A-Za-z]+)?)`)
	phoneRe  = regexp.MustCompile(`(\+?\d[\d\s\-()]{7,}\d)`)
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	nameRe   = regexp.MustCompile(`\b(?i:my name is|i am|i'm|this is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})`)
	cityRe   = regexp.MustCompile(`\b(?i:from|in|city is)\s+([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\b`)
)

// HeuristicExtractor is the credential-free fallback: a handful of regular
// expressions over the utterance. Good enough for the scripted flows and for
// running the assistant without an LLM key.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates the regex-based extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// Extract scans the utterance for name, DOB, doctor, location, phone, email.
func (h *HeuristicExtractor) Extract(_ context.Context, utterance string) (PatientInfo, error) {
	var info PatientInfo

	if m := doctorRe.FindString(utterance); m != "" {
		doctor := canonicalDoctor(m)
		info.Doctor = &doctor
	}
	if m := emailRe.FindString(utterance); m != "" {
		info.Email = ptr(m)
	}

	// Strip matched segments so the phone regex cannot eat the DOB digits.
	remainder := utterance
	if m := dobRe.FindString(remainder); m != "" {
		info.DOB = ptr(m)
		remainder = strings.Replace(remainder, m, " ", 1)
	}
	if m := phoneRe.FindString(remainder); m != "" {
		info.Phone = ptr(m)
	}

	if m := nameRe.FindStringSubmatch(utterance); m != nil {
		info.Name = ptr(m[1])
	} else if name := leadingName(utterance); name != "" {
		info.Name = &name
	}
	if m := cityRe.FindStringSubmatch(utterance); m != nil {
		info.Location = ptr(m[1])
	}

	info.normalize()
	if info.Empty() {
		return info, ErrValidation
	}
	return info, nil
}

// leadingName treats an utterance that opens with capitalized words as a
// name, the way patients answer "could you provide your full name ...".
func leadingName(utterance string) string {
	fields := strings.Fields(strings.Split(utterance, ",")[0])
	name := make([]string, 0, 3)
	for _, f := range fields {
		trimmed := strings.Trim(f, ".")
		if len(trimmed) == 0 || trimmed[0] < 'A' || trimmed[0] > 'Z' {
			break
		}
		if strings.EqualFold(trimmed, "dr") {
			break
		}
		name = append(name, trimmed)
		if len(name) == 3 {
			break
		}
	}
	if len(name) < 2 {
		return ""
	}
	return strings.Join(name, " ")
}

// canonicalDoctor normalizes the title spelling ("dr " → "Dr. ") and keeps
// the name's original casing.
func canonicalDoctor(raw string) string {
	raw = strings.TrimSpace(raw)
	idx := strings.IndexAny(raw, " \t")
	if idx < 0 {
		return raw
	}
	return "Dr. " + strings.TrimSpace(raw[idx+1:])
}
