package patients

import (
	"fmt"

	"github.com/cura-ai/scheduling-assistant/internal/extract"
	"github.com/cura-ai/scheduling-assistant/internal/store"
	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

// DefaultFuzzyThreshold is the minimum name similarity accepted when the DOB
// matches exactly.
const DefaultFuzzyThreshold = 0.87

// Status classifies the outcome of a lookup.
type Status string

const (
	StatusExisting Status = "existing"
	StatusNew      Status = "new"
)

// Resolution is the result of resolving extracted fields against the record
// store. For StatusExisting, Patient is the stored record; for StatusNew it
// is a draft built from the extracted fields, staged for creation when the
// patient confirms.
type Resolution struct {
	Status     Status
	Patient    store.Patient
	MatchScore float64
	Reason     string
}

// Resolver matches extracted patient fields against stored records.
type Resolver struct {
	store          store.Store
	countryCode    string
	fuzzyThreshold float64
	logger         *logging.Logger
}

// NewResolver creates a patient resolver. countryCode is the default prefix
// for phone normalization.
func NewResolver(s store.Store, countryCode string, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		store:          s,
		countryCode:    countryCode,
		fuzzyThreshold: DefaultFuzzyThreshold,
		logger:         logger,
	}
}

// Resolve classifies the patient as existing or new. Match order: exact
// normalized name + DOB, fuzzy name + exact DOB, then canonical phone.
// Multiple matches resolve to the first one; there is no disambiguation.
func (r *Resolver) Resolve(info extract.PatientInfo) (Resolution, error) {
	name := extract.Value(info.Name)
	dob, dobOK := extract.NormalizeDOB(extract.Value(info.DOB))

	phone := ""
	if raw := extract.Value(info.Phone); raw != "" {
		normalized, err := NormalizePhone(raw, r.countryCode)
		if err != nil {
			r.logger.Warn("patients: ignoring unparseable phone", "raw", raw)
		} else {
			phone = normalized
		}
	}

	records, err := r.store.ListPatients()
	if err != nil {
		return Resolution{}, fmt.Errorf("patients: resolve: %w", err)
	}

	if name != "" && dobOK {
		nameKey := NormalizeName(name)
		for i := range records {
			if records[i].DOB == dob && NormalizeName(records[i].Name) == nameKey {
				return Resolution{
					Status:     StatusExisting,
					Patient:    records[i],
					MatchScore: 1,
					Reason:     "exact name+dob match",
				}, nil
			}
		}

		bestIdx, bestScore := -1, 0.0
		for i := range records {
			if records[i].DOB != dob {
				continue
			}
			if score := NameSimilarity(name, records[i].Name); score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		if bestIdx >= 0 && bestScore >= r.fuzzyThreshold {
			return Resolution{
				Status:     StatusExisting,
				Patient:    records[bestIdx],
				MatchScore: bestScore,
				Reason:     "fuzzy name match with exact dob",
			}, nil
		}
	}

	if phone != "" {
		for i := range records {
			if records[i].Phone == phone {
				return Resolution{
					Status:     StatusExisting,
					Patient:    records[i],
					MatchScore: 1,
					Reason:     "canonical phone match",
				}, nil
			}
		}
	}

	draft := store.Patient{
		Name:     name,
		Phone:    phone,
		Email:    extract.Value(info.Email),
		Location: extract.Value(info.Location),
	}
	if dobOK {
		draft.DOB = dob
	}
	return Resolution{
		Status:  StatusNew,
		Patient: draft,
		Reason:  "no match found",
	}, nil
}
