package patients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cura-ai/scheduling-assistant/internal/extract"
	"github.com/cura-ai/scheduling-assistant/internal/store"
)

func strPtr(s string) *string { return &s }

func seedPatients(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewCSVStore(t.TempDir(), []int{3, 2, 1}, nil)
	require.NoError(t, err)

	_, err = s.UpsertPatient(store.Patient{
		Name:  "Anita Sharma",
		DOB:   "14-02-1990",
		Phone: "+919812345678",
		Email: "anita@example.com",
	})
	require.NoError(t, err)
	_, err = s.UpsertPatient(store.Patient{
		Name: "Ravi Kumar",
		DOB:  "03-07-1985",
	})
	require.NoError(t, err)
	return s
}

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver(seedPatients(t), "+91", nil)

	res, err := r.Resolve(extract.PatientInfo{
		Name: strPtr("anita sharma"),
		DOB:  strPtr("14/02/1990"), // slashes normalize before matching
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExisting, res.Status)
	assert.Equal(t, "Anita Sharma", res.Patient.Name)
	assert.Equal(t, 1.0, res.MatchScore)
}

func TestResolveFuzzyMatch(t *testing.T) {
	r := NewResolver(seedPatients(t), "+91", nil)

	res, err := r.Resolve(extract.PatientInfo{
		Name: strPtr("Mrs. Anita Sharme"), // typo plus title
		DOB:  strPtr("14-02-1990"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExisting, res.Status)
	assert.Equal(t, "Anita Sharma", res.Patient.Name)
	assert.GreaterOrEqual(t, res.MatchScore, DefaultFuzzyThreshold)
}

func TestResolvePhoneOnly(t *testing.T) {
	r := NewResolver(seedPatients(t), "+91", nil)

	// No name or DOB extracted; the phone alone resolves the patient.
	res, err := r.Resolve(extract.PatientInfo{
		Phone: strPtr("98123 45678"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusExisting, res.Status)
	assert.Equal(t, "Anita Sharma", res.Patient.Name)
	assert.Equal(t, "canonical phone match", res.Reason)
}

func TestResolveNewPatient(t *testing.T) {
	r := NewResolver(seedPatients(t), "+91", nil)

	res, err := r.Resolve(extract.PatientInfo{
		Name:     strPtr("Meera Nair"),
		DOB:      strPtr("22-11-1992"),
		Location: strPtr("Kochi"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, res.Status)
	assert.Equal(t, "Meera Nair", res.Patient.Name)
	assert.Equal(t, "22-11-1992", res.Patient.DOB)
	assert.Equal(t, "Kochi", res.Patient.Location)
	assert.Empty(t, res.Patient.ID) // draft, not yet persisted
}

func TestResolveWrongDOBDoesNotFuzzyMatch(t *testing.T) {
	r := NewResolver(seedPatients(t), "+91", nil)

	res, err := r.Resolve(extract.PatientInfo{
		Name: strPtr("Anita Sharma"),
		DOB:  strPtr("15-02-1990"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, res.Status)
}

func TestResolveBadPhoneIsIgnored(t *testing.T) {
	r := NewResolver(seedPatients(t), "+91", nil)

	res, err := r.Resolve(extract.PatientInfo{
		Name:  strPtr("Meera Nair"),
		Phone: strPtr("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusNew, res.Status)
	assert.Empty(t, res.Patient.Phone)
}
