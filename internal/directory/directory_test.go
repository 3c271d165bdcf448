package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()

	p := Patient{ID: uuid.New(), Name: "Asha Rao"}
	require.NoError(t, dir.SavePatient(ctx, p))
	c := Clinician{ID: uuid.New(), Name: "Dr. Meyer"}
	require.NoError(t, dir.SaveClinician(ctx, c))

	got, err := dir.Patient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	gotC, err := dir.Clinician(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Meyer", gotC.Name)

	_, err = dir.Patient(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
	_, err = dir.Clinician(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrClinicianNotFound)

	byID, err := dir.PatientsByIDs(ctx, []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Equal(t, "Asha Rao", byID[p.ID].Name)
}
