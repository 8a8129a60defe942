package schema

import (
	"testing"

	"grievance/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeValidate(t *testing.T) {
	intake, err := NewIntake()
	require.NoError(t, err)

	valid := `{
		"serviceType": "Speed Post",
		"complaintType": "Delivery Delay",
		"complaintText": "My parcel is late",
		"email": "citizen@example.com",
		"trackingNumber": "EE123456789IN",
		"city": "Lucknow",
		"pincode": "226001"
	}`
	assert.NoError(t, intake.Validate([]byte(valid)))
}

func TestIntakeValidate_MissingRequired(t *testing.T) {
	intake, err := NewIntake()
	require.NoError(t, err)

	err = intake.Validate([]byte(`{"serviceType": "Speed Post", "email": "a@example.com"}`))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestIntakeValidate_BadPincode(t *testing.T) {
	intake, err := NewIntake()
	require.NoError(t, err)

	err = intake.Validate([]byte(`{
		"serviceType": "Speed Post",
		"complaintType": "Delay",
		"email": "a@example.com",
		"pincode": "0123"
	}`))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestIntakeValidate_UnknownField(t *testing.T) {
	intake, err := NewIntake()
	require.NoError(t, err)

	err = intake.Validate([]byte(`{
		"serviceType": "Speed Post",
		"complaintType": "Delay",
		"email": "a@example.com",
		"trackingNo": "oops"
	}`))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestIntakeValidate_NotJSON(t *testing.T) {
	intake, err := NewIntake()
	require.NoError(t, err)

	err = intake.Validate([]byte(`{{`))
	assert.ErrorIs(t, err, model.ErrValidation)
}
