package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type swapPayload struct {
	Original string `json:"original" validate:"required"`
	Category string `json:"category" validate:"omitempty,swapcategory"`
	Before   int    `json:"ecoScoreBefore" validate:"ecoscore"`
	Type     string `json:"type" validate:"actiontype"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestAliasesAcceptValidPayload(t *testing.T) {
	v := newValidator()
	err := v.Struct(swapPayload{Original: "plastic bottle", Category: "Personal Care", Before: 40, Type: "PLANT"})
	require.NoError(t, err)
}

func TestToDetailsUsesJSONNames(t *testing.T) {
	v := newValidator()
	err := v.Struct(swapPayload{Category: "Garden", Before: 120})
	require.Error(t, err)

	d := ToDetails(err)
	assert.Equal(t, "is required", d["original"])
	assert.Equal(t, "must be one of: Hydration, Personal Care, Kitchen, Shopping, Other", d["category"])
	assert.Equal(t, "must be between 0 and 100", d["ecoScoreBefore"])
	assert.Contains(t, d["type"], "action type")
}

func TestToDetailsInvalidJSON(t *testing.T) {
	var out map[string]any
	err := json.Unmarshal([]byte("{"), &out)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}

func TestSplitParamsQuoted(t *testing.T) {
	assert.Equal(t, []string{"Hydration", "Personal Care", "Kitchen"}, splitParams("Hydration 'Personal Care' Kitchen"))
	assert.Nil(t, splitParams(""))
}
