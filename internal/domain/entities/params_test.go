package entities

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zatekoja/notefhir/pkg/errors"
)

func TestParseParameterSet(t *testing.T) {
	set, err := ParseParameterSet(`{"condition":"chest pain","onsetAge":52}`)
	require.NoError(t, err)
	assert.Equal(t, "chest pain", set["condition"])

	empty, err := ParseParameterSet("  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseParameterSet(`{"condition":`)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDecodeCondition_MissingPrimary(t *testing.T) {
	for _, set := range []ParameterSet{
		{},
		{"condition": nil},
		{"condition": "   "},
		{"clinicalStatus": "active"},
	} {
		_, _, err := DecodeCondition(set)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingField))
	}
}

func TestDecodeCondition_PrimaryWrongType(t *testing.T) {
	_, _, err := DecodeCondition(ParameterSet{"condition": 12.0})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDecodeCondition_AllShapes(t *testing.T) {
	set, err := ParseParameterSet(`{
		"condition": "type 2 diabetes",
		"clinicalStatus": "active",
		"verificationStatus": "confirmed",
		"category": "problem-list-item",
		"bodySite": ["pancreas"],
		"severity": "moderate",
		"onsetAge": "45",
		"abatementPeriod": {"start": "2020-01-01", "end": "2021-06"},
		"recordedDate": "2024-03-02T10:00:00Z",
		"stage": "stage 2",
		"evidence": ["HbA1c 8.1%", "fasting glucose 9"],
		"note": "diet controlled until 2019"
	}`)
	require.NoError(t, err)

	p, issues, err := DecodeCondition(set)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, "type 2 diabetes", p.Condition)
	assert.Equal(t, []string{"problem-list-item"}, p.Category)
	assert.Equal(t, []string{"pancreas"}, p.BodySite)
	require.NotNil(t, p.Onset.Age)
	assert.Equal(t, 45.0, p.Onset.Age.Value)
	assert.Equal(t, &Period{Start: "2020-01-01", End: "2021-06"}, p.Abatement.Period)
	assert.Equal(t, "2024-03-02T10:00:00Z", p.RecordedDate)
	assert.Equal(t, []string{"stage 2"}, p.Stage)
	assert.Len(t, p.Evidence, 2)
	assert.Equal(t, []string{"diet controlled until 2019"}, p.Note)
}

func TestDecodeCondition_MalformedFieldsReported(t *testing.T) {
	set := ParameterSet{
		"condition":      "asthma",
		"onsetPeriod":    map[string]interface{}{"start": "2020-01-01"},
		"recordedDate":   "last tuesday",
		"bodySite":       map[string]interface{}{"site": "lung"},
		"severity":       []interface{}{"mild"},
		"clinicalStatus": "active",
		"colour":         "blue",
	}
	p, issues, err := DecodeCondition(set)
	require.NoError(t, err)
	assert.Equal(t, "active", p.ClinicalStatus)
	assert.Nil(t, p.Onset.Period)
	assert.Empty(t, p.RecordedDate)
	assert.Nil(t, p.BodySite)
	assert.Empty(t, p.Severity)

	fields := make([]string, 0, len(issues))
	for _, i := range issues {
		fields = append(fields, i.Field)
	}
	assert.ElementsMatch(t, []string{"onsetPeriod", "recordedDate", "bodySite", "severity", "colour"}, fields)
}

func TestDecodeCondition_NonFiniteAgeReported(t *testing.T) {
	for _, v := range []interface{}{"NaN", "Inf", "-inf", "infinity", math.NaN(), math.Inf(1), json.Number("NaN")} {
		p, issues, err := DecodeCondition(ParameterSet{"condition": "chest pain", "onsetAge": v})
		require.NoError(t, err)
		assert.Nil(t, p.Onset.Age, "onsetAge %v", v)
		require.Len(t, issues, 1, "onsetAge %v", v)
		assert.Equal(t, "onsetAge", issues[0].Field)
	}
}

func TestDecodeCondition_ChoiceConflict(t *testing.T) {
	p, issues, err := DecodeCondition(ParameterSet{
		"condition":     "migraine",
		"onsetDateTime": "2019",
		"onsetString":   "childhood",
	})
	require.NoError(t, err)
	assert.Equal(t, "2019", p.Onset.DateTime)
	assert.Empty(t, p.Onset.String)
	require.Len(t, issues, 1)
	assert.Equal(t, "onsetString", issues[0].Field)
}

func TestDecodeCondition_InvalidFirstChoiceFallsThrough(t *testing.T) {
	p, issues, err := DecodeCondition(ParameterSet{
		"condition":     "migraine",
		"onsetDateTime": "soon",
		"onsetString":   "childhood",
	})
	require.NoError(t, err)
	assert.Equal(t, "childhood", p.Onset.String)
	require.Len(t, issues, 1)
	assert.Equal(t, "onsetDateTime", issues[0].Field)
}

func TestDecodeMedicationStatement(t *testing.T) {
	p, issues, err := DecodeMedicationStatement(ParameterSet{
		"medication_statement": "metformin 500mg",
		"status":               "active",
		"dosage":               []interface{}{"500mg twice daily", "with food"},
		"effectivePeriod":      map[string]interface{}{"start": "2023-01-01", "end": "2023-12-31"},
		"reasonCode":           "diabetes",
		"onsetAge":             40.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "metformin 500mg", p.MedicationStatement)
	assert.Equal(t, []string{"500mg twice daily", "with food"}, p.Dosage)
	assert.NotNil(t, p.Effective.Period)
	assert.Equal(t, []string{"diabetes"}, p.ReasonCode)
	require.Len(t, issues, 1)
	assert.Equal(t, "onsetAge", issues[0].Field)
}

func TestDecodeProcedure(t *testing.T) {
	p, issues, err := DecodeProcedure(ParameterSet{
		"procedure":    "appendectomy",
		"status":       "completed",
		"performedAge": map[string]interface{}{"value": 12.0},
		"outcome":      "successful",
		"followUp":     []interface{}{"wound check", 7.0},
	})
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.NotNil(t, p.Performed.Age)
	assert.Equal(t, "a", p.Performed.Age.Code)
	assert.Equal(t, []string{"wound check", "7"}, p.FollowUp)
}

func TestIsDate(t *testing.T) {
	for _, s := range []string{"2024", "2024-03", "2024-03-02", "2024-03-02T10:00:00", "2024-03-02T10:00:00+01:00"} {
		assert.True(t, IsDate(s), s)
	}
	for _, s := range []string{"", "yesterday", "03/02/2024"} {
		assert.False(t, IsDate(s), s)
	}
}
