package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_FilterGroup(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"empty object", `{}`, false},
		{"null lists", `{"types":null,"priceBuckets":null}`, false},
		{"full", `{"types":[{"value":"apartment","label":"Apartment"}],"priceBuckets":[{"label":"Under 1000","min":null,"max":1000}]}`, false},
		{"option without label", `{"cities":[{"value":"Amsterdam"}]}`, true},
		{"numeric option value", `{"bedrooms":[{"value":2,"label":"2"}]}`, true},
		{"bucket with string bound", `{"priceBuckets":[{"label":"x","min":"10"}]}`, true},
		{"not an object", `[]`, true},
		{"broken json", `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(FilterGroupV1, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_SavedSearches(t *testing.T) {
	assert.NoError(t, Validate(SavedSearchesV1, []byte(`[{"name":"cheap-flats","query":"maxPrice=1000","updatedAt":"2026-01-02T03:04:05Z"}]`)))
	assert.Error(t, Validate(SavedSearchesV1, []byte(`[{"name":"bad name","query":""}]`)))
	assert.Error(t, Validate(SavedSearchesV1, []byte(`[{"name":"a","query":"","updatedAt":"yesterday"}]`)))
}

func TestValidate_UnknownContract(t *testing.T) {
	assert.Error(t, Validate("Nope/1.0.0", []byte(`{}`)))
}
