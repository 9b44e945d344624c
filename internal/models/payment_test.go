package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderEventQualifies(t *testing.T) {
	cases := []struct {
		eventType    string
		qualifies    bool
		subscription bool
	}{
		{"payment", true, false},
		{"preapproval", true, true},
		{"subscription_preapproval", true, true},
		{"subscription_preapproval_plan", true, true},
		{"subscription_authorized_payment", false, false},
		{"plan", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		event := ProviderEvent{Type: tc.eventType}
		assert.Equal(t, tc.qualifies, event.Qualifies(), tc.eventType)
		assert.Equal(t, tc.subscription, event.Subscription(), tc.eventType)
	}
}

func TestPaymentMetadataCourseNames(t *testing.T) {
	m := PaymentMetadata{Courses: "Pacote Office, Excel PRO ,,Inglês Fluente"}
	assert.Equal(t, []string{"Pacote Office", "Excel PRO", "Inglês Fluente"}, m.CourseNames())

	assert.Empty(t, PaymentMetadata{}.CourseNames())
}

func TestPaymentDecodesNumericID(t *testing.T) {
	var p Payment
	require.NoError(t, json.Unmarshal([]byte(`{"id":123456789,"status":"approved"}`), &p))
	assert.Equal(t, "123456789", p.ID.String())
	assert.True(t, p.Approved())
}

func TestPreapprovalAuthorized(t *testing.T) {
	assert.True(t, Preapproval{Status: "authorized"}.Authorized())
	assert.True(t, Preapproval{Status: "approved"}.Authorized())
	assert.False(t, Preapproval{Status: "pending"}.Authorized())
}
