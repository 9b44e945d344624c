package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedbrasilia/enroll-api/pkg/config"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ProviderConfig{
		BaseURL:            srv.URL,
		AccessToken:        "secret-token",
		CheckoutAmount:     89.90,
		SubscriptionAmount: 59.90,
		SuccessURL:         "https://example.com/ok",
		FailureURL:         "https://example.com/fail",
		NotificationURL:    "https://example.com/webhooks/payments",
	}, nil)
}

func TestCreatePreference(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		metadata, ok := payload["metadata"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "Maria Silva", metadata["nome"])
		assert.Equal(t, "Pacote Office,Excel PRO", metadata["cursos"])
		assert.Equal(t, "https://example.com/webhooks/payments", payload["notification_url"])

		w.Write([]byte(`{"init_point":"https://pay.example.com/p/1"}`)) //nolint:errcheck
	})

	link, err := client.CreatePreference(context.Background(), CheckoutItems{
		Name:     "Maria Silva",
		Email:    "maria@example.com",
		Whatsapp: "61988887777",
		Courses:  []string{"Pacote Office", "Excel PRO"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/p/1", link)
}

func TestCreatePreferenceMissingLink(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	})

	_, err := client.CreatePreference(context.Background(), CheckoutItems{Name: "X"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstreamUnavailable))
}

func TestCreateSubscription(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/preapproval", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		recurring, ok := payload["auto_recurring"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "months", recurring["frequency_type"])
		assert.InDelta(t, 59.90, recurring["transaction_amount"], 0.001)

		w.Write([]byte(`{"init_point":"https://pay.example.com/s/1"}`)) //nolint:errcheck
	})

	link, err := client.CreateSubscription(context.Background(), CheckoutItems{
		Name:    "Maria Silva",
		Email:   "maria@example.com",
		Courses: []string{"Pacote Office"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/s/1", link)
}

func TestCreateSubscriptionSandboxFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sandbox_init_point":"https://sandbox.example.com/s/1"}`)) //nolint:errcheck
	})

	link, err := client.CreateSubscription(context.Background(), CheckoutItems{Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.example.com/s/1", link)
}

func TestPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/12345", r.URL.Path)
		w.Write([]byte(`{"id":12345,"status":"approved","metadata":{"nome":"Maria Silva","cursos":"Pacote Office"}}`)) //nolint:errcheck
	})

	payment, err := client.Payment(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", payment.ID.String())
	assert.True(t, payment.Approved())
	assert.Equal(t, []string{"Pacote Office"}, payment.Metadata.CourseNames())
}

func TestPreapproval(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/preapproval/sub-1", r.URL.Path)
		w.Write([]byte(`{"id":"sub-1","status":"authorized","metadata":{"nome":"Maria Silva"}}`)) //nolint:errcheck
	})

	preapproval, err := client.Preapproval(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", preapproval.ID)
	assert.True(t, preapproval.Authorized())
}

func TestProviderErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Payment(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstreamUnavailable))
}
