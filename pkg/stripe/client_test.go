package stripe

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/retailpos-backend/pkg/config"
)

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{}, nil)
	assert.ErrorIs(t, err, errSecretRequired)

	_, err = NewClient(ctx, config.StripeConfig{Secret: "sk_test_1"}, nil)
	assert.Error(t, err)

	_, err = NewClient(ctx, config.StripeConfig{Secret: "whsec_x", Env: "staging"}, nil)
	assert.ErrorIs(t, err, errUnknownEnv)

	client, err := NewClient(ctx, config.StripeConfig{Secret: " whsec_x ", Env: "LIVE"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "live", client.Environment())
}

func signed(t *testing.T, secret string, payload []byte) (body []byte, header string) {
	t.Helper()
	out := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return out.Payload, out.Header
}

func TestVerifyEvent(t *testing.T) {
	client := &Client{signingSecret: "whsec_test"}
	payload := []byte(`{"id":"evt_1","object":"event","livemode":false,"type":"checkout.session.completed","data":{"object":{}}}`)

	body, header := signed(t, "whsec_test", payload)
	event, err := client.VerifyEvent(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)

	_, err = client.VerifyEvent(payload, fmt.Sprintf("t=%d,v1=deadbeef", time.Now().Unix()))
	assert.Error(t, err)

	var nilClient *Client
	_, err = nilClient.VerifyEvent(payload, "")
	assert.ErrorIs(t, err, errSecretRequired)
}

func TestVerifyEventRejectsOtherMode(t *testing.T) {
	live := &Client{live: true, signingSecret: "whsec_live"}
	payload := []byte(`{"id":"evt_2","object":"event","livemode":false,"type":"checkout.session.completed","data":{"object":{}}}`)

	body, header := signed(t, "whsec_live", payload)
	_, err := live.VerifyEvent(body, header)
	assert.ErrorIs(t, err, errModeMismatch)
}
