package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
)

var (
	errSecretRequired = errors.New("stripe webhook signing secret is required")
	errUnknownEnv     = errors.New(`stripe environment must be "test" or "live"`)
	errModeMismatch   = errors.New("stripe event mode does not match the configured environment")
)

// Client verifies webhook deliveries for one Stripe environment. Events from
// the other mode are rejected even when correctly signed.
type Client struct {
	live          bool
	signingSecret string
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	var live bool
	switch cfg.Environment() {
	case "test":
	case "live":
		live = true
	default:
		return nil, fmt.Errorf("%w: got %q", errUnknownEnv, cfg.Env)
	}

	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}
	if !strings.HasPrefix(secret, "whsec_") {
		return nil, fmt.Errorf("stripe signing secret must start with whsec_")
	}

	c := &Client{live: live, signingSecret: secret}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_env", c.Environment()), "stripe webhook verifier ready")
	}
	return c, nil
}

func (c *Client) Environment() string {
	if c != nil && c.live {
		return "live"
	}
	return "test"
}

// VerifyEvent authenticates the Stripe-Signature header for payload and
// decodes the event.
func (c *Client) VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	if c == nil || c.signingSecret == "" {
		return stripe.Event{}, errSecretRequired
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, err
	}
	if event.Livemode != c.live {
		return stripe.Event{}, fmt.Errorf("%w: event %s", errModeMismatch, event.ID)
	}
	return event, nil
}
