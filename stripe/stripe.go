package stripe

import (
	"context"
	"math"
	"strings"

	"doctorsportal/apperr"
	"doctorsportal/utils"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// IntentCreator creates a card payment intent and returns its client secret.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, amount float64, currency string) (string, error)
}

// Gateway talks to the Stripe API with a secret key.
type Gateway struct {
	intents paymentintent.Client
}

func NewGateway(secretKey string) *Gateway {
	return &Gateway{
		intents: paymentintent.Client{
			B:   stripeapi.GetBackend(stripeapi.APIBackend),
			Key: secretKey,
		},
	}
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, amount float64, currency string) (string, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:             stripeapi.Int64(MinorUnits(amount)),
		Currency:           stripeapi.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := g.intents.New(params)
	if err != nil {
		return "", apperr.External("payment provider rejected the request", err)
	}
	return pi.ClientSecret, nil
}

// MinorUnits converts a major-unit amount to cents.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Stub hands out fake client secrets for local development.
type Stub struct{}

func (Stub) CreatePaymentIntent(_ context.Context, amount float64, _ string) (string, error) {
	if MinorUnits(amount) <= 0 {
		return "", apperr.Validation("amount must be positive")
	}
	return "pi_" + utils.GetCompactUUID() + "_secret_stub", nil
}
