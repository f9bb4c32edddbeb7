package lib

import (
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

// PaymentsEnabled reports whether a Stripe key is configured. Bookings for
// non-free events are rejected with a payment-required error when it is not.
func PaymentsEnabled() bool {
	return os.Getenv("STRIPE_SECRET_KEY") != ""
}

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	sc := stripe.NewClient(os.Getenv("STRIPE_SECRET_KEY"))
	stripeClient = sc
	return sc
}
