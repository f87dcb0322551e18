package reconcile

import "time"

type Options struct {
	CheckoutTTL time.Duration
}

const defaultMemoSize = 256
