package envelope

import "github.com/ethereum/go-ethereum/common"

// SerializeOption changes how an envelope is rendered to bytes.
type SerializeOption func(*SerializeConfig)

// SerializeConfig is the resolved set of serialization options.
type SerializeConfig struct {
	// Presign drops the sender signature and renders the fee-payer slot the
	// way the sender signs it.
	Presign bool
	// Sender, when set, renders the fee-payer sign payload: the slot holds the
	// sender address and no signature is appended.
	Sender *common.Address
}

// Presign renders the envelope as signed by its sender.
func Presign() SerializeOption {
	return func(c *SerializeConfig) {
		c.Presign = true
	}
}

// ForFeePayer renders the envelope as signed by the fee payer, bound to sender.
func ForFeePayer(sender common.Address) SerializeOption {
	return func(c *SerializeConfig) {
		addr := sender
		c.Sender = &addr
	}
}

// ResolveOptions applies opts in order.
func ResolveOptions(opts ...SerializeOption) SerializeConfig {
	var cfg SerializeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// WithSignature reports whether the signature fields should be appended.
func (c SerializeConfig) WithSignature() bool {
	return !c.Presign && c.Sender == nil
}
