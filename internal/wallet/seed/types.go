package seed

// Manager holds the wallet seed in memory for the lifetime of the process.
type Manager interface {
	// Initialize derives the seed from the keystore secret and password.
	Initialize(mnemonic string, password string) error

	// GetSeed returns a copy of the seed, or nil before Initialize.
	// WARNING: Caller must clear the copy after use
	GetSeed() []byte

	// WithSeed runs fn with a copy of the seed that is cleared once fn returns.
	WithSeed(fn func(seed []byte) error) error

	IsInitialized() bool

	// Clear clears the seed from memory
	Clear()
}
