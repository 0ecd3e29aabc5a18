package seed

import (
	"crypto/sha512"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

var ErrNotInitialized = errors.New("seed not initialized")

// manager implements seed management with thread-safe access
type manager struct {
	seed        []byte
	mu          sync.RWMutex
	initialized bool
}

// NewManager creates a new SeedManager
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

// Initialize converts the secret to a seed using PBKDF2 the way BIP39 does:
// seed = PBKDF2(mnemonic, "mnemonic" + password, 2048, 64, SHA512)
func (m *manager) Initialize(mnemonic string, password string) error {
	if mnemonic == "" {
		return errors.New("mnemonic must not be empty")
	}

	const (
		pbkdf2Iterations = 2048
		pbkdf2KeyLength  = 64
	)

	seed := pbkdf2.Key(
		[]byte(mnemonic),
		[]byte("mnemonic"+password),
		pbkdf2Iterations,
		pbkdf2KeyLength,
		sha512.New,
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.seed)
	m.seed = seed
	m.initialized = true

	return nil
}

func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized || m.seed == nil {
		return nil
	}

	seedCopy := make([]byte, len(m.seed))
	copy(seedCopy, m.seed)
	return seedCopy
}

func (m *manager) WithSeed(fn func(seed []byte) error) error {
	seed := m.GetSeed()
	if seed == nil {
		return ErrNotInitialized
	}
	defer clear(seed)

	return fn(seed)
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.initialized
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.seed)
	m.seed = nil
	m.initialized = false
}
