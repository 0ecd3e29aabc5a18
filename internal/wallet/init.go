package wallet

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const (
	minPasswordLength = 8
	secretLength      = 32
)

var ErrPasswordMismatch = errors.New("password verification failed: derived address does not match stored verification address")

// PasswordPrompt reads a password after printing prompt.
type PasswordPrompt func(prompt string) (string, error)

// InitializeKeystore creates the keystore on first use and unlocks it otherwise:
// 1. Checking if keystore exists
// 2. If not, generating a new secret and prompting for a password twice
// 3. If exists, prompting for the password and decrypting
// 4. Verifying the password against the stored verification address
// A nil prompt reads from the terminal.
func (w *Wallet) InitializeKeystore(ctx context.Context, prompt PasswordPrompt) error {
	log := log.With().Str("component", "wallet_init").Logger()

	if prompt == nil {
		prompt = promptPassword
	}

	exists, err := w.Keystore.Exists(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check keystore existence")
	}

	if exists {
		log.Info().Msg("Keystore found. Please enter password to unlock...")

		password, err := prompt("Enter keystore password: ")
		if err != nil {
			return errors.Wrap(err, "failed to read password")
		}

		return w.Unlock(ctx, password)
	}

	log.Info().Msg("Keystore not found. Generating new secret...")

	password, err := prompt(fmt.Sprintf("Enter password for keystore (min %d characters): ", minPasswordLength))
	if err != nil {
		return errors.Wrap(err, "failed to read password")
	}
	if len(password) < minPasswordLength {
		return errors.Errorf("password must be at least %d characters", minPasswordLength)
	}

	passwordConfirm, err := prompt("Confirm password: ")
	if err != nil {
		return errors.Wrap(err, "failed to read password confirmation")
	}
	if password != passwordConfirm {
		return errors.New("passwords do not match")
	}

	secret, err := GenerateSecret()
	if err != nil {
		return err
	}

	return w.Create(ctx, secret, password)
}

// Create writes a new keystore for secret and unlocks it.
func (w *Wallet) Create(ctx context.Context, secret string, password string) error {
	if _, err := w.Keystore.CreateKeystore(ctx, secret, password); err != nil {
		return errors.Wrap(err, "failed to create keystore")
	}

	if err := w.Seed.Initialize(secret, password); err != nil {
		return errors.Wrap(err, "failed to initialize seed manager")
	}

	if err := CreateVerificationAddress(ctx, w.Seed, w.Address, w.Keystore); err != nil {
		return errors.Wrap(err, "failed to create verification address")
	}

	log.Info().Str("path", w.Config.Wallet.KeystorePath).Msg("Keystore created successfully")

	return nil
}

// Unlock decrypts the stored keystore and loads the seed.
func (w *Wallet) Unlock(ctx context.Context, password string) error {
	ks, err := w.Keystore.GetKeystore(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get keystore")
	}

	secret, err := w.Keystore.DecryptMnemonic(ctx, ks, password)
	if err != nil {
		return errors.Wrap(err, "failed to decrypt keystore (invalid password?)")
	}

	if err := w.Seed.Initialize(secret, password); err != nil {
		return errors.Wrap(err, "failed to initialize seed manager")
	}

	valid, err := VerifyPasswordByAddress(ctx, w.Seed, w.Address, w.Keystore)
	if err != nil {
		w.Seed.Clear()
		return errors.Wrap(err, "failed to verify password")
	}
	if !valid {
		w.Seed.Clear()
		return ErrPasswordMismatch
	}

	log.Info().Msg("Seed manager initialized successfully")

	return nil
}

// GenerateSecret returns a random 32-byte hex secret for a new keystore.
func GenerateSecret() (string, error) {
	b := make([]byte, secretLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to generate secret")
	}
	defer clear(b)

	return hex.EncodeToString(b), nil
}

// promptPassword prompts for password input (hides input)
//
//nolint:forbidigo // Password input requires direct terminal I/O
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	fmt.Fprintln(os.Stderr)

	return string(passwordBytes), nil
}
