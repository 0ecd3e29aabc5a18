package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/wallet/address"
	"github/chapool/go-txenvelope/internal/wallet/keystore"
	"github/chapool/go-txenvelope/internal/wallet/seed"
)

const (
	// VerificationAddressIndex is the address index used for password verification
	VerificationAddressIndex = 0
)

func deriveVerificationAddress(ctx context.Context, seedManager seed.Manager, addressService address.Service) (common.Address, error) {
	var derived common.Address
	err := seedManager.WithSeed(func(seed []byte) error {
		var err error
		path := addressService.BIP44Path(VerificationAddressIndex)
		derived, err = addressService.DeriveAddress(ctx, seed, path, signature.SchemeSecp256k1)
		return err
	})
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive verification address")
	}

	return derived, nil
}

// VerifyPasswordByAddress compares the address derived from the unlocked seed
// with the one recorded at keystore creation. A keystore without a recorded
// address verifies.
func VerifyPasswordByAddress(ctx context.Context, seedManager seed.Manager, addressService address.Service, keystoreService keystore.Service) (bool, error) {
	log := log.With().Str("component", "password_verification").Logger()

	derived, err := deriveVerificationAddress(ctx, seedManager, addressService)
	if err != nil {
		log.Error().Err(err).Msg("Failed to derive verification address")
		return false, err
	}

	ks, err := keystoreService.GetKeystore(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get keystore")
	}

	if ks.VerificationAddress == nil {
		log.Info().Msg("No verification address found - this is first startup")
		return true, nil
	}

	if derived != *ks.VerificationAddress {
		log.Warn().
			Str("derived", derived.Hex()).
			Str("stored", ks.VerificationAddress.Hex()).
			Msg("Password verification failed: addresses do not match")
		return false, nil
	}

	return true, nil
}

// CreateVerificationAddress records the verification address (index 0) in the keystore.
func CreateVerificationAddress(ctx context.Context, seedManager seed.Manager, addressService address.Service, keystoreService keystore.Service) error {
	log := log.With().Str("component", "password_verification").Logger()

	ks, err := keystoreService.GetKeystore(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get keystore")
	}
	if ks.VerificationAddress != nil {
		log.Info().Msg("Verification address already exists")
		return nil
	}

	verificationAddress, err := deriveVerificationAddress(ctx, seedManager, addressService)
	if err != nil {
		return err
	}

	if err := keystoreService.SetVerificationAddress(ctx, verificationAddress); err != nil {
		log.Error().Err(err).Msg("Failed to create verification address")
		return errors.Wrap(err, "failed to create verification address")
	}

	log.Info().
		Str("address", verificationAddress.Hex()).
		Int("index", VerificationAddressIndex).
		Msg("Verification address created successfully")

	return nil
}
