package signer

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/config"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/aa"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/feetoken"
	"github/chapool/go-txenvelope/internal/envelope/keyauth"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/metrics"
	"github/chapool/go-txenvelope/internal/util"
	"github/chapool/go-txenvelope/internal/wallet/address"
	"github/chapool/go-txenvelope/internal/wallet/seed"
)

type service struct {
	seedManager    seed.Manager
	addressService address.Service
	enableSigning  bool
	local          LocalOptions
	metrics        *metrics.Service
}

// NewService creates a new SignerService
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(seedManager seed.Manager, addressService address.Service, cfg config.Wallet, m *metrics.Service) (Service, error) {
	return &service{
		seedManager:    seedManager,
		addressService: addressService,
		enableSigning:  cfg.EnableSigning,
		local: LocalOptions{
			RPID:   cfg.WebAuthnRPID,
			Origin: cfg.WebAuthnOrigin,
		},
		metrics: m,
	}, nil
}

// withSigner derives the key behind ref, wraps it in a local signer and
// clears the key once fn returns.
func (s *service) withSigner(ctx context.Context, ref KeyRef, fn func(signature.Signer) error) error {
	return s.seedManager.WithSeed(func(seed []byte) error {
		key, err := s.addressService.DeriveKey(ctx, seed, ref.DerivationPath, ref.Scheme)
		if err != nil {
			return errors.Wrap(err, "failed to derive private key")
		}
		defer address.ClearKey(key)

		signer, err := NewLocalSigner(key, ref.Scheme, s.local)
		if err != nil {
			return err
		}

		return fn(signer)
	})
}

func (s *service) Address(ctx context.Context, ref KeyRef) (common.Address, error) {
	var addr common.Address
	err := s.seedManager.WithSeed(func(seed []byte) error {
		var err error
		addr, err = s.addressService.DeriveAddress(ctx, seed, ref.DerivationPath, ref.Scheme)
		return err
	})

	return addr, err
}

//nolint:ireturn // the envelope variant depends on the key scheme
func (s *service) SignHash(ctx context.Context, ref KeyRef, hash common.Hash) (signature.Envelope, error) {
	if !s.enableSigning {
		return nil, ErrSigningDisabled
	}

	var sig signature.Envelope
	err := s.withSigner(ctx, ref, func(signer signature.Signer) error {
		var err error
		sig, err = signer.SignHash(ctx, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SignatureProduced("hash", ref.Scheme.String())

	return sig, nil
}

func (s *service) SignAA(ctx context.Context, req *SignAARequest) (*SignResponse, error) {
	log := util.LogFromContext(ctx)

	if !s.enableSigning {
		return nil, ErrSigningDisabled
	}

	payload, err := req.Envelope.SignPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute sign payload")
	}

	err = s.withSigner(ctx, req.Key, func(signer signature.Signer) error {
		if req.Keychain != nil {
			signer = &KeychainSigner{User: *req.Keychain, Inner: signer}
		}

		sig, err := signer.SignHash(ctx, payload)
		if err != nil {
			return errors.Wrap(err, "failed to sign envelope")
		}
		req.Envelope.Signature = sig

		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("kind", aa.Kind).Msg("Failed to sign envelope")
		return nil, err
	}

	s.metrics.SignatureProduced(aa.Kind, req.Key.Scheme.String())

	return respond(req.Envelope)
}

func (s *service) SignFeeToken(ctx context.Context, req *SignFeeTokenRequest) (*SignResponse, error) {
	log := util.LogFromContext(ctx)

	if !s.enableSigning {
		return nil, ErrSigningDisabled
	}

	payload, err := req.Envelope.SignPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute sign payload")
	}

	ref := KeyRef{DerivationPath: req.DerivationPath, Scheme: signature.SchemeSecp256k1}
	err = s.seedManager.WithSeed(func(seed []byte) error {
		key, err := s.addressService.DeriveKey(ctx, seed, ref.DerivationPath, ref.Scheme)
		if err != nil {
			return errors.Wrap(err, "failed to derive private key")
		}
		defer address.ClearKey(key)

		sig, err := signSecp256k1(ctx, key, payload)
		if err != nil {
			return err
		}
		req.Envelope.Signature = sig

		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("kind", feetoken.Kind).Msg("Failed to sign envelope")
		return nil, err
	}

	s.metrics.SignatureProduced(feetoken.Kind, ref.Scheme.String())

	return respond(req.Envelope)
}

func (s *service) AuthorizeKey(ctx context.Context, req *AuthorizeKeyRequest) (*keyauth.KeyAuthorization, error) {
	if !s.enableSigning {
		return nil, ErrSigningDisabled
	}

	accessKey, err := s.Address(ctx, req.AccessKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive access key address")
	}

	auth, err := keyauth.New(accessKey, req.AccessKey.Scheme, req.Options)
	if err != nil {
		return nil, err
	}

	var signed *keyauth.KeyAuthorization
	err = s.withSigner(ctx, req.Root, func(root signature.Signer) error {
		var err error
		signed, err = keyauth.Sign(ctx, root, auth)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign key authorization")
	}

	s.metrics.SignatureProduced("keyAuthorization", req.Root.Scheme.String())

	util.LogFromContext(ctx).Debug().
		Str("accessKey", accessKey.Hex()).
		Str("scheme", req.AccessKey.Scheme.String()).
		Uint64("expiry", signed.Expiry).
		Msg("Key authorized")

	return signed, nil
}

func signSecp256k1(ctx context.Context, key *ecdsa.PrivateKey, hash common.Hash) (*signature.Secp256k1, error) {
	signer, err := NewSecp256k1Signer(key)
	if err != nil {
		return nil, err
	}

	return signer.SignSecp256k1(ctx, hash)
}

type signedEnvelope interface {
	Serialize(opts ...envelope.SerializeOption) ([]byte, error)
	Sender() (common.Address, error)
}

func respond(e signedEnvelope) (*SignResponse, error) {
	raw, err := e.Serialize()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize envelope")
	}

	sender, err := e.Sender()
	if err != nil {
		return nil, errors.Wrap(err, "failed to recover sender")
	}

	return &SignResponse{
		RawTransaction: raw,
		TxHash:         codec.Keccak256(raw),
		Sender:         sender,
	}, nil
}
