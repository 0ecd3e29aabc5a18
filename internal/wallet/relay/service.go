package relay

import (
	"context"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-txenvelope/internal/envelope"
	"github/chapool/go-txenvelope/internal/envelope/codec"
	"github/chapool/go-txenvelope/internal/envelope/signature"
	"github/chapool/go-txenvelope/internal/envelope/transaction"
	"github/chapool/go-txenvelope/internal/metrics"
	"github/chapool/go-txenvelope/internal/util"
	"github/chapool/go-txenvelope/internal/wallet/signer"
)

type service struct {
	signer  signer.Service
	path    string
	policy  Policy
	metrics *metrics.Service
}

// NewService creates a relay signing with the secp256k1 key at feePayerPath.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(signerService signer.Service, feePayerPath string, policy Policy, m *metrics.Service) Service {
	return &service{
		signer:  signerService,
		path:    feePayerPath,
		policy:  policy,
		metrics: m,
	}
}

func (s *service) key() signer.KeyRef {
	return signer.KeyRef{DerivationPath: s.path, Scheme: signature.SchemeSecp256k1}
}

func (s *service) Address(ctx context.Context) (common.Address, error) {
	return s.signer.Address(ctx, s.key())
}

func (s *service) CoSign(ctx context.Context, raw []byte) (*CoSignResponse, error) {
	log := util.LogFromContext(ctx).With().Str("component", "fee_payer_relay").Logger()

	tx, err := transaction.Decode(raw)
	if err != nil {
		s.metrics.DecodeFailed(envelope.ClassOf(err).String())
		log.Debug().Err(err).Msg("Rejected undecodable envelope")
		return nil, errors.Wrap(err, "failed to decode envelope")
	}

	delegation := tx.Delegation()
	if delegation.Signature != nil {
		return nil, ErrAlreadySponsored
	}
	if !delegation.Requested {
		return nil, ErrNotRequested
	}

	if err := s.checkPolicy(tx); err != nil {
		return nil, err
	}

	sender, err := tx.Sender()
	if err != nil {
		return nil, errors.Wrap(err, "failed to recover sender")
	}

	payload, err := tx.FeePayerSignPayload(&sender)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute fee payer payload")
	}

	sig, err := s.signer.SignHash(ctx, s.key(), payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign fee payer payload")
	}
	secp, ok := sig.(*signature.Secp256k1)
	if !ok {
		return nil, errors.Errorf("fee payer key produced a %s signature", sig.Scheme())
	}

	tx.SetFeePayerSignature(secp)

	out, err := tx.Serialize()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize envelope")
	}

	feePayer, err := tx.FeePayerAddress()
	if err != nil {
		return nil, errors.Wrap(err, "failed to recover fee payer")
	}

	s.metrics.CoSigned(tx.Kind())
	log.Info().
		Str("kind", tx.Kind()).
		Str("sender", sender.Hex()).
		Str("feePayer", feePayer.Hex()).
		Msg("Envelope sponsored")

	return &CoSignResponse{
		RawTransaction: out,
		TxHash:         codec.Keccak256(out),
		Kind:           tx.Kind(),
		Sender:         sender,
		FeePayer:       feePayer,
	}, nil
}

func (s *service) checkPolicy(tx transaction.Transaction) error {
	if len(s.policy.FeeTokens) == 0 {
		return nil
	}

	var token common.Address
	if t := tx.FeeTokenAddress(); t != nil {
		token = *t
	}

	if !slices.Contains(s.policy.FeeTokens, token) {
		return errors.Wrapf(ErrFeeTokenRejected, "%s", token.Hex())
	}

	return nil
}
