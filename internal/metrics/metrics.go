package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "txenvelope"

// Service counts signing and decoding activity. A nil *Service is valid and records nothing.
type Service struct {
	signatures     *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
	coSigned       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) (*Service, error) {
	s := &Service{
		signatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signatures_total",
			Help:      "Signatures produced, by envelope kind and signature scheme.",
		}, []string{"kind", "scheme"}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Envelopes that failed to deserialize, by error class.",
		}, []string{"class"}),
		coSigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fee_payer_cosigned_total",
			Help:      "Envelopes sponsored by the fee payer relay, by envelope kind.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{s.signatures, s.decodeFailures, s.coSigned} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return s, nil
}

func (s *Service) SignatureProduced(kind string, scheme string) {
	if s == nil {
		return
	}
	s.signatures.WithLabelValues(kind, scheme).Inc()
}

func (s *Service) DecodeFailed(class string) {
	if s == nil {
		return
	}
	s.decodeFailures.WithLabelValues(class).Inc()
}

func (s *Service) CoSigned(kind string) {
	if s == nil {
		return
	}
	s.coSigned.WithLabelValues(kind).Inc()
}
