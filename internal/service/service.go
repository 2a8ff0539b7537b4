// Package service wires the custodian, digest builders, signer and codec into
// the three signing operations exposed to callers.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/yolodolo42/signproxy/internal/custodian"
	"github.com/yolodolo42/signproxy/internal/digest"
	"github.com/yolodolo42/signproxy/internal/signature"
	"github.com/yolodolo42/signproxy/internal/signer"
)

var ErrInvalidRequest = errors.New("invalid request: exactly one of message or typedData is required")

// Request carries exactly one of a personal message or a typed-data payload.
// HasMessage distinguishes an empty message from an absent one.
type Request struct {
	Message    []byte
	HasMessage bool
	TypedData  json.RawMessage
	Version    digest.Version
}

func (r Request) hasTypedData() bool {
	return len(r.TypedData) > 0 && string(r.TypedData) != "null"
}

// Service signs on behalf of the custodian's first account.
//
// Picking the first enumerated account is a convenience policy carried over
// from the single-account proxy; callers needing explicit selection should add
// an account parameter rather than rely on enumeration order.
type Service struct {
	custodian custodian.KeyCustodian
	chainID   *big.Int
	log       logrus.FieldLogger
}

type Option func(*Service)

// WithChainID requires V3/V4 typed data to carry a matching domain.chainId.
func WithChainID(id *big.Int) Option {
	return func(s *Service) { s.chainID = id }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

func New(c custodian.KeyCustodian, opts ...Option) *Service {
	s := &Service{custodian: c, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Account returns the signing account.
func (s *Service) Account(ctx context.Context) (common.Address, error) {
	accs, err := s.custodian.ListAccounts(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("list accounts: %w", err)
	}
	if len(accs) == 0 {
		return common.Address{}, custodian.ErrNoAccounts
	}
	return accs[0], nil
}

// SignPersonalMessage signs message under the EIP-191 personal prefix.
func (s *Service) SignPersonalMessage(ctx context.Context, message []byte) (string, error) {
	return s.sign(ctx, "personal", digest.PersonalDigest(message))
}

// SignTypedData signs data with the encoding rules of version.
func (s *Service) SignTypedData(ctx context.Context, data json.RawMessage, version digest.Version) (string, error) {
	if version == "" {
		version = digest.DefaultVersion
	}
	if err := s.checkChain(data, version); err != nil {
		return "", err
	}
	h, err := digest.TypedDataDigest(data, version)
	if err != nil {
		return "", err
	}
	return s.sign(ctx, "typed/"+version.String(), h)
}

// SignRequest dispatches on whichever variant of req is populated.
func (s *Service) SignRequest(ctx context.Context, req Request) (string, error) {
	switch {
	case req.HasMessage && req.hasTypedData(), !req.HasMessage && !req.hasTypedData():
		return "", ErrInvalidRequest
	case req.HasMessage:
		return s.SignPersonalMessage(ctx, req.Message)
	default:
		return s.SignTypedData(ctx, req.TypedData, req.Version)
	}
}

func (s *Service) checkChain(data json.RawMessage, version digest.Version) error {
	if s.chainID == nil || version == digest.V1 {
		return nil
	}
	id, ok, err := digest.TypedDataChainID(data, version)
	if err != nil {
		return err
	}
	if !ok {
		return &digest.SchemaError{Path: "domain.chainId", Reason: "missing, required by the configured chain"}
	}
	if id.Cmp(s.chainID) != 0 {
		return &digest.SchemaError{
			Path:   "domain.chainId",
			Reason: fmt.Sprintf("chainId %s does not match configured chain %s", id, s.chainID),
		}
	}
	return nil
}

func (s *Service) sign(ctx context.Context, kind string, h common.Hash) (string, error) {
	account, err := s.Account(ctx)
	if err != nil {
		return "", err
	}
	key, err := s.custodian.ExportPrivateKey(ctx, account)
	if err != nil {
		return "", fmt.Errorf("export key for %s: %w", account.Hex(), err)
	}
	defer custodian.Zero(key)

	t, err := signer.Sign(h, key)
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"kind":    kind,
		"account": account.Hex(),
		"digest":  h.Hex(),
	}).Debug("signed")
	return signature.Encode(t), nil
}
