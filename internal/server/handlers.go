package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/yolodolo42/signproxy/internal/digest"
	"github.com/yolodolo42/signproxy/internal/service"
	"github.com/yolodolo42/signproxy/internal/signer"
)

// Error kinds reported in the "kind" field of error responses.
const (
	KindInvalidRequest = "InvalidRequestError"
	KindSchema         = "SchemaError"
	KindInvalidKey     = "InvalidKeyError"
)

const internalError = "Internal server error"

type signRequest struct {
	Message   *string         `json:"message"`
	TypedData json.RawMessage `json:"typedData"`
	Version   string          `json:"version"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

type walletResponse struct {
	WalletAddress string `json:"walletAddress"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func (s *Server) handleGetWallet(c *gin.Context) {
	ctx := c.Request.Context()
	var err error
	var resp walletResponse
	if s.wallet != nil {
		addr, lerr := s.wallet.WalletAddress(ctx)
		resp.WalletAddress, err = addr.Hex(), lerr
	} else {
		addr, aerr := s.signer.Account(ctx)
		resp.WalletAddress, err = addr.Hex(), aerr
	}
	if err != nil {
		s.log.WithError(err).WithField(requestIDKey, c.GetString(requestIDKey)).Error("wallet lookup failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: internalError})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePostSign(c *gin.Context) {
	var body signRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object", Kind: KindInvalidRequest})
		return
	}

	version, err := digest.ParseVersion(body.Version)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: KindInvalidRequest, Field: "version"})
		return
	}

	req := service.Request{TypedData: body.TypedData, Version: version}
	if body.Message != nil {
		req.HasMessage = true
		req.Message = messageBytes(*body.Message)
	}

	sig, err := s.signer.SignRequest(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, signResponse{Signature: sig})
}

// messageBytes signs 0x-hex messages as the bytes they encode, as wallets do
// for personal_sign; every other string is signed as UTF-8.
func messageBytes(msg string) []byte {
	if len(msg) >= 2 && msg[0] == '0' && (msg[1] == 'x' || msg[1] == 'X') {
		if b, err := hexutil.Decode("0x" + msg[2:]); err == nil {
			return b
		}
	}
	return []byte(msg)
}

func (s *Server) writeError(c *gin.Context, err error) {
	var schemaErr *digest.SchemaError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: KindInvalidRequest})
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: KindSchema, Field: schemaErr.Path})
	case errors.Is(err, signer.ErrInvalidKey):
		s.log.WithError(err).WithField(requestIDKey, c.GetString(requestIDKey)).Error("custodian returned an invalid key")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: internalError, Kind: KindInvalidKey})
	default:
		s.log.WithError(err).WithField(requestIDKey, c.GetString(requestIDKey)).Error("sign failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: internalError})
	}
}
