package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/signproxy/internal/custodian"
	"github.com/yolodolo42/signproxy/internal/service"
)

const web3Key = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

const someDataSignature = "0xb91467e570a6466aa9e9876cbcd013baba02900b8979d43fe208a4a4f339f5fd6007e74cd82e037b800186422fc2da167c747ef045e5d18a5f5d4300f8e1a0291c"

const mailTypedData = `{
	"types": {
		"EIP712Domain": [
			{"name": "name", "type": "string"},
			{"name": "version", "type": "string"},
			{"name": "chainId", "type": "uint256"},
			{"name": "verifyingContract", "type": "address"}
		],
		"Person": [{"name": "name", "type": "string"}, {"name": "wallet", "type": "address"}],
		"Mail": [
			{"name": "from", "type": "Person"},
			{"name": "to", "type": "Person"},
			{"name": "contents", "type": "string"}
		]
	},
	"primaryType": "Mail",
	"domain": {"name": "Ether Mail", "version": "1", "chainId": 1, "verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"},
	"message": {
		"from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
		"to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
		"contents": "Hello, Bob!"
	}
}`

const mailSignature = "0x4355c47d63924e8a72e509b65029052eb6c299d53a04e167c5775fd466751c9d07299936d304c153f6443dfa05f40ff007d72911b6f72307f996231605b915621c"

func newTestServer(t *testing.T, hexKey string, opts ...Option) http.Handler {
	t.Helper()
	c, err := custodian.NewStaticCustodian(hexKey)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(service.New(c, service.WithLogger(logger)), opts...).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]string{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestPostSign(t *testing.T) {
	h := newTestServer(t, web3Key)
	cow := common.Bytes2Hex(crypto.Keccak256([]byte("cow")))

	t.Run("signs a personal message", func(t *testing.T) {
		rec, out := do(t, h, http.MethodPost, "/sign", `{"message": "Some data"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, someDataSignature, out["signature"])
	})

	t.Run("hex messages are signed as bytes", func(t *testing.T) {
		_, hexOut := do(t, h, http.MethodPost, "/sign", `{"message": "0x536f6d652064617461"}`)
		assert.Equal(t, someDataSignature, hexOut["signature"])
	})

	t.Run("empty message is accepted", func(t *testing.T) {
		rec, out := do(t, h, http.MethodPost, "/sign", `{"message": ""}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, out["signature"], 132)
	})

	t.Run("signs typed data", func(t *testing.T) {
		hc := newTestServer(t, cow)
		for _, version := range []string{"V3", "V4", "v4"} {
			body := `{"typedData": ` + mailTypedData + `, "version": "` + version + `"}`
			rec, out := do(t, hc, http.MethodPost, "/sign", body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, mailSignature, out["signature"], version)
		}
	})

	t.Run("version defaults to V1", func(t *testing.T) {
		v1 := `[{"type": "string", "name": "message", "value": "Hi, Alice!"}]`
		_, withDefault := do(t, h, http.MethodPost, "/sign", `{"typedData": `+v1+`}`)
		_, withV1 := do(t, h, http.MethodPost, "/sign", `{"typedData": `+v1+`, "version": "V1"}`)
		require.NotEmpty(t, withDefault["signature"])
		assert.Equal(t, withV1["signature"], withDefault["signature"])
	})

	t.Run("rejects both and neither", func(t *testing.T) {
		for name, body := range map[string]string{
			"both":       `{"message": "hi", "typedData": ` + mailTypedData + `}`,
			"neither":    `{}`,
			"null":       `{"message": null, "typedData": null}`,
			"empty body": `{"version": "V4"}`,
		} {
			t.Run(name, func(t *testing.T) {
				rec, out := do(t, h, http.MethodPost, "/sign", body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, KindInvalidRequest, out["kind"])
			})
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		rec, out := do(t, h, http.MethodPost, "/sign", `{"message":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, KindInvalidRequest, out["kind"])
	})

	t.Run("rejects unknown versions", func(t *testing.T) {
		rec, out := do(t, h, http.MethodPost, "/sign", `{"typedData": `+mailTypedData+`, "version": "V2"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, KindInvalidRequest, out["kind"])
		assert.Equal(t, "version", out["field"])
	})

	t.Run("schema errors name the field", func(t *testing.T) {
		rec, out := do(t, h, http.MethodPost, "/sign", jsonBody(t, map[string]any{
			"typedData": json.RawMessage(mailTypedData),
			"version":   "V1",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, KindSchema, out["kind"])
		assert.Equal(t, "$", out["field"])

		nested := `[{"type": "Person", "name": "from", "value": {"name": "Cow"}}]`
		rec, out = do(t, h, http.MethodPost, "/sign", `{"typedData": `+nested+`}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, KindSchema, out["kind"])
		assert.Equal(t, "[0].from", out["field"])
	})
}

type stubSigner struct {
	account common.Address
	err     error
}

func (s stubSigner) SignRequest(ctx context.Context, req service.Request) (string, error) {
	return "", s.err
}

func (s stubSigner) Account(ctx context.Context) (common.Address, error) {
	return s.account, s.err
}

func TestPostSign_Failures(t *testing.T) {
	t.Run("internal errors are opaque", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		h := New(stubSigner{err: errors.New("keystore exploded at /secret/path")}, WithLogger(logger)).Router()

		rec, out := do(t, h, http.MethodPost, "/sign", `{"message": "hi"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", out["error"])
		assert.NotContains(t, rec.Body.String(), "/secret/path")

		var logged bool
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel {
				logged = true
			}
		}
		assert.True(t, logged)
	})

	t.Run("invalid custodian keys are reported by kind", func(t *testing.T) {
		fc := &zeroKeyCustodian{}
		logger, _ := test.NewNullLogger()
		h := New(service.New(fc, service.WithLogger(logger)), WithLogger(logger)).Router()

		rec, out := do(t, h, http.MethodPost, "/sign", `{"message": "hi"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, KindInvalidKey, out["kind"])
		assert.Equal(t, "Internal server error", out["error"])
	})
}

type zeroKeyCustodian struct{}

func (zeroKeyCustodian) ListAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")}, nil
}

func (zeroKeyCustodian) ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error) {
	return make([]byte, 32), nil
}

type stubLookup struct {
	addr common.Address
	err  error
}

func (s stubLookup) WalletAddress(ctx context.Context) (common.Address, error) {
	return s.addr, s.err
}

func TestGetWallet(t *testing.T) {
	t.Run("reports the signing account", func(t *testing.T) {
		h := newTestServer(t, web3Key)
		rec, out := do(t, h, http.MethodGet, "/wallet", "")
		require.Equal(t, http.StatusOK, rec.Code)

		priv, err := crypto.HexToECDSA(web3Key)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(priv.PublicKey).Hex(), out["walletAddress"])
	})

	t.Run("uses the wallet lookup when configured", func(t *testing.T) {
		addr := common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")
		h := newTestServer(t, web3Key, WithWalletLookup(stubLookup{addr: addr}))
		rec, out := do(t, h, http.MethodGet, "/wallet", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, addr.Hex(), out["walletAddress"])
	})

	t.Run("lookup failures are opaque", func(t *testing.T) {
		h := newTestServer(t, web3Key, WithWalletLookup(stubLookup{err: errors.New("dial tcp: refused")}))
		rec, out := do(t, h, http.MethodGet, "/wallet", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", out["error"])
	})
}

func TestRouter(t *testing.T) {
	h := newTestServer(t, web3Key)

	t.Run("healthz", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("assigns a request id", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/healthz", "")
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("echoes a caller request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sign", bytes.NewBufferString(`{"message": "hi"}`))
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("unknown routes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServe(t *testing.T) {
	c, err := custodian.NewStaticCustodian(web3Key)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	srv := New(service.New(c), WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "127.0.0.1:0", 0) }()
	cancel()
	assert.NoError(t, <-done)
}
