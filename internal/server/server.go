// Package server exposes the signing service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yolodolo42/signproxy/internal/service"
)

// Signer is the part of service.Service the transport needs.
type Signer interface {
	SignRequest(ctx context.Context, req service.Request) (string, error)
	Account(ctx context.Context) (common.Address, error)
}

// WalletLookup resolves the address reported by GET /wallet.
type WalletLookup interface {
	WalletAddress(ctx context.Context) (common.Address, error)
}

type Server struct {
	signer Signer
	wallet WalletLookup
	log    logrus.FieldLogger
}

type Option func(*Server)

// WithWalletLookup makes GET /wallet ask an external wallet service instead of
// reporting the signing account.
func WithWalletLookup(w WalletLookup) Option {
	return func(s *Server) { s.wallet = w }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

func New(signer Signer, opts ...Option) *Server {
	s := &Server{signer: signer, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/wallet", s.handleGetWallet)
	r.POST("/sign", s.handlePostSign)

	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string, readHeaderTimeout time.Duration) error {
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
