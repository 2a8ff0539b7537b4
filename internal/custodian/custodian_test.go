package custodian

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/signproxy/internal/signer"
)

// Well-known development keys (hardhat accounts 0 and 1). Never fund them.
const (
	devKey0     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	devKey1     = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	devAddress1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestStaticCustodian(t *testing.T) {
	ctx := context.Background()

	t.Run("lists accounts in argument order", func(t *testing.T) {
		c, err := NewStaticCustodian(devKey1, "0x"+devKey0)
		require.NoError(t, err)

		accs, err := c.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{common.HexToAddress(devAddress1), common.HexToAddress(devAddress0)}, accs)
	})

	t.Run("exports a copy of the key", func(t *testing.T) {
		c, err := NewStaticCustodian(devKey0)
		require.NoError(t, err)

		key, err := c.ExportPrivateKey(ctx, common.HexToAddress(devAddress0))
		require.NoError(t, err)
		assert.Equal(t, common.FromHex(devKey0), key)

		Zero(key)
		again, err := c.ExportPrivateKey(ctx, common.HexToAddress(devAddress0))
		require.NoError(t, err)
		assert.Equal(t, common.FromHex(devKey0), again)
	})

	t.Run("duplicate keys are listed once", func(t *testing.T) {
		c, err := NewStaticCustodian(devKey0, devKey0)
		require.NoError(t, err)
		accs, err := c.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Len(t, accs, 1)
	})

	t.Run("unknown account", func(t *testing.T) {
		c, err := NewStaticCustodian(devKey0)
		require.NoError(t, err)
		_, err = c.ExportPrivateKey(ctx, common.HexToAddress(devAddress1))
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, k := range []string{"zz", "0x1234", "0000000000000000000000000000000000000000000000000000000000000000"} {
			_, err := NewStaticCustodian(k)
			assert.ErrorIs(t, err, signer.ErrInvalidKey, k)
		}
	})

	t.Run("honours cancellation", func(t *testing.T) {
		c, err := NewStaticCustodian(devKey0)
		require.NoError(t, err)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = c.ExportPrivateKey(cctx, common.HexToAddress(devAddress0))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestZero(t *testing.T) {
	key := common.FromHex(devKey0)
	Zero(key)
	assert.Equal(t, make([]byte, 32), key)
	Zero(nil)
}

// overlapCustodian fails the test if two calls are ever in flight together.
type overlapCustodian struct {
	t        *testing.T
	inFlight atomic.Int32
	calls    atomic.Int32
}

func (o *overlapCustodian) enter() func() {
	if o.inFlight.Add(1) > 1 {
		o.t.Error("concurrent call into custodian")
	}
	o.calls.Add(1)
	time.Sleep(time.Millisecond)
	return func() { o.inFlight.Add(-1) }
}

func (o *overlapCustodian) ListAccounts(ctx context.Context) ([]common.Address, error) {
	defer o.enter()()
	return []common.Address{common.HexToAddress(devAddress0)}, nil
}

func (o *overlapCustodian) ExportPrivateKey(ctx context.Context, account common.Address) ([]byte, error) {
	defer o.enter()()
	return common.FromHex(devKey0), nil
}

func TestLocked(t *testing.T) {
	inner := &overlapCustodian{t: t}
	c := Locked(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := c.ListAccounts(context.Background())
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := c.ExportPrivateKey(context.Background(), common.HexToAddress(devAddress0))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(16), inner.calls.Load())
}
