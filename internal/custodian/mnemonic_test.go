package custodian

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devMnemonic = "test test test test test test test test test test test junk"

func TestMnemonicCustodian(t *testing.T) {
	ctx := context.Background()

	t.Run("derives standard accounts", func(t *testing.T) {
		mc, err := NewMnemonicCustodian(devMnemonic, 2)
		require.NoError(t, err)

		accs, err := mc.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{common.HexToAddress(devAddress0), common.HexToAddress(devAddress1)}, accs)
	})

	t.Run("exports derived keys", func(t *testing.T) {
		mc, err := NewMnemonicCustodian(devMnemonic, 2)
		require.NoError(t, err)

		key, err := mc.ExportPrivateKey(ctx, common.HexToAddress(devAddress1))
		require.NoError(t, err)
		assert.Equal(t, common.FromHex(devKey1), key)
	})

	t.Run("count defaults to one", func(t *testing.T) {
		mc, err := NewMnemonicCustodian(devMnemonic, 0)
		require.NoError(t, err)
		accs, err := mc.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Len(t, accs, 1)
	})

	t.Run("rejects bad mnemonics without quoting them", func(t *testing.T) {
		_, err := NewMnemonicCustodian("  ", 1)
		assert.Error(t, err)

		_, err = NewMnemonicCustodian("apple banana cherry", 1)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "banana")
	})

	t.Run("unknown account", func(t *testing.T) {
		mc, err := NewMnemonicCustodian(devMnemonic, 1)
		require.NoError(t, err)
		_, err = mc.ExportPrivateKey(ctx, common.HexToAddress(devAddress1))
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
