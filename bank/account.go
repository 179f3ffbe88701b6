package bank

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/crypto/keyring"
	"github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/dymensionxyz/cosmosclient/cosmosclient"
)

// EnsureAccount creates the named key if it does not exist yet and reports
// whether it had to be created. The mnemonic is returned only on creation.
func EnsureAccount(c cosmosclient.Client, name string) (created bool, mnemonic string, err error) {
	if _, err = c.AccountRegistry.GetByName(name); err == nil {
		return false, "", nil
	}

	_, mnemonic, err = c.AccountRegistry.Create(name)
	if err != nil {
		return false, "", fmt.Errorf("failed to create account: %w", err)
	}
	return true, mnemonic, nil
}

// ImportAccount restores a key from its mnemonic. A key that already exists
// under the name is left untouched.
func ImportAccount(c cosmosclient.Client, name, mnemonic string) error {
	if _, err := c.AccountRegistry.GetByName(name); err == nil {
		return nil
	}
	if _, err := c.AccountRegistry.Import(name, mnemonic, ""); err != nil {
		return fmt.Errorf("failed to import account: %w", err)
	}
	return nil
}

func mustConvertAccount(rec *keyring.Record) client.Account {
	address, err := rec.GetAddress()
	if err != nil {
		panic(fmt.Errorf("failed to get account address: %w", err))
	}
	pubKey, err := rec.GetPubKey()
	if err != nil {
		panic(fmt.Errorf("failed to get account pubkey: %w", err))
	}
	return types.NewBaseAccount(address, pubKey, 0, 0)
}
