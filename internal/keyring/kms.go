package keyring

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keeper decrypts KMS-wrapped key material. *secrets.Keeper implements it.
type Keeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// openKeeper opens a secrets.Keeper for the configured KMS provider.
// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
func openKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}
