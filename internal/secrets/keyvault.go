package secrets

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// keyVaultFetcher reads secrets from Azure Key Vault.
// Authentication goes through DefaultAzureCredential: environment variables,
// managed identity or the Azure CLI login, in that order.
type keyVaultFetcher struct {
	client *azsecrets.Client
}

func newKeyVaultFetcher(vaultName string) (*keyVaultFetcher, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(VaultURL(vaultName), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return &keyVaultFetcher{client: client}, nil
}

// VaultURL builds the Key Vault endpoint for a vault name
func VaultURL(vaultName string) string {
	return fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
}

func (f *keyVaultFetcher) Fetch(ctx context.Context, name string) (string, error) {
	// empty version means latest
	resp, err := f.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get secret '%s': %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", name)
	}
	return *resp.Value, nil
}
