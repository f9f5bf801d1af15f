package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// Backend fetches a single secret value by name
type Backend interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// keyVaultBackend reads the latest version of a secret from Azure Key Vault
type keyVaultBackend struct {
	client *azsecrets.Client
}

func (b *keyVaultBackend) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := b.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", err
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", name)
	}
	return *resp.Value, nil
}

// newKeyVaultBackend authenticates with DefaultAzureCredential (environment,
// managed identity or Azure CLI) against https://<vaultName>.vault.azure.net/
func newKeyVaultBackend(vaultName string, logger *zap.Logger) (*keyVaultBackend, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", vaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("Azure Key Vault client initialized", zap.String("vault_url", vaultURL))
	return &keyVaultBackend{client: client}, nil
}

// CachingBackend memoizes secret values for a fixed TTL
type CachingBackend struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewCachingBackend wraps backend with a TTL cache. A zero ttl uses five minutes.
func NewCachingBackend(backend Backend, ttl time.Duration, logger *zap.Logger) *CachingBackend {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachingBackend{
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		cache:   make(map[string]cachedSecret),
	}
}

// GetSecret returns the cached value while it is fresh, otherwise fetches it again
func (c *CachingBackend) GetSecret(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	if cached, ok := c.cache[name]; ok && c.now().Before(cached.expiresAt) {
		c.mu.Unlock()
		c.logger.Debug("Secret retrieved from cache", zap.String("secret_name", name))
		return cached.value, nil
	}
	c.mu.Unlock()

	value, err := c.backend.GetSecret(ctx, name)
	if err != nil {
		c.logger.Error("Failed to get secret",
			zap.String("secret_name", name),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", name, err)
	}

	c.mu.Lock()
	c.cache[name] = cachedSecret{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// ClearCache drops every cached secret
func (c *CachingBackend) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]cachedSecret)
	c.mu.Unlock()
}
