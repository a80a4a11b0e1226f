package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/singleflight"
)

// Credentials are the keys we sign storage requests with. A zero
// Expiration means the keys don't expire.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}

// CanExpire returns true if these credentials have an expiration time.
func (c Credentials) CanExpire() bool {
	return !c.Expiration.IsZero()
}

// CredentialProvider is one link in the credential chain. Providers
// that have nothing to offer return an error wrapping
// common.ErrTryNextProvider. Any other error stops the chain.
type CredentialProvider interface {
	Retrieve(ctx context.Context) (Credentials, error)
}

// CredentialProviderFunc adapts a function to CredentialProvider.
type CredentialProviderFunc func(ctx context.Context) (Credentials, error)

func (f CredentialProviderFunc) Retrieve(ctx context.Context) (Credentials, error) {
	return f(ctx)
}

// StaticCredentialProvider returns the configured key and secret.
// It passes when either is missing or when role-based auth is on.
func StaticCredentialProvider(accessKey, secretKey, sessionToken string, useRole bool) CredentialProvider {
	return CredentialProviderFunc(func(ctx context.Context) (Credentials, error) {
		if accessKey == "" || secretKey == "" || useRole {
			return Credentials{}, fmt.Errorf("%w: no static credentials in config", common.ErrTryNextProvider)
		}
		return Credentials{
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			SessionToken:    sessionToken,
		}, nil
	})
}

// MinioCredentialProvider wraps one of minio's providers, such as
// credentials.IAM (ECS task role or EC2 instance profile) or
// credentials.EnvAWS. Failures and empty results pass to the next
// provider. Remote lookups go through client; a nil client gets one
// that times out after constants.CredentialFetchTimeout.
func MinioCredentialProvider(provider credentials.Provider, client *http.Client) CredentialProvider {
	if client == nil {
		client = &http.Client{Timeout: constants.CredentialFetchTimeout}
	}
	return CredentialProviderFunc(func(ctx context.Context) (Credentials, error) {
		value, err := provider.RetrieveWithCredContext(&credentials.CredContext{Client: client})
		if err != nil {
			return Credentials{}, fmt.Errorf("%w: %v", common.ErrTryNextProvider, err)
		}
		if value.AccessKeyID == "" || value.SecretAccessKey == "" {
			return Credentials{}, fmt.Errorf("%w: provider returned empty credentials", common.ErrTryNextProvider)
		}
		return Credentials{
			AccessKeyID:     value.AccessKeyID,
			SecretAccessKey: value.SecretAccessKey,
			SessionToken:    value.SessionToken,
			Expiration:      value.Expiration,
		}, nil
	})
}

// DefaultCredentialProviders returns the standard chain: static keys
// from config, then the remote identity endpoints, then the AWS
// environment variables.
func DefaultCredentialProviders(config *common.Config) []CredentialProvider {
	return []CredentialProvider{
		StaticCredentialProvider(config.MinioAccessKey, config.MinioSecretKey, config.MinioSession, config.UseAWSRole),
		MinioCredentialProvider(&credentials.IAM{}, nil),
		MinioCredentialProvider(&credentials.EnvAWS{}, nil),
	}
}

// CredentialResolver walks the provider chain and caches the result
// until it gets close to expiring. Concurrent callers that find the
// cache empty or stale share a single trip through the chain.
type CredentialResolver struct {
	providers     []CredentialProvider
	refreshWindow time.Duration
	now           func() time.Time
	group         singleflight.Group
	mu            sync.RWMutex
	cached        *Credentials
}

// NewCredentialResolver returns a resolver that refreshes cached
// credentials once they are within refreshWindow of expiring.
func NewCredentialResolver(refreshWindow time.Duration, providers ...CredentialProvider) *CredentialResolver {
	return &CredentialResolver{
		providers:     providers,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}
}

// SetClock replaces the resolver's time source.
func (r *CredentialResolver) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Resolve returns cached credentials if they are still good, and
// otherwise fetches new ones. This returns common.ErrNoCredentials
// when no provider in the chain had credentials.
func (r *CredentialResolver) Resolve(ctx context.Context) (Credentials, error) {
	if creds, ok := r.fresh(); ok {
		return creds, nil
	}
	value, err, _ := r.group.Do("credentials", func() (interface{}, error) {
		if creds, ok := r.fresh(); ok {
			return creds, nil
		}
		creds, err := r.retrieve(ctx)
		if err != nil {
			return Credentials{}, err
		}
		r.mu.Lock()
		r.cached = &creds
		r.mu.Unlock()
		return creds, nil
	})
	if err != nil {
		return Credentials{}, err
	}
	return value.(Credentials), nil
}

// Invalidate drops the cached credentials. The next call to Resolve
// walks the chain again.
func (r *CredentialResolver) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// NeedsRefresh returns true if creds expire within the refresh window.
func (r *CredentialResolver) NeedsRefresh(creds Credentials) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.needsRefresh(creds)
}

// needsRefresh expects r.mu to be held.
func (r *CredentialResolver) needsRefresh(creds Credentials) bool {
	return creds.CanExpire() && creds.Expiration.Sub(r.now()) < r.refreshWindow
}

func (r *CredentialResolver) fresh() (Credentials, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached == nil || r.needsRefresh(*r.cached) {
		return Credentials{}, false
	}
	return *r.cached, true
}

func (r *CredentialResolver) retrieve(ctx context.Context) (Credentials, error) {
	for _, provider := range r.providers {
		creds, err := provider.Retrieve(ctx)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, common.ErrTryNextProvider) {
			return Credentials{}, err
		}
	}
	return Credentials{}, common.ErrNoCredentials
}

// MinioCredentials returns minio credentials backed by this resolver.
// The minio client asks for new keys only when the last keys it got
// are within the refresh window.
func (r *CredentialResolver) MinioCredentials() *credentials.Credentials {
	return credentials.New(&resolverProvider{resolver: r})
}

// resolverProvider implements minio's credentials.Provider.
type resolverProvider struct {
	resolver  *CredentialResolver
	mu        sync.Mutex
	current   Credentials
	retrieved bool
}

func (p *resolverProvider) Retrieve() (credentials.Value, error) {
	return p.RetrieveWithCredContext(nil)
}

func (p *resolverProvider) RetrieveWithCredContext(_ *credentials.CredContext) (credentials.Value, error) {
	creds, err := p.resolver.Resolve(context.Background())
	if err != nil {
		return credentials.Value{}, err
	}
	p.mu.Lock()
	p.current = creds
	p.retrieved = true
	p.mu.Unlock()
	return credentials.Value{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
		Expiration:      creds.Expiration,
		SignerType:      credentials.SignatureV4,
	}, nil
}

func (p *resolverProvider) IsExpired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.retrieved || p.resolver.NeedsRefresh(p.current)
}
