package network_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/APTrust/storage-gateway/constants"
	"github.com/APTrust/storage-gateway/models/common"
	"github.com/APTrust/storage-gateway/network"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider hands out credentials that expire after ttl,
// counting how many times it was asked.
type countingProvider struct {
	calls int32
	ttl   time.Duration
	now   func() time.Time
}

func (p *countingProvider) Retrieve(ctx context.Context) (network.Credentials, error) {
	n := atomic.AddInt32(&p.calls, 1)
	creds := network.Credentials{
		AccessKeyID:     fmt.Sprintf("key-%d", n),
		SecretAccessKey: "secret",
	}
	if p.ttl > 0 {
		creds.Expiration = p.now().Add(p.ttl)
	}
	return creds, nil
}

func (p *countingProvider) Calls() int {
	return int(atomic.LoadInt32(&p.calls))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func passProvider() network.CredentialProvider {
	return network.CredentialProviderFunc(func(ctx context.Context) (network.Credentials, error) {
		return network.Credentials{}, fmt.Errorf("%w: nothing here", common.ErrTryNextProvider)
	})
}

func TestStaticCredentialProvider(t *testing.T) {
	ctx := context.Background()
	creds, err := network.StaticCredentialProvider("ak", "sk", "tok", false).Retrieve(ctx)
	require.Nil(t, err)
	assert.Equal(t, "ak", creds.AccessKeyID)
	assert.Equal(t, "sk", creds.SecretAccessKey)
	assert.Equal(t, "tok", creds.SessionToken)
	assert.False(t, creds.CanExpire())

	_, err = network.StaticCredentialProvider("", "sk", "", false).Retrieve(ctx)
	assert.True(t, errors.Is(err, common.ErrTryNextProvider))
	_, err = network.StaticCredentialProvider("ak", "", "", false).Retrieve(ctx)
	assert.True(t, errors.Is(err, common.ErrTryNextProvider))
	_, err = network.StaticCredentialProvider("ak", "sk", "", true).Retrieve(ctx)
	assert.True(t, errors.Is(err, common.ErrTryNextProvider))
}

func TestResolverMemoizesStaticCredentials(t *testing.T) {
	provider := &countingProvider{now: time.Now}
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow, provider)
	for i := 0; i < 5; i++ {
		creds, err := resolver.Resolve(context.Background())
		require.Nil(t, err)
		assert.Equal(t, "key-1", creds.AccessKeyID)
	}
	assert.Equal(t, 1, provider.Calls())
}

func TestResolverRefreshesNearExpiration(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 16, 8, 0, 0, 0, time.UTC)}
	provider := &countingProvider{ttl: time.Hour, now: clock.Now}
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow, provider)
	resolver.SetClock(clock.Now)
	ctx := context.Background()

	creds, err := resolver.Resolve(ctx)
	require.Nil(t, err)
	assert.Equal(t, "key-1", creds.AccessKeyID)

	// 10 minutes left: still good.
	clock.Advance(50 * time.Minute)
	creds, err = resolver.Resolve(ctx)
	require.Nil(t, err)
	assert.Equal(t, "key-1", creds.AccessKeyID)
	assert.False(t, resolver.NeedsRefresh(creds))

	// 4 minutes left: inside the window.
	clock.Advance(6 * time.Minute)
	assert.True(t, resolver.NeedsRefresh(creds))
	creds, err = resolver.Resolve(ctx)
	require.Nil(t, err)
	assert.Equal(t, "key-2", creds.AccessKeyID)
	assert.Equal(t, 2, provider.Calls())
}

func TestResolverConcurrentRefresh(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	provider := network.CredentialProviderFunc(func(ctx context.Context) (network.Credentials, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return network.Credentials{AccessKeyID: "shared", SecretAccessKey: "secret"}, nil
	})
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow, provider)

	const callers = 20
	var started, done sync.WaitGroup
	results := make([]network.Credentials, callers)
	errs := make([]error, callers)
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = resolver.Resolve(context.Background())
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < callers; i++ {
		require.Nil(t, errs[i])
		assert.Equal(t, "shared", results[i].AccessKeyID)
	}
}

func TestResolverChain(t *testing.T) {
	ctx := context.Background()
	second := &countingProvider{now: time.Now}
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow, passProvider(), second)
	creds, err := resolver.Resolve(ctx)
	require.Nil(t, err)
	assert.Equal(t, "key-1", creds.AccessKeyID)

	// A hard failure stops the chain.
	boom := errors.New("identity endpoint rejected us")
	failing := network.CredentialProviderFunc(func(ctx context.Context) (network.Credentials, error) {
		return network.Credentials{}, boom
	})
	third := &countingProvider{now: time.Now}
	resolver = network.NewCredentialResolver(constants.CredentialRefreshWindow, failing, third)
	_, err = resolver.Resolve(ctx)
	assert.Equal(t, boom, err)
	assert.Equal(t, 0, third.Calls())

	// Nobody has anything.
	resolver = network.NewCredentialResolver(constants.CredentialRefreshWindow, passProvider(), passProvider())
	_, err = resolver.Resolve(ctx)
	assert.Equal(t, common.ErrNoCredentials, err)
	assert.Equal(t, "Could not load credentials from any providers", err.Error())
}

func TestResolverInvalidate(t *testing.T) {
	provider := &countingProvider{now: time.Now}
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow, provider)
	ctx := context.Background()
	_, err := resolver.Resolve(ctx)
	require.Nil(t, err)
	resolver.Invalidate()
	creds, err := resolver.Resolve(ctx)
	require.Nil(t, err)
	assert.Equal(t, "key-2", creds.AccessKeyID)
}

func TestMinioCredentials(t *testing.T) {
	provider := &countingProvider{now: time.Now}
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow, provider)
	minioCreds := resolver.MinioCredentials()
	value, err := minioCreds.Get()
	require.Nil(t, err)
	assert.Equal(t, "key-1", value.AccessKeyID)
	value, err = minioCreds.Get()
	require.Nil(t, err)
	assert.Equal(t, "key-1", value.AccessKeyID)
	assert.Equal(t, 1, provider.Calls())
}

// endpointProvider is a minio provider that fetches keys from url
// with the client minio hands it.
type endpointProvider struct {
	url string
}

func (p *endpointProvider) Retrieve() (credentials.Value, error) {
	return p.RetrieveWithCredContext(&credentials.CredContext{Client: http.DefaultClient})
}

func (p *endpointProvider) RetrieveWithCredContext(cc *credentials.CredContext) (credentials.Value, error) {
	resp, err := cc.Client.Get(p.url)
	if err != nil {
		return credentials.Value{}, err
	}
	resp.Body.Close()
	return credentials.Value{AccessKeyID: "remote", SecretAccessKey: "secret"}, nil
}

func (p *endpointProvider) IsExpired() bool {
	return true
}

func TestMinioCredentialProviderTimeout(t *testing.T) {
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(done)

	client := &http.Client{Timeout: 100 * time.Millisecond}
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow,
		network.MinioCredentialProvider(&endpointProvider{url: server.URL}, client),
		network.StaticCredentialProvider("ak", "sk", "", false))

	start := time.Now()
	creds, err := resolver.Resolve(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "ak", creds.AccessKeyID)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestMinioCredentialProviderDefaultClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()
	creds, err := network.MinioCredentialProvider(&endpointProvider{url: server.URL}, nil).Retrieve(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "remote", creds.AccessKeyID)
}

func TestResolverSetClockWhileResolving(t *testing.T) {
	provider := &countingProvider{ttl: time.Hour, now: time.Now}
	resolver := network.NewCredentialResolver(constants.CredentialRefreshWindow, provider)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := resolver.Resolve(context.Background())
			assert.Nil(t, err)
		}()
		go func() {
			defer wg.Done()
			resolver.SetClock(time.Now)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, provider.Calls())
}
