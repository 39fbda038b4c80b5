package di_test

import (
	"context"
	"testing"

	"github.com/hanlinkhaing/accountd/account"
	"github.com/hanlinkhaing/accountd/cache"
	"github.com/hanlinkhaing/accountd/pkg/di"
	"github.com/hanlinkhaing/accountd/pkg/testsupport"
	"github.com/hanlinkhaing/accountd/sequence"
	"github.com/hanlinkhaing/accountd/store"
	"github.com/hanlinkhaing/accountd/store/memory"
	"github.com/hanlinkhaing/accountd/storecache"
)

func TestNewContainerWithDefaults(t *testing.T) {
	c, err := di.NewContainerWithDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if c.QueryCache() == nil {
		t.Fatal("no cache backend built")
	}
	if c.KeySerializer() == nil {
		t.Fatal("no key serializer built")
	}
	if c.Config() != cache.DefaultConfig() {
		t.Fatalf("config %+v, want defaults", c.Config())
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	_, err := di.NewContainer(di.Options{Config: cache.Config{Capacity: -1}})
	if err == nil {
		t.Fatal("expected a config error")
	}
}

func TestNewContainer_CustomBackendShared(t *testing.T) {
	backend := testsupport.NewRecordingCache()
	c, err := di.NewContainer(di.Options{QueryCache: backend})
	if err != nil {
		t.Fatal(err)
	}
	if c.QueryCache() != cache.QueryCache(backend) {
		t.Fatal("container swapped out the provided backend")
	}

	// Collections built from the container must hit the shared backend.
	s := memory.NewStore()
	base := memory.Collection[account.Customer](s, account.CustomersCollection)
	cached := di.NewCachedCollection(c, base)

	if _, err := base.Insert(context.Background(), testsupport.NewCustomer(1, "ana")); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.FindOne(storecache.Cacheable(context.Background()), store.Where("user", "ana")); err != nil {
		t.Fatal(err)
	}
	if backend.Sets != 1 {
		t.Fatalf("cached read did not reach the shared backend, sets=%d", backend.Sets)
	}
}

func TestNewAccountService(t *testing.T) {
	c, err := di.NewContainerWithDefaults()
	if err != nil {
		t.Fatal(err)
	}

	s := memory.NewStore()
	customers := memory.Collection[account.Customer](s, account.CustomersCollection)
	configs := memory.Collection[account.Config](s, account.ConfigsCollection)
	sequences := memory.NewSequences()

	ctx := context.Background()
	if err := sequence.NewAllocator(sequences).Seed(ctx, account.EntityCustomerID); err != nil {
		t.Fatal(err)
	}
	if err := account.SeedConfigs(ctx, configs); err != nil {
		t.Fatal(err)
	}

	tokens, err := account.NewTokenIssuer(account.TokenOptions{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	if err != nil {
		t.Fatal(err)
	}

	svc := di.NewAccountService(c, customers, configs, sequences, tokens)

	created, err := svc.Register(ctx, testsupport.NewRegisterInput("newuser"))
	if err != nil {
		t.Fatal(err)
	}
	if created.CustomerID != 1 || created.Credit != "100" {
		t.Fatalf("customer %+v", created)
	}
}
