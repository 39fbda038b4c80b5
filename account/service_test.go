package account_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hanlinkhaing/accountd/account"
	"github.com/hanlinkhaing/accountd/cache"
	"github.com/hanlinkhaing/accountd/pkg/testsupport"
	"github.com/hanlinkhaing/accountd/sequence"
	"github.com/hanlinkhaing/accountd/store"
	"github.com/hanlinkhaing/accountd/store/memory"
	"github.com/hanlinkhaing/accountd/storecache"
)

// env wires a service over the in-process store with the recording cache
// backend, mirroring the production assembly. The raw collections stay
// reachable so tests can inspect persisted state directly.
type env struct {
	svc       *account.Service
	tokens    *account.TokenIssuer
	customers store.Collection[account.Customer]
	configs   store.Collection[account.Config]
	backend   *testsupport.RecordingCache
	alloc     *sequence.Allocator
}

func newEnv(t *testing.T, seeded bool) *env {
	t.Helper()

	s := memory.NewStore()
	customers := memory.Collection[account.Customer](s, account.CustomersCollection)
	configs := memory.Collection[account.Config](s, account.ConfigsCollection)

	backend := testsupport.NewRecordingCache()
	keys := cache.NewDefaultKeySerializer()

	alloc := sequence.NewAllocator(memory.NewSequences())
	tokens, err := account.NewTokenIssuer(account.TokenOptions{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	if err != nil {
		t.Fatal(err)
	}

	if seeded {
		ctx := context.Background()
		if err := alloc.Seed(ctx, account.EntityCustomerID); err != nil {
			t.Fatal(err)
		}
		if err := account.SeedConfigs(ctx, configs); err != nil {
			t.Fatal(err)
		}
	}

	svc := account.NewService(
		storecache.New[account.Customer](customers, backend, keys),
		storecache.New[account.Config](configs, backend, keys),
		alloc,
		tokens,
	)
	return &env{svc: svc, tokens: tokens, customers: customers, configs: configs, backend: backend, alloc: alloc}
}

func (e *env) register(t *testing.T, username string) account.Customer {
	t.Helper()
	created, err := e.svc.Register(context.Background(), testsupport.NewRegisterInput(username))
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func TestRegister(t *testing.T) {
	e := newEnv(t, true)

	created := e.register(t, "newuser")

	if created.CustomerID != 1 {
		t.Fatalf("first customer id %d, want 1", created.CustomerID)
	}
	if created.ID == "" {
		t.Fatal("expected a document identifier")
	}
	if created.Credit != "100" {
		t.Fatalf("starting credit %q, want the PriceCredit value", created.Credit)
	}
	if created.Email != "newuser" {
		t.Fatalf("email %q", created.Email)
	}
	if created.CreatedOnMobiDesktop != "MOBI" {
		t.Fatalf("channel %q", created.CreatedOnMobiDesktop)
	}

	// The password must be stored as a bcrypt hash, never raw.
	if created.Password == "hunter22" || !strings.HasPrefix(created.Password, "$2") {
		t.Fatalf("password not hashed: %q", created.Password)
	}
	if bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("hunter22")) != nil {
		t.Fatal("stored hash does not verify the original password")
	}
	if created.Str != "10" {
		t.Fatalf("cost marker %q", created.Str)
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	_, err := e.svc.Register(context.Background(), testsupport.NewRegisterInput("newuser"))
	if !errors.Is(err, account.ErrUsernameTaken) {
		t.Fatalf("got %v, want ErrUsernameTaken", err)
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	e := newEnv(t, true)

	in := testsupport.NewRegisterInput("newuser")
	in.TxtPassRepeat = "different"

	_, err := e.svc.Register(context.Background(), in)
	var verr validation.Errors
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want validation.Errors", err)
	}
}

func TestRegister_UnseededSequenceAborts(t *testing.T) {
	e := newEnv(t, false)
	if err := account.SeedConfigs(context.Background(), e.configs); err != nil {
		t.Fatal(err)
	}

	_, err := e.svc.Register(context.Background(), testsupport.NewRegisterInput("newuser"))
	if !errors.Is(err, sequence.ErrSequenceNotFound) {
		t.Fatalf("got %v, want ErrSequenceNotFound", err)
	}

	// Nothing half-initialized may be left behind.
	if _, err := e.customers.FindOne(context.Background(), store.Where("user", "newuser")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("partial document persisted: %v", err)
	}
}

func TestRegister_MissingConfigAborts(t *testing.T) {
	e := newEnv(t, false)
	if err := e.alloc.Seed(context.Background(), account.EntityCustomerID); err != nil {
		t.Fatal(err)
	}

	_, err := e.svc.Register(context.Background(), testsupport.NewRegisterInput("newuser"))
	if err == nil {
		t.Fatal("expected registration to abort without the PriceCredit row")
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want a wrapped store.ErrNotFound", err)
	}
}

// duplicateKeyCollection simulates the unique index on user rejecting an
// insert that raced past the username check.
type duplicateKeyCollection struct {
	store.Collection[account.Customer]
}

func (duplicateKeyCollection) Insert(context.Context, account.Customer) (account.Customer, error) {
	return account.Customer{}, store.ErrDuplicateKey
}

func TestRegister_DuplicateKeyMapsToUsernameTaken(t *testing.T) {
	e := newEnv(t, true)

	svc := account.NewService(
		duplicateKeyCollection{e.customers},
		e.configs,
		e.alloc,
		e.tokens,
	)

	_, err := svc.Register(context.Background(), testsupport.NewRegisterInput("newuser"))
	if !errors.Is(err, account.ErrUsernameTaken) {
		t.Fatalf("got %v, want ErrUsernameTaken", err)
	}
}

func TestRegister_ConcurrentIDsDense(t *testing.T) {
	e := newEnv(t, true)

	const users = 3
	created := make([]account.Customer, users)
	errs := make([]error, users)

	var wg sync.WaitGroup
	wg.Add(users)
	for i := 0; i < users; i++ {
		go func(i int) {
			defer wg.Done()
			in := testsupport.NewRegisterInput("user" + string(rune('a'+i)))
			created[i], errs[i] = e.svc.Register(context.Background(), in)
		}(i)
	}
	wg.Wait()

	seen := map[int64]bool{}
	for i := 0; i < users; i++ {
		if errs[i] != nil {
			t.Fatalf("register %d: %v", i, errs[i])
		}
		seen[created[i].CustomerID] = true
	}
	for want := int64(1); want <= users; want++ {
		if !seen[want] {
			t.Fatalf("identifiers not dense, missing %d: %v", want, seen)
		}
	}
}

func TestRegister_CachesConfigRead(t *testing.T) {
	e := newEnv(t, true)

	e.register(t, "usera")
	if e.backend.Len(account.ConfigsCollection) != 1 {
		t.Fatal("PriceCredit read not cached")
	}

	// The second registration must serve the config from the cache.
	hitsBefore := e.backend.Hits
	e.register(t, "userb")
	if e.backend.Hits != hitsBefore+1 {
		t.Fatalf("expected a cache hit, hits %d -> %d", hitsBefore, e.backend.Hits)
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	pair, err := e.svc.Login(context.Background(), account.LoginInput{
		Username: "newuser",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatal(err)
	}
	if pair.Token == "" || pair.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}

	auth, err := e.tokens.ParseAccess(pair.Token)
	if err != nil {
		t.Fatal(err)
	}
	if auth.Username != "newuser" || auth.ID != 1 {
		t.Fatalf("claims %+v", auth)
	}
	if auth.LoginCount != 1 {
		t.Fatalf("claims carry login count %d, want 1", auth.LoginCount)
	}
	if _, err := e.tokens.ParseRefresh(pair.RefreshToken); err != nil {
		t.Fatal(err)
	}

	// The login must be recorded on the document.
	stored, err := e.customers.FindOne(context.Background(), store.Where("user", "newuser"))
	if err != nil {
		t.Fatal(err)
	}
	if stored.LoginCount != 1 {
		t.Fatalf("persisted login count %d, want 1", stored.LoginCount)
	}
	if stored.TokenLogin != pair.Token {
		t.Fatal("access token not persisted as the login token")
	}
	if stored.LastLogin.IsZero() {
		t.Fatal("last login not recorded")
	}
}

func TestLogin_CountAccumulates(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	for i := 0; i < 3; i++ {
		if _, err := e.svc.Login(context.Background(), account.LoginInput{Username: "newuser", Password: "hunter22"}); err != nil {
			t.Fatal(err)
		}
	}

	stored, err := e.customers.FindOne(context.Background(), store.Where("user", "newuser"))
	if err != nil {
		t.Fatal(err)
	}
	if stored.LoginCount != 3 {
		t.Fatalf("login count %d, want 3", stored.LoginCount)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	cases := []struct {
		name string
		in   account.LoginInput
	}{
		{"wrong password", account.LoginInput{Username: "newuser", Password: "wrong"}},
		{"unknown user", account.LoginInput{Username: "nobody", Password: "hunter22"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.svc.Login(context.Background(), tc.in); !errors.Is(err, account.ErrInvalidCredentials) {
				t.Fatalf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	access, err := e.svc.RefreshToken(context.Background(), "newuser")
	if err != nil {
		t.Fatal(err)
	}
	auth, err := e.tokens.ParseAccess(access)
	if err != nil {
		t.Fatal(err)
	}
	if auth.Username != "newuser" {
		t.Fatalf("claims %+v", auth)
	}

	stored, err := e.customers.FindOne(context.Background(), store.Where("user", "newuser"))
	if err != nil {
		t.Fatal(err)
	}
	if stored.TokenLogin != access {
		t.Fatal("refreshed token not persisted")
	}
}

func TestRefreshToken_UnknownUser(t *testing.T) {
	e := newEnv(t, true)

	if _, err := e.svc.RefreshToken(context.Background(), "nobody"); !errors.Is(err, account.ErrCustomerNotFound) {
		t.Fatalf("got %v, want ErrCustomerNotFound", err)
	}
}

func TestExists(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	exists, err := e.svc.Exists(context.Background(), account.CheckInput{Username: "newuser"})
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("registered user reported missing")
	}

	exists, err = e.svc.Exists(context.Background(), account.CheckInput{Username: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("unknown user reported existing")
	}
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	updated, err := e.svc.UpdateProfile(context.Background(), account.UpdateInput{
		TxtUser:   "newuser",
		TxtName:   "Renamed01",
		TxtPhone:  "11223344",
		TxtPhone2: "+99887766",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Fullname != "Renamed01" {
		t.Fatalf("fullname %q", updated.Fullname)
	}
	if updated.Phone != "11223344;+99887766" {
		t.Fatalf("phone %q", updated.Phone)
	}

	stored, err := e.customers.FindOne(context.Background(), store.Where("user", "newuser"))
	if err != nil {
		t.Fatal(err)
	}
	if stored.Fullname != "Renamed01" {
		t.Fatalf("persisted fullname %q", stored.Fullname)
	}
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	e := newEnv(t, true)

	_, err := e.svc.UpdateProfile(context.Background(), account.UpdateInput{
		TxtUser:  "nobody",
		TxtName:  "Renamed01",
		TxtPhone: "11223344",
	})
	if !errors.Is(err, account.ErrCustomerNotFound) {
		t.Fatalf("got %v, want ErrCustomerNotFound", err)
	}
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t, true)
	e.register(t, "newuser")

	auth, err := e.svc.Authenticate(context.Background(), "newuser", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if auth.Username != "newuser" || auth.ID != 1 {
		t.Fatalf("claims %+v", auth)
	}

	if _, err := e.svc.Authenticate(context.Background(), "newuser", "wrong"); !errors.Is(err, account.ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestSeedConfigs_Idempotent(t *testing.T) {
	e := newEnv(t, true)
	ctx := context.Background()

	// Mutate the row, re-seed, and make sure the change survives.
	if _, err := e.configs.UpdateOne(ctx, store.Where("config", account.ConfigPriceCredit), map[string]any{
		"description_VI": "250",
	}); err != nil {
		t.Fatal(err)
	}
	if err := account.SeedConfigs(ctx, e.configs); err != nil {
		t.Fatal(err)
	}

	row, err := e.configs.FindOne(ctx, store.Where("config", account.ConfigPriceCredit))
	if err != nil {
		t.Fatal(err)
	}
	if row.DescriptionVI != "250" {
		t.Fatalf("re-seed overwrote the row: %+v", row)
	}
}
