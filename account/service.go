package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hanlinkhaing/accountd/sequence"
	"github.com/hanlinkhaing/accountd/store"
	"github.com/hanlinkhaing/accountd/storecache"
)

var (
	// ErrUsernameTaken is returned when registering an already-used username.
	ErrUsernameTaken = errors.New("account: username is already taken")

	// ErrInvalidCredentials is returned on a failed credential check.
	ErrInvalidCredentials = errors.New("account: invalid username or password")

	// ErrCustomerNotFound is returned when an operation targets a customer
	// that does not exist.
	ErrCustomerNotFound = errors.New("account: customer not found")
)

// Service implements the customer operations over the store, the sequence
// allocator and the token issuer. Collections are expected to be the cached
// decorators, so any mutation here also keeps the cache coherent.
type Service struct {
	customers store.Collection[Customer]
	configs   store.Collection[Config]
	seq       *sequence.Allocator
	tokens    *TokenIssuer
	now       func() time.Time
}

// NewService wires a Service.
func NewService(customers store.Collection[Customer], configs store.Collection[Config], seq *sequence.Allocator, tokens *TokenIssuer) *Service {
	return &Service{
		customers: customers,
		configs:   configs,
		seq:       seq,
		tokens:    tokens,
		now:       time.Now,
	}
}

// Register creates a new customer. The customer identifier comes from the
// CustomerId sequence; a missing sequence or PriceCredit config row aborts
// the registration rather than producing a half-initialized document.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Customer, error) {
	if err := in.Validate(); err != nil {
		return Customer{}, err
	}

	if _, err := s.customers.FindOne(ctx, store.Where("user", in.TxtUser)); err == nil {
		return Customer{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return Customer{}, fmt.Errorf("account: check username: %w", err)
	}

	doc := RegisterToCustomer(in, s.now())

	hash, err := bcrypt.GenerateFromPassword([]byte(in.TxtPass), bcrypt.DefaultCost)
	if err != nil {
		return Customer{}, fmt.Errorf("account: hash password: %w", err)
	}
	doc.Password = string(hash)
	doc.Str = strconv.Itoa(bcrypt.DefaultCost)

	// The config row is static, so this read is a natural fit for the cache.
	cfg, err := s.configs.FindOne(storecache.Cacheable(ctx), store.Where("config", ConfigPriceCredit))
	if err != nil {
		return Customer{}, fmt.Errorf("account: %q config value not found: %w", ConfigPriceCredit, err)
	}
	doc.Credit = cfg.DescriptionVI

	id, err := s.seq.Next(ctx, EntityCustomerID)
	if err != nil {
		return Customer{}, fmt.Errorf("account: allocate customer id: %w", err)
	}
	doc.CustomerID = id

	created, err := s.customers.Insert(ctx, doc)
	if errors.Is(err, store.ErrDuplicateKey) {
		// The unique index on user caught a concurrent registration that
		// slipped past the check above.
		return Customer{}, ErrUsernameTaken
	}
	if err != nil {
		return Customer{}, fmt.Errorf("account: create customer: %w", err)
	}
	return created, nil
}

// Login checks the credentials and, on success, issues an access and a
// refresh token, bumps the login counter and persists the new access token.
func (s *Service) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	if err := in.Validate(); err != nil {
		return TokenPair{}, err
	}

	customer, err := s.customers.FindOne(ctx, store.Where("user", in.Username))
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("account: load customer: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte(in.Password)) != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	customer.LoginCount++
	auth := CustomerToAuth(customer)

	access, err := s.tokens.AccessToken(auth)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.RefreshToken(auth)
	if err != nil {
		return TokenPair{}, err
	}

	_, err = s.customers.UpdateOne(ctx, store.Where("user", in.Username), map[string]any{
		"login_count": customer.LoginCount,
		"last_login":  s.now(),
		"token_login": access,
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("account: record login: %w", err)
	}

	return TokenPair{Token: access, RefreshToken: refresh}, nil
}

// RefreshToken issues a fresh access token for a customer already holding a
// valid refresh token, and persists it as the current login token.
func (s *Service) RefreshToken(ctx context.Context, username string) (string, error) {
	customer, err := s.customers.FindOne(ctx, store.Where("user", username))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrCustomerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("account: load customer: %w", err)
	}

	access, err := s.tokens.AccessToken(CustomerToAuth(customer))
	if err != nil {
		return "", err
	}

	if _, err := s.customers.UpdateOne(ctx, store.Where("user", username), map[string]any{
		"token_login": access,
	}); err != nil {
		return "", fmt.Errorf("account: record token: %w", err)
	}
	return access, nil
}

// Exists reports whether a customer with the given username exists.
func (s *Service) Exists(ctx context.Context, in CheckInput) (bool, error) {
	if err := in.Validate(); err != nil {
		return false, err
	}

	_, err := s.customers.FindOne(ctx, store.Where("user", in.Username))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("account: check customer: %w", err)
	}
	return true, nil
}

// UpdateProfile applies the update payload to the customer's document and
// returns the post-update state. The caller is responsible for checking that
// the authenticated principal owns the target username.
func (s *Service) UpdateProfile(ctx context.Context, in UpdateInput) (Customer, error) {
	if err := in.Validate(); err != nil {
		return Customer{}, err
	}

	updated, err := s.customers.UpdateOne(ctx, store.Where("user", in.TxtUser), UpdateToPatch(in))
	if errors.Is(err, store.ErrNotFound) {
		return Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("account: update customer: %w", err)
	}
	return updated, nil
}

// Authenticate runs only the credential check and returns the auth
// projection. Used by callers that need the principal without issuing
// tokens.
func (s *Service) Authenticate(ctx context.Context, username, password string) (AuthCustomer, error) {
	customer, err := s.customers.FindOne(ctx, store.Where("user", username))
	if errors.Is(err, store.ErrNotFound) {
		return AuthCustomer{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthCustomer{}, fmt.Errorf("account: load customer: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte(password)) != nil {
		return AuthCustomer{}, ErrInvalidCredentials
	}
	return CustomerToAuth(customer), nil
}
