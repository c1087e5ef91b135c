package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/brplates/controller/internal/model"
	"github.com/brplates/controller/internal/platform"
)

// ErrUnauthorized is returned for every authorization failure. Whether
// the key was unknown, inactive, or out of budget is deliberately not
// distinguishable by the caller.
var ErrUnauthorized = errors.New("invalid API key")

// ErrKeyLimitReached is returned when the provisioning cap is hit.
var ErrKeyLimitReached = errors.New("maximum number of API keys reached")

// ErrKeyNotFound is returned when no record exists for the given ID.
var ErrKeyNotFound = errors.New("api key not found")

// KeyStore is the persistence contract the API key service relies on.
// ConsumeBudget must check the call limit and increment the counter as a
// single atomic unit per key. Insert enforces the provisioning cap
// (maxKeys <= 0 means unbounded) and returns ErrKeyLimitReached when it
// is hit; GetByID returns ErrKeyNotFound for unknown IDs.
type KeyStore interface {
	Insert(ctx context.Context, key *model.APIKey, maxKeys int) error
	ListActive(ctx context.Context) ([]model.APIKey, error)
	ConsumeBudget(ctx context.Context, id string) (*model.APIKey, error)
	GetByID(ctx context.Context, id string) (*model.APIKey, error)
	List(ctx context.Context, limit int, cursor string) ([]model.APIKey, bool, error)
	Deactivate(ctx context.Context, id string) error
}

// APIKeyService provisions API keys and authorizes pipeline invocations
// against them.
type APIKeyService struct {
	store            KeyStore
	secretLength     int
	defaultCallLimit int
	maxKeys          int
	hashCost         int
}

func NewAPIKeyService(store KeyStore, secretLength, defaultCallLimit, maxKeys int) *APIKeyService {
	return &APIKeyService{
		store:            store,
		secretLength:     secretLength,
		defaultCallLimit: defaultCallLimit,
		maxKeys:          maxKeys,
		hashCost:         bcrypt.DefaultCost,
	}
}

// Create generates a new API key, stores the bcrypt hash, and returns the
// model along with the raw secret. The raw secret must be shown to the
// user exactly once; it is not recoverable afterwards. The provisioning
// cap is checked by the store as part of the insert, not as a separate
// read-then-write.
func (s *APIKeyService) Create(ctx context.Context, description string, callLimit *int) (*model.APIKey, string, error) {
	rawBytes := make([]byte, s.secretLength)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "brp_" + base64.RawURLEncoding.EncodeToString(rawBytes)

	// bcrypt rejects inputs longer than 72 bytes.
	hashInput := rawKey
	if len(hashInput) > 72 {
		hashInput = hashInput[:72]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hashInput), s.hashCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash api key: %w", err)
	}

	limit := s.defaultCallLimit
	if callLimit != nil {
		limit = *callLimit
	}

	key := &model.APIKey{
		ID:          platform.NewID(),
		KeyHash:     string(hash),
		Description: description,
		CallLimit:   limit,
	}
	if err := s.store.Insert(ctx, key, s.maxKeys); err != nil {
		return nil, "", err
	}

	return key, rawKey, nil
}

// Authorize validates a presented secret and spends one unit of the
// matching key's call budget. It scans the active records and verifies
// the secret against each stored hash with bcrypt's constant-time-safe
// comparison. Success requires a matching active record with budget
// remaining; the budget check and increment happen atomically in the
// store. Failures have no side effect.
func (s *APIKeyService) Authorize(ctx context.Context, presentedSecret string) (*model.APIKey, error) {
	if presentedSecret == "" {
		return nil, ErrUnauthorized
	}

	verifyInput := presentedSecret
	if len(verifyInput) > 72 {
		verifyInput = verifyInput[:72]
	}

	active, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	for _, candidate := range active {
		if bcrypt.CompareHashAndPassword([]byte(candidate.KeyHash), []byte(verifyInput)) != nil {
			continue
		}
		key, err := s.store.ConsumeBudget(ctx, candidate.ID)
		if err != nil {
			return nil, err
		}
		if key == nil {
			// Deactivated or exhausted since the scan.
			return nil, ErrUnauthorized
		}
		return key, nil
	}

	return nil, ErrUnauthorized
}

func (s *APIKeyService) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	return s.store.GetByID(ctx, id)
}

func (s *APIKeyService) List(ctx context.Context, limit int, cursor string) ([]model.APIKey, bool, error) {
	return s.store.List(ctx, limit, cursor)
}

func (s *APIKeyService) Deactivate(ctx context.Context, id string) error {
	return s.store.Deactivate(ctx, id)
}
