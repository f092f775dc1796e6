// Package redisstore est le backend de persistance alternatif pour les
// déploiements qui ont déjà un Redis sous la main. Les contrats sont les
// mêmes que pour le backend fichier: Load dégrade tout problème en état
// vide, Save écrit toujours le document complet. SET étant atomique, la
// discipline de backup du backend fichier n'a pas d'équivalent ici: le
// dernier document complet gagne toujours.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/padelwatch/padelwatch/internal/domain"
)

const (
	stateKey = "padelwatch:state"
	datesKey = "padelwatch:dates"
)

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Store garde l'état des créneaux sous une seule clé, dans le même document
// JSON que le fichier slot_state.json.
type Store struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewStore(client *redis.Client, logger zerolog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func (s *Store) Load(ctx context.Context) (domain.PersistedState, error) {
	val, err := s.client.Get(ctx, stateKey).Result()
	if err == redis.Nil {
		return domain.PersistedState{}, nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("redis state unavailable, starting from empty state")
		return domain.PersistedState{}, nil
	}

	var state domain.PersistedState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		s.logger.Warn().Err(err).Msg("redis state corrupt, starting from empty state")
		return domain.PersistedState{}, nil
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, state domain.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.client.Set(ctx, stateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", stateKey, err)
	}
	return nil
}

// DateRegistry range les dates connues dans un set Redis; SAdd renvoie le
// nombre de membres réellement ajoutés, ce qui donne l'idempotence gratuite.
type DateRegistry struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewDateRegistry(client *redis.Client, logger zerolog.Logger) *DateRegistry {
	return &DateRegistry{client: client, logger: logger}
}

func (r *DateRegistry) Load(ctx context.Context) (domain.DateSet, error) {
	members, err := r.client.SMembers(ctx, datesKey).Result()
	if err != nil {
		r.logger.Warn().Err(err).Msg("redis dates unavailable, starting from empty set")
		return domain.DateSet{}, nil
	}
	known := make(domain.DateSet, len(members))
	for _, d := range members {
		known[d] = struct{}{}
	}
	return known, nil
}

func (r *DateRegistry) Register(ctx context.Context, dates []string) ([]string, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	known, err := r.Load(ctx)
	if err != nil {
		known = domain.DateSet{}
	}

	var added []string
	args := make([]interface{}, 0, len(dates))
	for _, d := range dates {
		if known.Contains(d) {
			continue
		}
		added = append(added, d)
		args = append(args, d)
	}
	if len(added) == 0 {
		return nil, nil
	}
	sort.Strings(added)

	if err := r.client.SAdd(ctx, datesKey, args...).Err(); err != nil {
		return added, fmt.Errorf("redis sadd %s: %w", datesKey, err)
	}
	return added, nil
}
