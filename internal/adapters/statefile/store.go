package statefile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/padelwatch/padelwatch/internal/domain"
)

const stateFileName = "slot_state.json"

// Store persiste le dernier état connu des créneaux dans un fichier JSON
// plat ({"11H00|2025-01-06": {"Padel 1": "libre"}}). C'est le format de
// référence: les fichiers écrits par les anciennes versions doivent rester
// lisibles.
type Store struct {
	path   string
	logger zerolog.Logger

	// writeFile est remplaçable en test pour simuler un disque plein.
	writeFile writeFileFunc
}

func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{
		path:      filepath.Join(dir, stateFileName),
		logger:    logger,
		writeFile: os.WriteFile,
	}
}

func (s *Store) Path() string { return s.path }

// Load lit le fichier d'état. Fichier absent: créé vide, état vide renvoyé.
// Fichier corrompu: warning et état vide — l'absence d'historique valide est
// une condition normale de démarrage, jamais une erreur fatale. Si le
// primaire est inutilisable mais qu'un .backup sain existe (save interrompu
// par un crash), le backup est promu: un état sauvegardé n'est jamais perdu
// en silence.
func (s *Store) Load(ctx context.Context) (domain.PersistedState, error) {
	if state, ok := s.loadFrom(s.path); ok {
		return state, nil
	}

	backup := s.path + backupSuffix
	if state, ok := s.loadFrom(backup); ok {
		s.logger.Warn().Str("file", s.path).Msg("state file missing or corrupt, recovering from backup")
		if err := os.Rename(backup, s.path); err != nil {
			s.logger.Warn().Err(err).Str("file", backup).Msg("could not promote state backup")
		}
		return state, nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if werr := s.writeFile(s.path, []byte("{}\n"), filePerm); werr != nil {
			s.logger.Warn().Err(werr).Str("file", s.path).Msg("could not create empty state file")
		}
	} else {
		s.logger.Warn().Str("file", s.path).Msg("state file unreadable or corrupt, starting from empty state")
	}
	return domain.PersistedState{}, nil
}

// Save écrit l'état complet avec la discipline backup-before-write. En cas
// d'échec le fichier primaire retrouve son contenu d'avant l'appel.
func (s *Store) Save(ctx context.Context, state domain.PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeWithBackup(s.path, data, s.writeFile)
}

func (s *Store) loadFrom(path string) (domain.PersistedState, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	// Un fichier vide est un mapping vide valide.
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.PersistedState{}, true
	}
	var state domain.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, false
	}
	return state, true
}
