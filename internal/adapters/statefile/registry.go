package statefile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/padelwatch/padelwatch/internal/domain"
)

const datesFileName = "known_dates.json"

// DateRegistry mémorise les dates de planning déjà vues. Le fichier groupe
// par mois ({"2025-01": ["2025-01-06", ...]}, trié par mois) mais l'entité
// logique est un ensemble plat: jamais de doublon entre les mois. Il n'y a
// pas d'élagage, l'ensemble ne fait que croître.
type DateRegistry struct {
	path   string
	logger zerolog.Logger

	writeFile writeFileFunc
}

func NewDateRegistry(dir string, logger zerolog.Logger) *DateRegistry {
	return &DateRegistry{
		path:      filepath.Join(dir, datesFileName),
		logger:    logger,
		writeFile: os.WriteFile,
	}
}

func (r *DateRegistry) Path() string { return r.path }

// Load applique la même tolérance que le store d'état: absent ⇒ créé vide,
// corrompu ⇒ warning et ensemble vide, backup sain ⇒ promu.
func (r *DateRegistry) Load(ctx context.Context) (domain.DateSet, error) {
	if known, ok := r.loadFrom(r.path); ok {
		return known, nil
	}

	backup := r.path + backupSuffix
	if known, ok := r.loadFrom(backup); ok {
		r.logger.Warn().Str("file", r.path).Msg("known dates file missing or corrupt, recovering from backup")
		if err := os.Rename(backup, r.path); err != nil {
			r.logger.Warn().Err(err).Str("file", backup).Msg("could not promote dates backup")
		}
		return known, nil
	}

	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		if werr := r.writeFile(r.path, []byte("{}\n"), filePerm); werr != nil {
			r.logger.Warn().Err(werr).Str("file", r.path).Msg("could not create empty dates file")
		}
	} else {
		r.logger.Warn().Str("file", r.path).Msg("known dates file unreadable or corrupt, starting from empty set")
	}
	return domain.DateSet{}, nil
}

// Register fusionne les dates données et renvoie celles qui n'étaient pas
// encore connues, triées. Rien de neuf ⇒ aucune réécriture du fichier. Si la
// persistance échoue, les dates nouvellement vues sont quand même renvoyées
// avec l'erreur: elles seront re-détectées au prochain cycle.
func (r *DateRegistry) Register(ctx context.Context, dates []string) ([]string, error) {
	for _, d := range dates {
		if _, err := time.Parse(domain.DateLayout, d); err != nil {
			return nil, fmt.Errorf("register: bad date %q: %w", d, err)
		}
	}

	known, err := r.Load(ctx)
	if err != nil {
		known = domain.DateSet{}
	}

	var added []string
	for _, d := range dates {
		if known.Contains(d) {
			continue
		}
		known[d] = struct{}{}
		added = append(added, d)
	}
	if len(added) == 0 {
		return nil, nil
	}
	sort.Strings(added)

	data, err := json.MarshalIndent(known, "", "  ")
	if err != nil {
		return added, fmt.Errorf("encode known dates: %w", err)
	}
	if err := writeWithBackup(r.path, data, r.writeFile); err != nil {
		return added, err
	}
	return added, nil
}

func (r *DateRegistry) loadFrom(path string) (domain.DateSet, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.DateSet{}, true
	}
	var known domain.DateSet
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, false
	}
	return known, true
}
