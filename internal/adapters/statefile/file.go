package statefile

import (
	"fmt"
	"os"
)

const (
	backupSuffix = ".backup"
	filePerm     = 0o644
)

type writeFileFunc func(name string, data []byte, perm os.FileMode) error

// writeWithBackup est la discipline centrale de durabilité du dépôt: le
// fichier courant est d'abord déplacé en .backup, le nouveau contenu est
// écrit au chemin primaire, puis le backup est supprimé. Si l'écriture
// échoue, le backup est remis en place: le fichier n'est jamais laissé à
// moitié écrit ni manquant. Un seul écrivain à la fois (sinon le .backup
// devient une course).
func writeWithBackup(path string, data []byte, writeFile writeFileFunc) error {
	backup := path + backupSuffix
	hasBackup := false
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
		hasBackup = true
	}

	if err := writeFile(path, data, filePerm); err != nil {
		if hasBackup {
			if rerr := os.Rename(backup, path); rerr != nil {
				return fmt.Errorf("write %s: %w (restore failed: %v)", path, err, rerr)
			}
		} else {
			// Pas d'historique à restaurer: on évite de laisser un fichier
			// partiel derrière soi.
			_ = os.Remove(path)
		}
		return fmt.Errorf("write %s: %w", path, err)
	}

	if hasBackup {
		_ = os.Remove(backup)
	}
	return nil
}
