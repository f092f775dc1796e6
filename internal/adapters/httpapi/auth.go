package httpapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/padelwatch/padelwatch/internal/httpjson"
)

// Paramètres argon2id (recommandations OWASP).
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// BasicAuth protège l'ingestion de snapshots derrière un couple user/hash
// argon2id chargé depuis un fichier "user:hash" (créé par `padelwatch
// hash-password`). C'est l'authentification de NOTRE surface d'admin, sans
// rapport avec la session du site de réservation, qui reste hors périmètre.
type BasicAuth struct {
	user string
	hash string // "salt$key", les deux en base64 brut
}

// LoadBasicAuth renvoie (nil, nil) si le fichier n'existe pas: l'auth est
// alors simplement désactivée.
func LoadBasicAuth(path string) (*BasicAuth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	line := strings.TrimSpace(string(data))
	user, hash, ok := strings.Cut(line, ":")
	if !ok || user == "" || hash == "" {
		return nil, fmt.Errorf("auth file %s: expected user:hash", path)
	}
	return &BasicAuth{user: user, hash: hash}, nil
}

func NewBasicAuth(user, hash string) *BasicAuth {
	return &BasicAuth{user: user, hash: hash}
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(key), nil
}

func (a *BasicAuth) verify(password string) bool {
	saltB64, keyB64, ok := strings.Cut(a.hash, "$")
	if !ok {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(keyB64)
	if err != nil || len(want) == 0 {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) != 1 || !a.verify(pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="padelwatch"`)
			httpjson.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
