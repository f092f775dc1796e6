package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/padelwatch/padelwatch/internal/adapters/httpapi"
)

func main() {
	baseURL := flag.String("server", envOr("PW_SERVER_URL", "http://127.0.0.1:8080"), "URL du serveur (ex: http://127.0.0.1:8080)")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout HTTP")
	user := flag.String("user", os.Getenv("PW_USER"), "Utilisateur Basic Auth (routes protégées)")
	password := flag.String("password", os.Getenv("PW_PASSWORD"), "Mot de passe Basic Auth")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}

	switch args[0] {
	case "health":
		get(client, *baseURL+"/api/v1/health")
	case "version":
		get(client, *baseURL+"/api/v1/version")
	case "state":
		get(client, *baseURL+"/api/v1/state")
	case "dates":
		get(client, *baseURL+"/api/v1/dates")
	case "report":
		get(client, *baseURL+"/api/v1/reports/latest")
	case "process":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: padelwatch process <snapshot.json>")
			os.Exit(2)
		}
		body, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Erreur:", err)
			os.Exit(1)
		}
		post(client, *baseURL+"/api/v1/snapshots", body, *user, *password)
	case "hash-password":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: padelwatch hash-password <user> <password>")
			os.Exit(2)
		}
		hash, err := httpapi.HashPassword(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Erreur:", err)
			os.Exit(1)
		}
		// Ligne à placer telle quelle dans le fichier -auth-file du serveur.
		fmt.Printf("%s:%s\n", args[1], hash)
	default:
		fmt.Fprintln(os.Stderr, "Commande inconnue:", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: padelwatch [health|version|state|dates|report|process <snapshot.json>|hash-password <user> <password>]")
}

func get(client *http.Client, url string) {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	dump(resp)
}

func post(client *http.Client, url string, body []byte, user, password string) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, password)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	dump(resp)
}

func dump(resp *http.Response) {
	b, _ := io.ReadAll(resp.Body)
	var pretty any
	if err := json.Unmarshal(b, &pretty); err == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(pretty)
		if resp.StatusCode >= 400 {
			os.Exit(1)
		}
		return
	}

	os.Stdout.Write(b)
	os.Stdout.Write([]byte("\n"))
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
