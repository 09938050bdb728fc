package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/yourorg/authgate/internal/security/auth"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "hash":
		hashPassword(args)
	case "login":
		login(args)
	case "logout":
		logout()
	case "whoami":
		whoAmI()
	case "tenant":
		handleTenant(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// hashPassword produces a bcrypt hash suitable for the password_hash
// field of the user creation API.
func hashPassword(args []string) {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	password := fs.String("password", "", "password to hash")

	fs.Parse(args)

	if *password == "" {
		fmt.Println("Error: password is required")
		fs.PrintDefaults()
		return
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(hash)
}

func login(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	tenant := fs.String("tenant", "", "tenant name")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *tenant == "" || *username == "" || *password == "" {
		fmt.Println("Error: tenant, username, and password are required")
		fs.PrintDefaults()
		return
	}

	form := url.Values{}
	form.Set("tenant", *tenant)
	form.Set("username", *username)
	form.Set("password", *password)

	resp, err := http.Post(getAPIURL()+"/tokens", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["access_token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s@%s\n", *username, *tenant)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logout() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Println("✗ Token rejected, log in again")
		return
	}

	var user map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&user)
	fmt.Printf("✓ %v@%v (disabled: %v)\n", user["username"], user["tenant"], user["disabled"])
}

func handleTenant(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: authgate tenant <list|create|delete>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listTenants(args[1:])
	case "create":
		createTenant(args[1:])
	case "delete":
		deleteTenant(args[1:])
	default:
		fmt.Printf("unknown tenant command: %s\n", subCmd)
	}
}

func listTenants(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/tenants", nil)
	addAdminAuth(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Printf("✗ Request failed with status %d\n", resp.StatusCode)
		return
	}

	var tenants []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&tenants)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, t := range tenants {
		fmt.Fprintf(w, "%v\t%v\t%v\n", t["id"], t["name"], t["created_at"])
	}
	w.Flush()
}

func createTenant(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "tenant name")

	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	data, _ := json.Marshal(map[string]string{"tenant": *name})
	req, _ := http.NewRequest("POST", getAPIURL()+"/tenants", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAdminAuth(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Tenant created: %s\n", *name)
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func deleteTenant(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	name := fs.String("name", "", "tenant name")

	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/tenants/"+url.PathEscape(*name), nil)
	addAdminAuth(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 204 {
		fmt.Printf("✓ Tenant deleted: %s\n", *name)
	} else {
		fmt.Printf("✗ Delete failed with status %d\n", resp.StatusCode)
	}
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("AUTHGATE_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.authgate/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.authgate", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAdminAuth(req *http.Request) {
	user := os.Getenv("AUTHGATE_ADMIN_USERNAME")
	pass := os.Getenv("AUTHGATE_ADMIN_PASSWORD")
	if user != "" && pass != "" {
		req.SetBasicAuth(user, pass)
	}
}

func printUsage() {
	fmt.Print(`AuthGate CLI

Usage:
  authgate <command> [options]

Commands:
  hash     Produce a bcrypt hash for the user creation API
  login    Obtain a token via the password grant
  logout   Discard the saved token
  whoami   Show the identity behind the saved token
  tenant   Tenant operations (list, create, delete) - admin access required
  help     Show this help message

Environment Variables:
  AUTHGATE_API             API endpoint (default: http://localhost:8080)
  AUTHGATE_ADMIN_USERNAME  Admin username for tenant commands
  AUTHGATE_ADMIN_PASSWORD  Admin password for tenant commands

Examples:
  authgate hash -password s3cret
  authgate login -tenant acme -username buffy -password s3cret
  authgate whoami
  authgate tenant list
`)
}
