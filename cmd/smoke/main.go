package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "check":
		checkCmd(apiURL)
	case "populate":
		populateCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Smoke - Development tool for exercising a running noteshare server

USAGE:
  smoke <command> [options]

COMMANDS:
  check     Run the private note scenario against the server and report
  populate  Create fake users, each with public and private notes
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Verify access control on a fresh server
  smoke check

  # Create 5 users with 3 notes each
  smoke populate --users=5 --notes=3`)
}

// checkCmd creates a private note as one user and verifies that another
// user and an anonymous caller cannot read it.
func checkCmd(apiURL string) {
	client := NewAPIClient(apiURL)
	failed := false

	step := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Printf("  FAIL %s\n       %v\n", name, err)
			return
		}
		fmt.Printf("  OK   %s\n", name)
	}

	fmt.Println("=== Smoke: private note scenario ===")

	alice, aliceToken, err := client.RegisterUser("alice")
	if err != nil {
		fmt.Printf("Failed to register alice: %v\n", err)
		os.Exit(1)
	}
	_, bobToken, err := client.RegisterUser("bob")
	if err != nil {
		fmt.Printf("Failed to register bob: %v\n", err)
		os.Exit(1)
	}

	note, err := client.CreateNote(aliceToken, "T1", "C1", false)
	if err != nil {
		fmt.Printf("Failed to create note: %v\n", err)
		os.Exit(1)
	}

	step("note is owned by its creator", func() error {
		if note.AuthorID != alice.ID || note.Visibility != "private" {
			return fmt.Errorf("got author %s visibility %s", note.AuthorID, note.Visibility)
		}
		return nil
	}())

	step("other user gets 404", expectStatus(client, bobToken, note.ID, http.StatusNotFound))
	step("anonymous gets 401", expectStatus(client, "", note.ID, http.StatusUnauthorized))

	step("owner reads the note", func() error {
		got, err := client.GetNote(aliceToken, note.ID)
		if err != nil {
			return err
		}
		if got.Title != "T1" || got.Content != "C1" {
			return fmt.Errorf("got %q/%q", got.Title, got.Content)
		}
		return nil
	}())

	step("public listing hides the note", func() error {
		notes, err := client.ListPublicNotes(bobToken)
		if err != nil {
			return err
		}
		for _, n := range notes {
			if n.ID == note.ID {
				return errors.New("private note listed")
			}
		}
		return nil
	}())

	step("other user cannot delete", func() error {
		var statusErr *StatusError
		err := client.DeleteNote(bobToken, note.ID)
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("expected 404, got %v", err)
	}())

	step("owner deletes", client.DeleteNote(aliceToken, note.ID))

	fmt.Println()
	if failed {
		fmt.Println("=== FAILED ===")
		os.Exit(1)
	}
	fmt.Println("=== PASSED ===")
}

func expectStatus(client *APIClient, token, id string, status int) error {
	_, err := client.GetNote(token, id)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("expected %d, got %v", status, err)
	}
	if statusErr.Status != status {
		return statusErr
	}
	if statusErr.Body == "T1" || statusErr.Body == "C1" {
		return errors.New("refusal leaked note text")
	}
	return nil
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	users := fs.Int("users", 3, "Number of fake users to create")
	notes := fs.Int("notes", 2, "Notes per user; every other note is private")
	fs.Parse(args)

	if *users < 1 || *notes < 0 {
		fmt.Println("Error: --users must be at least 1 and --notes non-negative")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Smoke: populate ===")
	for i := 0; i < *users; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("user%d", i+1))
		if err != nil {
			fmt.Printf("FAILED\n  Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  %s\n", user.Username)

		for j := 0; j < *notes; j++ {
			isPublic := j%2 == 0
			note, err := client.CreateNote(token,
				fmt.Sprintf("Note %d from %s", j+1, user.Username),
				"Generated by the smoke tool.",
				isPublic)
			if err != nil {
				fmt.Printf("    FAILED: %v\n", err)
				continue
			}
			fmt.Printf("    %s (%s)\n", note.Title, note.Visibility)
		}
	}
}
