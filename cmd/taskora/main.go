// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

// Command taskora is the reference device client for the Taskora API.
//
// It behaves like the mobile app it stands in for: the session is cached in
// a local sqlite file and reused across invocations, and a forced logout
// (login from another device) purges that cache and asks the user to log in
// again.
//
// Usage:
//
//	taskora [-server URL] [-cache FILE] <command> [args]
//
// Commands:
//
//	register -email X -username X -password X [-name X]
//	login    -identity X -password X
//	logout
//	list
//	add      -title X [-desc X]
//	done     <task-id>
//	rm       <task-id>
//	whoami
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/taskora/taskora/internal/client"
	"github.com/taskora/taskora/internal/client/session"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "base URL of the Taskora API")
	cachePath := flag.String("cache", defaultCachePath(), "path to the local session cache")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if dir := filepath.Dir(*cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			fatal(err)
		}
	}

	store, err := session.Open(*cachePath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	api := client.New(*serverURL, store, client.WithForceLogoutHandler(func() {
		fmt.Fprintln(os.Stderr, "You were logged in on another device. Please log in again.")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	if err := run(ctx, api, command, args); err != nil {
		// Forced logout already printed its own message via the handler.
		if apiErr := client.AsAPIError(err); apiErr != nil && apiErr.IsForceLogout() {
			os.Exit(1)
		}
		fatal(err)
	}
}

func run(ctx context.Context, api *client.Client, command string, args []string) error {
	switch command {

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		username := fs.String("username", "", "account username")
		password := fs.String("password", "", "account password")
		name := fs.String("name", "", "display name")
		fs.Parse(args)

		profile, err := api.Register(ctx, client.RegisterInput{
			Email:       *email,
			Username:    *username,
			Password:    *password,
			DisplayName: *name,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s. Run 'taskora login' to start a session.\n", profile.Username)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		identity := fs.String("identity", "", "email or username, per server configuration")
		password := fs.String("password", "", "account password")
		fs.Parse(args)

		// The same value is sent under both identity keys; the server reads
		// the one its deployment is configured for.
		profile, err := api.Login(ctx, client.LoginInput{
			Email:    *identity,
			Username: *identity,
			Password: *password,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s. Any session on another device is now invalid.\n", profile.Username)
		return nil

	case "logout":
		if err := api.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil

	case "list":
		tasks, err := api.Tasks(ctx)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, t := range tasks {
			marker := " "
			if t.Status == "completed" {
				marker = "x"
			}
			fmt.Printf("[%s] %s  %s\n", marker, t.ID, t.Title)
		}
		return nil

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		title := fs.String("title", "", "task title")
		desc := fs.String("desc", "", "task description")
		fs.Parse(args)

		created, err := api.AddTask(ctx, *title, *desc)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s\n", created.ID)
		return nil

	case "done":
		if len(args) != 1 {
			return errors.New("usage: taskora done <task-id>")
		}
		if _, err := api.CompleteTask(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Done.")
		return nil

	case "rm":
		if len(args) != 1 {
			return errors.New("usage: taskora rm <task-id>")
		}
		if err := api.DeleteTask(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Removed.")
		return nil

	case "whoami":
		profile, ok, err := api.WhoAmI(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Not logged in.")
			return nil
		}
		fmt.Printf("%s <%s>\n", profile.Username, profile.Email)
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskora-session.db"
	}
	return filepath.Join(home, ".taskora", "session.db")
}

func fatal(err error) {
	if errors.Is(err, client.ErrNotAuthenticated) {
		fmt.Fprintln(os.Stderr, "Not logged in. Run 'taskora login' first.")
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
