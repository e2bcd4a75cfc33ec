// downtimectl is a terminal client for the downtime API. Login stores
// the username and an isAuthenticated flag in a local session file;
// commands that need an identity check that flag and nothing else.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"downtimelog/client"
	"downtimelog/duration"
)

type session struct {
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	c := client.New(client.BaseURL())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "register":
		err = runRegister(ctx, c, os.Args[2:])
	case "login":
		err = runLogin(ctx, c, os.Args[2:])
	case "logout":
		err = clearSession()
	case "whoami":
		err = runWhoami()
	case "health":
		err = c.Health(ctx)
		if err == nil {
			fmt.Println("ok")
		}
	case "list":
		err = runList(ctx, c)
	case "add":
		err = runAdd(ctx, c, os.Args[2:])
	case "edit":
		err = runEdit(ctx, c, os.Args[2:])
	case "rm":
		err = runDelete(ctx, c, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: downtimectl <register|login|logout|whoami|health|list|add|edit|rm> [flags]")
}

func runRegister(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("u", "", "username (required)")
	password := fs.String("p", "", "password (required)")
	fs.Parse(args)

	if *username == "" || *password == "" {
		return errors.New("-u and -p are required")
	}
	if err := c.Register(ctx, *username, *password); err != nil {
		return err
	}
	fmt.Println("User registered successfully")
	return nil
}

func runLogin(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username (required)")
	password := fs.String("p", "", "password (required)")
	fs.Parse(args)

	if *username == "" || *password == "" {
		return errors.New("-u and -p are required")
	}
	if err := c.Login(ctx, *username, *password); err != nil {
		return err
	}
	if err := saveSession(session{Username: *username, IsAuthenticated: true}); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", *username)
	return nil
}

func runWhoami() error {
	sess, err := currentSession()
	if err != nil {
		return err
	}
	fmt.Println(sess.Username)
	return nil
}

func runList(ctx context.Context, c *client.Client) error {
	sess, err := currentSession()
	if err != nil {
		return err
	}

	entries, err := c.ListDowntime(ctx, sess.Username)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCLOCK IN\tCLOCK OUT\tLENGTH\tNOTES")
	for _, e := range entries {
		clockOut := "N/A"
		if e.ClockOut != nil {
			clockOut = e.ClockOut.Format("2006-01-02 15:04")
		}
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.ClockIn.Format("2006-01-02 15:04"), clockOut,
			duration.FormatLength(e.ClockIn, e.ClockOut), notes)
	}
	w.Flush()

	fmt.Printf("\nTotal Downtime: %s\n", duration.Total(entries))
	return nil
}

func runAdd(ctx context.Context, c *client.Client, args []string) error {
	sess, err := currentSession()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("add", flag.ExitOnError)
	clockIn := fs.String("in", "", "clock-in time, e.g. 2025-01-02T09:00 (required)")
	clockOut := fs.String("out", "", "clock-out time; leave empty for an open entry")
	notes := fs.String("notes", "", "notes")
	fs.Parse(args)

	if *clockIn == "" {
		return errors.New("-in is required")
	}

	payload := client.EntryPayload{
		Username: &sess.Username,
		ClockIn:  clockIn,
		Notes:    notes,
	}
	if *clockOut != "" {
		payload.ClockOut = clockOut
	}

	entry, err := c.CreateDowntime(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Printf("Created entry %d\n", entry.ID)
	return nil
}

func runEdit(ctx context.Context, c *client.Client, args []string) error {
	if _, err := currentSession(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	id := fs.Int("id", 0, "entry id (required)")
	clockIn := fs.String("in", "", "new clock-in time")
	clockOut := fs.String("out", "", "new clock-out time; pass an empty value to reopen")
	notes := fs.String("notes", "", "new notes")
	fs.Parse(args)

	if *id == 0 {
		return errors.New("-id is required")
	}

	// Only flags that were actually given end up in the patch.
	var payload client.EntryPayload
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			payload.ClockIn = clockIn
		case "out":
			payload.ClockOut = clockOut
		case "notes":
			payload.Notes = notes
		}
	})

	entry, err := c.UpdateDowntime(ctx, *id, payload)
	if err != nil {
		return err
	}
	fmt.Printf("Updated entry %d\n", entry.ID)
	return nil
}

func runDelete(ctx context.Context, c *client.Client, args []string) error {
	if _, err := currentSession(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.Int("id", 0, "entry id (required)")
	fs.Parse(args)

	if *id == 0 {
		return errors.New("-id is required")
	}
	if err := c.DeleteDowntime(ctx, *id); err != nil {
		return err
	}
	fmt.Println("Entry deleted")
	return nil
}

func sessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "downtimectl", "session.json"), nil
}

// currentSession is the route guard: commands that need an identity
// fail here when the flag is absent.
func currentSession() (session, error) {
	path, err := sessionPath()
	if err != nil {
		return session{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return session{}, errors.New("not logged in; run: downtimectl login -u <user> -p <password>")
	}
	var sess session
	if err := json.Unmarshal(data, &sess); err != nil || !sess.IsAuthenticated {
		return session{}, errors.New("not logged in; run: downtimectl login -u <user> -p <password>")
	}
	return sess, nil
}

func saveSession(sess session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func clearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
