package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mailsort/config"
	"mailsort/gmail"
	"mailsort/rules"
	"mailsort/sorter"
	"mailsort/tui"
)

const (
	appConfigPath    = "mailsort.toml"
	initialPollDelay = 1 * time.Second // Short delay for the TUI to draw before the initial fetch
)

func main() {
	app, err := config.LoadApp(appConfigPath)
	if err != nil {
		log.Fatalf("Failed to load application config: %v", err)
	}

	logFile, err := os.OpenFile(app.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.Println("Application starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown signal received, cancelling context...")
		cancel()
	}()

	settings, err := config.NewManager(app.SettingsFile)
	if err != nil {
		log.Fatalf("Failed to initialize settings manager: %v", err)
	}
	log.Println("Settings manager initialized.")

	gmailClient, err := gmail.NewClient(ctx, app.CredentialsFile, app.TokenFile)
	if err != nil {
		log.Fatalf("Failed to initialize Gmail client: %v. Ensure credentials.json is present and valid.", err)
	}
	log.Println("Gmail client initialized.")

	ruleStore := rules.NewStore(settings, gmailClient)
	messageSorter := sorter.New(gmailClient, ruleStore)

	batches := make(chan gmail.Batch, 4)
	go gmailClient.Monitor(ctx, batches, initialPollDelay, app.PollInterval.Duration)
	log.Println("Gmail monitoring configured to start.")

	model := tui.NewModel(ctx, settings, gmailClient, messageSorter, batches, app.PollInterval.Duration, app.IgnoreRead)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("Error running TUI application: %v", err)
	}

	log.Println("TUI application stopped. Exiting.")
}
