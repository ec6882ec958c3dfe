package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kowaiquest/internal/config"
	"kowaiquest/internal/logger"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" {
		printUsage()
		if len(os.Args) < 2 {
			os.Exit(1)
		}
		return
	}

	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	a.out = os.Stdout

	err = a.run(ctx, cmd, os.Args[2:])
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Kowai Quest")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kowaiquest <command> [options]")
	fmt.Println()
	fmt.Println("Trainers:")
	fmt.Println("  signup -first <name> -last <name> -age <n>   Create a trainer, or log in if it exists")
	fmt.Println("  login -first <name> -last <name> -age <n>    Log in to an existing trainer")
	fmt.Println("  logout                                       Log out, keeping saved sessions")
	fmt.Println("  sessions                                     List trainers saved on this device")
	fmt.Println("  switch -id <trainerId>                       Switch to a saved trainer")
	fmt.Println("  remove -id <trainerId>                       Forget a saved trainer on this device")
	fmt.Println("  show                                         Show the active trainer")
	fmt.Println()
	fmt.Println("Quests:")
	fmt.Println("  start                                        Start the current issue")
	fmt.Println("  switch-issue -issue <issueId>                Change the current issue")
	fmt.Println("  quest [-number <n>]                          Show a quest (default: the next one)")
	fmt.Println("  submit -quest <n> -answer <answer>           Answer a quest")
	fmt.Println("  route -quest <n> -path C5,D5,D4,E4           Walk a route quest cell by cell")
	fmt.Println("  kowai -id <kowaiId> [-encountered]           Add a kowai to the trainer")
	fmt.Println()
	fmt.Println("Telemetry:")
	fmt.Println("  events                                       Stream telemetry events (TELEMETRY=redis)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE       sqlite, postgres, mysql, redis or memory (default: sqlite)")
	fmt.Println("  DB_PATH             SQLite database path (default: ./kowaiquest.db)")
	fmt.Println("  DATABASE_URL        PostgreSQL or MySQL connection URL")
	fmt.Println("  REDIS_ADDR          Redis address for the redis gateway or telemetry")
	fmt.Println("  SESSION_FILE        Saved sessions (default: ~/.kowaiquest/sessions.json)")
	fmt.Println("  CATALOG_PATH        Quest catalog override (YAML)")
	fmt.Println("  TELEMETRY           log, redis or none (default: log)")
	fmt.Println("  STRICT_PROGRESSION  Require quests to be completed in order (default: false)")
	fmt.Println("  LOG_MODE            dev or prod (default: dev)")
}
