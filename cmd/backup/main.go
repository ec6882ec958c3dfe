package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kowaiquest/internal/config"
	"kowaiquest/internal/gateway"
	"kowaiquest/internal/logger"
	"kowaiquest/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
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

	ctx := context.Background()
	store, err := gateway.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open gateway", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	backupService := service.NewBackupService(store, cfg.DatabaseType, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = handleExport(ctx, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		err = handleImport(ctx, backupService, *importInput, *importClear)

	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Error("backup failed", "command", os.Args[1], "error", err)
		store.Close()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	summary, err := backupService.Export(ctx, outputPath)
	if err != nil {
		return err
	}

	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d trainers, %d stats history entries and %d attempts to %s (%.2f KB)\n",
		summary.Trainers, summary.StatsHistory, summary.Attempts, outputPath, float64(fileInfo.Size())/1024)
	return nil
}

func handleImport(ctx context.Context, backupService *service.BackupService, inputPath string, clearData bool) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing trainers and attempts. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			fmt.Println("Import cancelled")
			return nil
		}
		if err := backupService.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	summary, err := backupService.Import(ctx, inputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d trainers, %d stats history entries and %d attempts\n",
		summary.Trainers, summary.StatsHistory, summary.Attempts)
	return nil
}

func printUsage() {
	fmt.Println("Kowai Quest Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export trainers, stats history and attempts to a JSON file")
	fmt.Println("  backup import [options]    Import documents from a JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println("  backup import -input backup.json")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    sqlite, postgres, mysql or redis (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./kowaiquest.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  REDIS_ADDR       Redis address when DATABASE_TYPE=redis")
}
