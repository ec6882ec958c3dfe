package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"kowaiquest/internal/gateway"
	"kowaiquest/internal/logger"
)

// BackupVersion is the format written by Export
const BackupVersion = "1.0"

// BackupData is the complete gateway backup
type BackupData struct {
	Version      string                      `json:"version"`
	ID           string                      `json:"id"`
	ExportedAt   time.Time                   `json:"exported_at"`
	DatabaseType string                      `json:"database_type"`
	Trainers     []DocumentBackup            `json:"trainers"`
	StatsHistory map[string][]DocumentBackup `json:"stats_history"` // keyed by trainer id
	Attempts     []DocumentBackup            `json:"attempts"`
}

// DocumentBackup is one stored document
type DocumentBackup struct {
	ID   string           `json:"id"`
	Data gateway.Document `json:"data"`
}

// BackupSummary counts what was exported or imported
type BackupSummary struct {
	Trainers     int
	StatsHistory int
	Attempts     int
}

// BackupService handles backup and restore of every gateway document
type BackupService struct {
	gw           gateway.Gateway
	databaseType string
	log          *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(gw gateway.Gateway, databaseType string, log *logger.Logger) *BackupService {
	return &BackupService{gw: gw, databaseType: databaseType, log: log.With("service", "BackupService")}
}

// Export writes a complete backup to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) (BackupSummary, error) {
	s.log.Info("starting export", "path", outputPath)

	file, err := os.Create(outputPath)
	if err != nil {
		return BackupSummary{}, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	summary, err := s.ExportToWriter(ctx, file)
	if err != nil {
		return summary, err
	}
	s.log.Info("export complete", "path", outputPath,
		"trainers", summary.Trainers, "stats_history", summary.StatsHistory, "attempts", summary.Attempts)
	return summary, nil
}

// ExportToWriter encodes a complete backup to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) (BackupSummary, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ID:           uuid.NewString(),
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.databaseType,
		StatsHistory: make(map[string][]DocumentBackup),
	}

	var err error
	if backup.Trainers, err = s.exportCollection(ctx, gateway.TrainersCollection); err != nil {
		return BackupSummary{}, fmt.Errorf("failed to export trainers: %w", err)
	}
	for _, t := range backup.Trainers {
		history, err := s.exportCollection(ctx, historyPath(t.ID))
		if err != nil {
			return BackupSummary{}, fmt.Errorf("failed to export stats history for %s: %w", t.ID, err)
		}
		if len(history) > 0 {
			backup.StatsHistory[t.ID] = history
		}
	}
	if backup.Attempts, err = s.exportCollection(ctx, gateway.AttemptsCollection); err != nil {
		return BackupSummary{}, fmt.Errorf("failed to export attempts: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return BackupSummary{}, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup.summary(), nil
}

// Import restores documents from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) (BackupSummary, error) {
	s.log.Info("starting import", "path", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return BackupSummary{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores documents from a backup stream. Existing
// documents with the same ids are overwritten.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) (BackupSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return BackupSummary{}, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return BackupSummary{}, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.log.Info("importing backup", "id", backup.ID, "exported_at", backup.ExportedAt, "source", backup.DatabaseType)

	if err := s.importCollection(ctx, gateway.TrainersCollection, backup.Trainers); err != nil {
		return BackupSummary{}, fmt.Errorf("failed to import trainers: %w", err)
	}
	for trainerID, entries := range backup.StatsHistory {
		if err := s.importCollection(ctx, historyPath(trainerID), entries); err != nil {
			return BackupSummary{}, fmt.Errorf("failed to import stats history for %s: %w", trainerID, err)
		}
	}
	if err := s.importCollection(ctx, gateway.AttemptsCollection, backup.Attempts); err != nil {
		return BackupSummary{}, fmt.Errorf("failed to import attempts: %w", err)
	}

	summary := backup.summary()
	s.log.Info("import complete",
		"trainers", summary.Trainers, "stats_history", summary.StatsHistory, "attempts", summary.Attempts)
	return summary, nil
}

// Clear deletes every trainer, stats ledger entry and attempt
func (s *BackupService) Clear(ctx context.Context) error {
	trainers, err := s.gw.List(ctx, gateway.TrainersCollection)
	if err != nil {
		return fmt.Errorf("failed to list trainers: %w", err)
	}
	for _, t := range trainers {
		if err := s.clearCollection(ctx, historyPath(t.ID)); err != nil {
			return err
		}
	}
	if err := s.clearCollection(ctx, gateway.TrainersCollection); err != nil {
		return err
	}
	return s.clearCollection(ctx, gateway.AttemptsCollection)
}

func (s *BackupService) exportCollection(ctx context.Context, collection string) ([]DocumentBackup, error) {
	entries, err := s.gw.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	docs := make([]DocumentBackup, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, DocumentBackup{ID: e.ID, Data: e.Data})
	}
	return docs, nil
}

func (s *BackupService) importCollection(ctx context.Context, collection string, docs []DocumentBackup) error {
	for _, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document without id in %s", collection)
		}
		if err := s.gw.Set(ctx, collection, d.ID, d.Data); err != nil {
			return fmt.Errorf("failed to import %s/%s: %w", collection, d.ID, err)
		}
	}
	return nil
}

func (s *BackupService) clearCollection(ctx context.Context, collection string) error {
	entries, err := s.gw.List(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", collection, err)
	}
	for _, e := range entries {
		if err := s.gw.Delete(ctx, collection, e.ID); err != nil {
			return fmt.Errorf("failed to delete %s/%s: %w", collection, e.ID, err)
		}
	}
	return nil
}

func (b *BackupData) summary() BackupSummary {
	sum := BackupSummary{Trainers: len(b.Trainers), Attempts: len(b.Attempts)}
	for _, entries := range b.StatsHistory {
		sum.StatsHistory += len(entries)
	}
	return sum
}

func historyPath(trainerID string) string {
	return gateway.SubCollection(gateway.TrainersCollection, trainerID, gateway.StatsHistoryCollection)
}
