package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Database drivers for local and server-backed schemas.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/facet-orm/facet/internal/orm/cache"
	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/fieldtype"
	"github.com/facet-orm/facet/internal/orm/opctx"
	"github.com/facet-orm/facet/internal/orm/pipeline"
	"github.com/facet-orm/facet/internal/orm/refs"
	"github.com/facet-orm/facet/internal/orm/store"
)

var (
	validateRecords  string
	validateDir      string
	validateUsername string
	validateActorID  int64
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run records through the field pipeline",
	Long: `Reads a JSON array of records and drives every field through the
conversion pipeline against the schema configured in facet.yml.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateRecords, "records", "r", "records.json", "JSON file with an array of records")
	validateCmd.Flags().StringVarP(&validateDir, "direction", "d", "persist", "pipeline direction: persist or load")
	validateCmd.Flags().StringVarP(&validateUsername, "username", "u", "", "actor username for the operation")
	validateCmd.Flags().Int64Var(&validateActorID, "actor-id", 0, "actor identifier for permission checks")
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	entity, fields, err := loadSchema(config.Schema)
	if err != nil {
		return err
	}

	var dir pipeline.Direction
	switch validateDir {
	case "persist":
		dir = pipeline.Persist
	case "load":
		dir = pipeline.Load
	default:
		return fmt.Errorf("unknown direction %q (want persist or load)", validateDir)
	}

	records, err := readRecords(validateRecords)
	if err != nil {
		return err
	}

	db, err := sql.Open(config.Database.Driver, config.Database.URL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	registry := fieldtype.Builtin()
	if err := refs.Register(registry); err != nil {
		return err
	}
	pipe := pipeline.New(registry, logger)

	ctx := context.Background()
	success := color.New(color.FgGreen, color.Bold)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed, color.Bold)

	failures := 0
	for i, record := range records {
		oc := buildOpContext(config, db, fields, logger)

		result, err := pipe.ProcessRecord(ctx, oc, dir, record, fields)
		if err != nil {
			failures++
			fail.Printf("record %d: aborted (%s)\n", i, fielderr.KindOf(err))
			fmt.Printf("  %v\n", err)
			continue
		}

		if result.Report.HasIssues() {
			warn.Printf("record %d: %d issue(s)\n", i, result.Report.Count())
			for _, issue := range result.Report.Issues() {
				fmt.Printf("  - %s\n", issue.Error())
			}
			continue
		}

		success.Printf("record %d: ok\n", i)
	}

	fmt.Printf("\n%s: %d record(s), %d aborted\n", entity, len(records), failures)
	if failures > 0 {
		os.Exit(1)
	}
	return nil
}

// buildOpContext assembles the per-operation context: one entity
// lookup service per referenced table, the node and ACL stores, and
// the optional Redis read-through cache.
func buildOpContext(config *Config, db *sql.DB, fields []*fieldtype.Field, logger *zap.Logger) *opctx.Context {
	opts := []opctx.Option{
		opctx.WithFilesystem(store.NewNodeStore(db, "fsnodes")),
		opctx.WithAccessControl(store.NewACLStore(db, "permissions")),
	}

	var redisClient *redis.Client
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
	}

	seen := make(map[string]bool)
	for _, field := range fields {
		if field.Service == "" || seen[field.Service] {
			continue
		}
		seen[field.Service] = true

		var svc opctx.EntityService = store.NewEntityStore(db, field.Service)
		if redisClient != nil {
			svc = cache.NewEntityCache(svc, redisClient)
		}
		opts = append(opts, opctx.WithEntityService(field.Service, svc))
	}

	if validateUsername != "" {
		opts = append(opts, opctx.WithActor(&opctx.Actor{
			ID:       validateActorID,
			Username: validateUsername,
		}))
	}

	logger.Debug("operation context assembled",
		zap.Int("entity_services", len(seen)),
		zap.Bool("cached", redisClient != nil),
	)
	return opctx.New(opts...)
}

func readRecords(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	return records, nil
}

func newLogger() (*zap.Logger, error) {
	if debugFlag {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
