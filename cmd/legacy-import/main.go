// Command legacy-import stages a JSON export of one user's pre-account
// projects. The server migrates them into that account on its next sign-in.
//
//	legacy-import -user <account id> -file projects.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/freelancehq/freelance-manager/internal/core/domain"
	redisdb "github.com/freelancehq/freelance-manager/internal/infrastructure/db/redis"
	"github.com/freelancehq/freelance-manager/internal/pkg/config"
	"github.com/freelancehq/freelance-manager/pkg/logger"
)

func main() {
	file := flag.String("file", "", "path to a JSON array of legacy projects")
	user := flag.String("user", "", "id of the account the projects belong to")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "legacy-import"})

	if *file == "" || *user == "" {
		flag.Usage()
		os.Exit(2)
	}

	n, err := importFile(context.Background(), cfg, *user, *file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("import failed")
	}
	log.Info().Int("records", n).Str("user_id", *user).Msg("legacy projects staged for migration")
}

func importFile(ctx context.Context, cfg *config.Config, userID, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	records, err := domain.ParseLegacyProjects(string(raw))
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return 0, err
	}
	defer rdb.Close()

	storage := redisdb.NewLocalStorage(rdb, redisdb.DefaultLocalPrefix)
	if err := storage.Set(ctx, domain.LegacyStorageKey(userID, cfg.LegacyStorageKey), string(raw)); err != nil {
		return 0, err
	}
	return len(records), nil
}
