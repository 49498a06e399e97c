package main

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"alfredoptarigan/profile-matcher/internal/services"
)

var loadAvailabilityCmd = &cobra.Command{
	Use:   "load-availability",
	Short: "Load an availability CSV export into the Redis cache",
	RunE:  runLoadAvailability,
}

var availabilityCSVPath string

func init() {
	loadAvailabilityCmd.Flags().StringVar(&availabilityCSVPath, "csv", "", "Path to the availability CSV (defaults to AVAILABILITY_CSV_PATH)")
	rootCmd.AddCommand(loadAvailabilityCmd)
}

func runLoadAvailability(cmd *cobra.Command, _ []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	path := availabilityCSVPath
	if path == "" {
		path = env.cfg.Availability.CSVPath
	}

	client := redis.NewClient(&redis.Options{
		Addr:     env.cfg.Redis.Address,
		Password: env.cfg.Redis.Password,
		DB:       env.cfg.Redis.DB,
	})
	defer client.Close()

	cache := services.NewAvailabilityCache(client, env.cfg.Availability.KeyPrefix, env.cfg.Availability.TTL, env.log)
	service := services.NewAvailabilityService(cache, services.NewAvailabilityLoader(env.log), env.log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := service.RefreshFromFile(ctx, path)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, result)
}
