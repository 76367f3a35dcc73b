package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/models"
	"printwatch/internal/store"
)

// The seed tool provisions device profiles from a JSON file. Counters are
// zeroed on load; thresholds and window come from the file:
//
//	[{"PrinterId": "sf36", "Thresholds": {"Lower": 10, "Upper": 90}, "Window": 3}]
func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <profiles.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	file := flag.Arg(0)

	logger.Init("info")
	log := logger.WithComponent("seed")

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("failed to read profiles file")
	}

	var profiles []models.DeviceProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("profiles file is not a JSON array")
	}

	cfg := config.FromEnv()
	profileStore, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to profile store")
	}
	defer profileStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, p := range profiles {
		id, err := models.NormalizeDeviceID(p.DeviceID)
		if err != nil {
			log.Fatal().Err(err).Str("device_id", p.DeviceID).Msg("invalid device identifier")
		}
		p.DeviceID = id
		p.OutOfBoundsCount = 0
		p.EventCount = 0

		if err := p.Validate(); err != nil {
			log.Fatal().Err(err).Str("device_id", id).Msg("invalid profile")
		}

		if err := profileStore.SaveProfile(ctx, p); err != nil {
			log.Fatal().Err(err).Str("device_id", id).Msg("failed to save profile")
		}
		log.Info().
			Str("device_id", id).
			Float64("lower", p.Thresholds.Lower).
			Float64("upper", p.Thresholds.Upper).
			Int("window", p.Window).
			Msg("profile provisioned")
	}

	log.Info().Int("count", len(profiles)).Msg("seeding complete")
}
