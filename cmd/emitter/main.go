package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"printwatch/internal/config"
	"printwatch/internal/logger"
)

// The emitter replays a recorded batch of readings onto a topic with fixed
// pacing, for feeding the monitor during demos and load checks. Each entry in
// the input file is one reading object in the inbound wire shape.
func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	delay := flag.Duration("delay", 300*time.Millisecond, "pause between messages")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <topic> <readings.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	topic := flag.Arg(0)
	file := flag.Arg(1)

	logger.Init("info")
	log := logger.WithComponent("emitter")

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("failed to read input file")
	}

	var observations []json.RawMessage
	if err := json.Unmarshal(data, &observations); err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("input file is not a JSON array")
	}

	cfg := config.FromEnv()
	if *brokers != "" {
		cfg.Kafka.Brokers = strings.Split(*brokers, ",")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()
	for i, obs := range observations {
		err := writer.WriteMessages(ctx, kafka.Message{Value: obs})
		if err != nil {
			log.Fatal().Err(err).Int("index", i).Msg("publish failed")
		}

		log.Info().Int("index", i).RawJSON("observation", obs).Msg("emitted observation")
		time.Sleep(*delay)
	}

	log.Info().Int("count", len(observations)).Msg("replay complete")
}
