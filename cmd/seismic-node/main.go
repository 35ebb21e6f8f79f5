// seismic-node is the data-acquisition node daemon: it drives the ADC,
// disciplines sample timestamps against PPS and a learned oscillator
// calibration, and streams the result over a serial link while accepting
// line-oriented commands on stdin.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shiwa/seismic-node/internal/config"
	"github.com/shiwa/seismic-node/internal/logger"
	"github.com/shiwa/seismic-node/pkg/engine"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to built-in settings)")
	port := flag.String("port", "", "serial port for the sample stream (overrides config)")
	baud := flag.Int("baud", 0, "serial baud rate (overrides config)")
	rateHz := flag.Float64("rate", 0, "start streaming at this rate immediately (0 disables auto-start)")
	quiet := flag.Bool("quiet", false, "suppress informational log output")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port != "" {
		cfg.Serial.Port = *port
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	logger.Quiet = *quiet

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	if *rateHz > 0 {
		if err := eng.StartStream(*rateHz); err != nil {
			logger.Error("auto-start: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal %v, shutting down", sig)
		cancel()
	}()

	cmdLines := make(chan string)
	go scanCommands(ctx, os.Stdin, cmdLines)

	if err := eng.Run(ctx, cmdLines); err != nil && err != context.Canceled {
		logger.Error("%v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// scanCommands feeds cmdLines from r one line at a time until ctx is
// cancelled or r is exhausted, then closes cmdLines.
func scanCommands(ctx context.Context, r *os.File, cmdLines chan<- string) {
	defer close(cmdLines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case cmdLines <- scanner.Text():
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("reading commands: %v", err)
	}
}
