// Command iqreceiver receives a remote I/Q stream and writes the samples to a
// file or stdout while serving telemetry.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/remoteiq/config"
	"github.com/opd-ai/remoteiq/metrics"
	"github.com/opd-ai/remoteiq/receiver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const tickInterval = 20 * time.Millisecond

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("iqreceiver failed")
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rx, err := receiver.New(cfg.ReceiverSettings())
	if err != nil {
		return err
	}
	rx.OnSampleRateChange(func(oldRate, newRate uint32) {
		logrus.WithFields(logrus.Fields{
			"function": "iqreceiver.OnSampleRateChange",
			"old_rate": oldRate,
			"new_rate": newRate,
		}).Info("Sample rate changed")
	})

	if cfg.Metrics.Enabled {
		srv, err := metrics.NewServer(metrics.ServerConfig{
			Listen:    cfg.Metrics.Listen,
			Path:      cfg.Metrics.Path,
			StatsPath: cfg.Metrics.StatsPath,
		}, rx)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(); err != nil {
				logrus.WithError(err).Error("Telemetry endpoint failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	out, err := openOutput(cfg.Output, cfg.Receiver.RxBits)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close output")
		}
	}()

	if err := rx.Start(ctx); err != nil {
		return err
	}
	defer rx.Stop()

	return pull(ctx, rx, out, cfg.Output.ChunkSamples)
}

// pull reads samples at the stream's sample rate until ctx ends.
func pull(ctx context.Context, rx *receiver.Receiver, out *sampleWriter, chunk int) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	var owed float64
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			m, ok := rx.Meta()
			if !ok || m.SampleRate == 0 {
				continue
			}
			owed += elapsed.Seconds() * float64(m.SampleRate)
			for owed >= 1 {
				n := min(int(owed), chunk)
				if err := out.Pull(rx, n); err != nil {
					return err
				}
				owed -= float64(n)
			}
			if err := rx.Err(); err != nil {
				return err
			}
		}
	}
}

func loadConfig(args []string) (*config.Config, error) {
	fs := pflag.NewFlagSet("iqreceiver", pflag.ContinueOnError)
	path := fs.StringP("config", "c", "", "YAML configuration file")
	address := fs.StringP("address", "a", "", "listen address host:port")
	group := fs.String("multicast", "", "multicast group to join")
	iface := fs.String("interface", "", "interface for the multicast join")
	ring := fs.Int("ring", 0, "reassembly ring size (power of two)")
	depth := fs.Int("jitter", 0, "read buffer depth in frames")
	rxBits := fs.Int("rx-bits", 0, "output sample width, 16 or 24")
	output := fs.StringP("output", "o", "", "output file, - for stdout")
	compress := fs.Bool("zstd", false, "compress the output with zstd")
	metricsListen := fs.String("metrics-listen", "", "serve /metrics and /stats on this address")
	logLevel := fs.String("log-level", "", "log level")
	logFormat := fs.String("log-format", "", "log format, text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if fs.Changed("address") {
		cfg.Receiver.Address = *address
	}
	if fs.Changed("multicast") {
		cfg.Receiver.MulticastGroup = *group
	}
	if fs.Changed("interface") {
		cfg.Receiver.Interface = *iface
	}
	if fs.Changed("ring") {
		cfg.Receiver.RingSize = *ring
	}
	if fs.Changed("jitter") {
		cfg.Receiver.JitterDepth = *depth
	}
	if fs.Changed("rx-bits") {
		cfg.Receiver.RxBits = *rxBits
	}
	if fs.Changed("output") {
		cfg.Output.Path = *output
	}
	if fs.Changed("zstd") {
		cfg.Output.Compress = *compress
	}
	if fs.Changed("metrics-listen") {
		cfg.Metrics.Enabled = *metricsListen != ""
		cfg.Metrics.Listen = *metricsListen
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, errors.New("unexpected arguments: " + fmt.Sprint(fs.Args()))
	}
	return cfg, nil
}
