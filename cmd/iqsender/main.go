// Command iqsender transmits a generated complex tone over the remote I/Q
// link, optionally through an impaired link for testing receivers.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/remoteiq/config"
	"github.com/opd-ai/remoteiq/factory"
	"github.com/opd-ai/remoteiq/interfaces"
	"github.com/opd-ai/remoteiq/sample"
	"github.com/opd-ai/remoteiq/sender"
	"github.com/opd-ai/remoteiq/transport"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const tickInterval = 10 * time.Millisecond

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("iqsender failed")
	}
}

func run() error {
	cfg, duration, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	out, err := openLink(cfg)
	if err != nil {
		return err
	}

	tx, err := sender.New(cfg.SenderSettings(), out)
	if err != nil {
		out.Close()
		return err
	}
	defer func() {
		if err := tx.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close sender")
		}
		st := tx.Stats()
		logrus.WithFields(logrus.Fields{
			"function":  "iqsender.run",
			"frames":    st.Frames,
			"datagrams": st.Datagrams,
			"samples":   st.Samples,
			"errors":    st.Errors,
		}).Info("Sender finished")
	}()

	gen := newTone(cfg.Sender.ToneHz, float64(cfg.Sender.SampleRate), cfg.Sender.Amplitude)
	return generate(ctx, tx, gen, cfg.Sender.SampleRate)
}

// openLink returns the UDP sender, behind a simulated link when impairments
// are configured or requested through the environment.
func openLink(cfg *config.Config) (interfaces.IDatagramSender, error) {
	udp, err := transport.NewSender(cfg.SenderTransport())
	if err != nil {
		return nil, err
	}

	link, err := factory.NewLinkFactory(cfg.LinkSettings()).CreateLink(udp)
	if err != nil {
		udp.Close()
		return nil, err
	}
	return link, nil
}

// generate writes samples at real time pace until ctx ends.
func generate(ctx context.Context, tx *sender.Sender, gen *tone, rate uint32) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	start := time.Now()
	var written uint64
	buf := make([]sample.Sample, 0, tx.SamplesPerFrame())
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			due := uint64(now.Sub(start).Seconds() * float64(rate))
			for written < due {
				n := min(int(due-written), cap(buf))
				buf = gen.fill(buf[:n])
				if err := tx.WriteSamples(buf); err != nil {
					return err
				}
				written += uint64(n)
			}
		}
	}
}

// tone is a complex exponential at 16 bits.
type tone struct {
	phase, step, amplitude float64
}

func newTone(hz, rate, amplitude float64) *tone {
	return &tone{step: 2 * math.Pi * hz / rate, amplitude: amplitude * math.MaxInt16}
}

func (t *tone) fill(dst []sample.Sample) []sample.Sample {
	for i := range dst {
		dst[i] = sample.Sample{
			Real: int32(math.Round(t.amplitude * math.Cos(t.phase))),
			Imag: int32(math.Round(t.amplitude * math.Sin(t.phase))),
		}
		t.phase = math.Mod(t.phase+t.step, 2*math.Pi)
	}
	return dst
}

func loadConfig(args []string) (*config.Config, time.Duration, error) {
	fs := pflag.NewFlagSet("iqsender", pflag.ContinueOnError)
	path := fs.StringP("config", "c", "", "YAML configuration file")
	address := fs.StringP("address", "a", "", "destination host:port")
	k := fs.IntP("original", "k", 0, "original blocks per frame")
	m := fs.IntP("recovery", "m", 0, "recovery blocks per frame")
	blockBytes := fs.Int("block-bytes", 0, "protected block size")
	sampleBytes := fs.Int("sample-bytes", 0, "bytes per I or Q component: 1, 2 or 4")
	rate := fs.Uint32("rate", 0, "sample rate")
	freq := fs.Uint64("freq", 0, "advertised center frequency in Hz")
	toneHz := fs.Float64("tone", 0, "tone offset in Hz")
	drop := fs.Float64("drop", 0, "artificial datagram loss probability")
	seed := fs.Int64("seed", 0, "seed for artificial impairments")
	duration := fs.Duration("duration", 0, "stop after this long, 0 to run until interrupted")
	logLevel := fs.String("log-level", "", "log level")

	if err := fs.Parse(args); err != nil {
		return nil, 0, err
	}

	cfg := config.Default()
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			return nil, 0, err
		}
		cfg = loaded
	}

	if fs.Changed("address") {
		cfg.Sender.Address = *address
	}
	if fs.Changed("original") {
		cfg.Sender.OriginalBlocks = *k
	}
	if fs.Changed("recovery") {
		cfg.Sender.RecoveryBlocks = *m
	}
	if fs.Changed("block-bytes") {
		cfg.Sender.BlockBytes = *blockBytes
	}
	if fs.Changed("sample-bytes") {
		cfg.Sender.SampleBytes = *sampleBytes
	}
	if fs.Changed("rate") {
		cfg.Sender.SampleRate = *rate
	}
	if fs.Changed("freq") {
		cfg.Sender.CenterFrequency = *freq
	}
	if fs.Changed("tone") {
		cfg.Sender.ToneHz = *toneHz
	}
	if fs.Changed("drop") {
		cfg.Link.DropRate = *drop
	}
	if fs.Changed("seed") {
		cfg.Link.Seed = *seed
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Sender.SampleRate == 0 {
		return nil, 0, fmt.Errorf("sample rate must be positive")
	}
	return cfg, *duration, nil
}
