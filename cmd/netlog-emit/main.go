package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/netlog"
	"github.com/urfave/cli"
)

func main() {
	app := makeApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = "netlog-emit"
	app.Usage = "Send log records to a netlog collector."
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "TOML file with a [netlog] table.",
		},
		cli.StringSliceFlag{
			Name:  "set",
			Usage: "Override a setting as key=value, e.g. --set host=localhost --set port=5170.",
		},
		cli.IntFlag{
			Name:  "count, n",
			Usage: "Number of sample records to send.",
			Value: 5,
		},
		cli.DurationFlag{
			Name:  "interval",
			Usage: "Delay between sample records.",
			Value: 100 * time.Millisecond,
		},
		cli.BoolFlag{
			Name:  "stdin",
			Usage: "Send each line read from stdin instead of sample records.",
		},
		cli.DurationFlag{
			Name:  "drain",
			Usage: "How long to wait for pending records on exit.",
			Value: 5 * time.Second,
		},
	}
	app.Action = runEmit
	return app
}

// loadConfig reads the config file if given, then applies overrides
func loadConfig(c *cli.Context) (*netlog.Config, error) {
	cfg := netlog.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := netlog.NewConfigFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyOverride(c.StringSlice("set")...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runEmit(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := netlog.NewLogger()
	if err := logger.ApplyConfig(cfg); err != nil {
		return err
	}

	if c.Bool("stdin") {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			logger.Info(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			logger.Error("reading stdin:", err)
		}
	} else {
		emitSamples(logger, c.Int("count"), c.Duration("interval"))
	}

	shutdownErr := logger.Shutdown(c.Duration("drain"))
	if w, ok := logger.Output().(*netlog.Writer); ok {
		st := w.Stats()
		fmt.Printf("sent=%d dropped=%d connect_failures=%d last_error=%v\n",
			st.SentMessages, st.DroppedMessages, st.ConnectFailures, st.LastError)
	}
	return shutdownErr
}

func emitSamples(logger *netlog.Logger, count int, interval time.Duration) {
	for i := 0; i < count; i++ {
		switch i % 4 {
		case 0:
			logger.Info("sample record", i)
		case 1:
			logger.Warn("sample warning", i)
		case 2:
			logger.LogStructured(netlog.LevelInfo, "sample structured record", map[string]any{
				"seq":  i,
				"host": hostname(),
			})
		case 3:
			logger.Error("sample error", i)
		}
		if interval > 0 && i < count-1 {
			time.Sleep(interval)
		}
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
