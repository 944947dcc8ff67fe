package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/netlog"
	"github.com/urfave/cli"
)

var levels = []int64{
	netlog.LevelDebug,
	netlog.LevelInfo,
	netlog.LevelWarn,
	netlog.LevelError,
}

func main() {
	app := makeApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = "netlog-stress"
	app.Usage = "Flood a collector from many goroutines and report writer statistics."
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "host",
			Value: "127.0.0.1",
		},
		cli.IntFlag{
			Name:  "port, p",
			Value: 5170,
		},
		cli.IntFlag{
			Name:  "workers, w",
			Usage: "Number of logging goroutines.",
			Value: 64,
		},
		cli.IntFlag{
			Name:  "records, n",
			Usage: "Records per worker.",
			Value: 1000,
		},
		cli.IntFlag{
			Name:  "max-message",
			Usage: "Upper bound of the random message size in bytes.",
			Value: 2000,
		},
		cli.StringFlag{
			Name:  "buffer",
			Usage: "Pending buffer cap of the writer.",
			Value: "1MB",
		},
		cli.DurationFlag{
			Name:  "drain",
			Usage: "How long to wait for pending records after the run.",
			Value: 10 * time.Second,
		},
	}
	app.Action = runStress
	return app
}

func generateRandomMessage(r *rand.Rand, size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[r.Intn(len(chars))])
	}
	return sb.String()
}

// worker logs records of random level and size
func worker(id int, logger *netlog.Logger, records, maxMessage int, wg *sync.WaitGroup) {
	defer wg.Done()
	r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	for i := 0; i < records; i++ {
		msg := generateRandomMessage(r, r.Intn(maxMessage)+10)
		fields := map[string]any{"wkr": id, "seq": i}
		logger.LogStructured(levels[r.Intn(len(levels))], msg, fields)
	}
}

func runStress(c *cli.Context) error {
	var dropped atomic.Uint64
	logger, err := netlog.NewBuilder().
		Endpoint(c.String("host"), int64(c.Int("port"))).
		MaxBufferSize(c.String("buffer")).
		Level(netlog.LevelDebug).
		Category("stress").
		OnDiscard(netlog.DiscardFunc(func([]byte, netlog.DropReason) {
			dropped.Add(1)
		})).
		Build()
	if err != nil {
		return err
	}

	workers, records := c.Int("workers"), c.Int("records")
	fmt.Printf("Starting stress test: %d workers, %d records each, messages up to %d bytes.\n",
		workers, records, c.Int("max-message"))

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(i, logger, records, c.Int("max-message"), &wg)
	}
	wg.Wait()
	produced := time.Since(start)

	shutdownErr := logger.Shutdown(c.Duration("drain"))
	elapsed := time.Since(start)

	w := logger.Output().(*netlog.Writer)
	st := w.Stats()
	total := workers * records
	fmt.Printf("Produced %d records in %v (%.0f/s)\n", total, produced, float64(total)/produced.Seconds())
	fmt.Printf("Sent:     %d records, %d bytes in %v\n", st.SentMessages, st.SentBytes, elapsed)
	fmt.Printf("Dropped:  %d records, %d bytes (observer saw %d)\n", st.DroppedMessages, st.DroppedBytes, dropped.Load())
	fmt.Printf("Pending:  %d records at close\n", total-int(st.SentMessages)-int(st.DroppedMessages))
	fmt.Printf("Connects: %d attempts, %d failures, %d reconnects, %d write failures\n",
		st.ConnectAttempts, st.ConnectFailures, st.Reconnects, st.WriteFailures)
	if st.LastError != nil {
		fmt.Printf("Last error: %v\n", st.LastError)
	}
	return shutdownErr
}
