package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lixenwraith/netlog"
	"github.com/lixenwraith/netlog/compat"
	"github.com/panjf2000/gnet/v2"
	"github.com/urfave/cli"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
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
	app.Name = "netlog-collector"
	app.Usage = "Receive newline-delimited log records over TCP and print them."
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen, l",
			Usage: "TCP address records are received on.",
			Value: "127.0.0.1:5170",
		},
		cli.StringFlag{
			Name:  "stats, s",
			Usage: "HTTP address serving /stats. Empty disables it.",
			Value: "127.0.0.1:5171",
		},
		cli.BoolFlag{
			Name:  "multicore",
			Usage: "Run one gnet event loop per CPU.",
		},
		cli.BoolFlag{
			Name:  "quiet, q",
			Usage: "Count records without printing them.",
		},
		cli.StringFlag{
			Name:  "level",
			Usage: "Level of the collector's own diagnostics.",
			Value: "info",
		},
	}
	app.Action = runCollector
	return app
}

// collectorStats are totals across all connections
type collectorStats struct {
	ActiveConns atomic.Int64
	TotalConns  atomic.Uint64
	Records     atomic.Uint64
	Bytes       atomic.Uint64
	started     time.Time
}

func (s *collectorStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"active_connections": s.ActiveConns.Load(),
		"total_connections":  s.TotalConns.Load(),
		"records":            s.Records.Load(),
		"bytes":              s.Bytes.Load(),
		"uptime_seconds":     int64(time.Since(s.started).Seconds()),
	})
}

// collector splits each connection's stream into records
type collector struct {
	gnet.BuiltinEventEngine

	eng    gnet.Engine
	logger *netlog.Logger
	out    netlog.LogWriter // nil when quiet
	stats  *collectorStats
}

func (c *collector) OnBoot(eng gnet.Engine) gnet.Action {
	c.eng = eng
	c.logger.Info("collector started")
	return gnet.None
}

func (c *collector) OnOpen(conn gnet.Conn) ([]byte, gnet.Action) {
	conn.SetContext(bytebufferpool.Get())
	c.stats.ActiveConns.Add(1)
	c.stats.TotalConns.Add(1)
	c.logger.LogStructured(netlog.LevelInfo, "writer connected", map[string]any{
		"remote": conn.RemoteAddr().String(),
	})
	return nil, gnet.None
}

func (c *collector) OnClose(conn gnet.Conn, err error) gnet.Action {
	c.stats.ActiveConns.Add(-1)
	if buf, ok := conn.Context().(*bytebufferpool.ByteBuffer); ok {
		// An unterminated tail is still a record
		if buf.Len() > 0 {
			_, _ = buf.WriteString("\n")
			c.emit(buf.B)
		}
		bytebufferpool.Put(buf)
		conn.SetContext(nil)
	}

	fields := map[string]any{"remote": conn.RemoteAddr().String()}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.logger.LogStructured(netlog.LevelInfo, "writer disconnected", fields)
	return gnet.None
}

func (c *collector) OnTraffic(conn gnet.Conn) gnet.Action {
	data, err := conn.Next(-1)
	if err != nil {
		c.logger.Error("read failed:", err)
		return gnet.Close
	}
	buf, ok := conn.Context().(*bytebufferpool.ByteBuffer)
	if !ok {
		return gnet.Close
	}
	c.stats.Bytes.Add(uint64(len(data)))
	_, _ = buf.Write(data)

	start := 0
	for {
		i := bytes.IndexByte(buf.B[start:], '\n')
		if i < 0 {
			break
		}
		end := start + i + 1
		c.emit(buf.B[start:end])
		start = end
	}

	// Keep the partial record for the next read
	n := copy(buf.B, buf.B[start:])
	buf.B = buf.B[:n]
	return gnet.None
}

func (c *collector) emit(record []byte) {
	c.stats.Records.Add(1)
	if c.out != nil {
		c.out.WriteMessage(record, 0)
	}
}

// statsHandler serves the collector counters
func statsHandler(stats *collectorStats) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/stats":
			body, err := json.Marshal(stats)
			if err != nil {
				ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
				return
			}
			ctx.SetContentType("application/json")
			ctx.SetBody(body)
		default:
			ctx.Error("not found", fasthttp.StatusNotFound)
		}
	}
}

func runCollector(c *cli.Context) error {
	level, err := netlog.Level(c.String("level"))
	if err != nil {
		return err
	}

	// Collector diagnostics go to stderr, received records to stdout
	cfg := netlog.DefaultConfig()
	cfg.Format = "txt"
	cfg.Level = level
	cfg.Category = "collector"
	logger := netlog.NewLogger()
	if err := logger.ApplyConfigWithOutput(cfg, netlog.NewStreamWriter(os.Stderr)); err != nil {
		return err
	}
	defer logger.Shutdown()

	stats := &collectorStats{started: time.Now()}
	handler := &collector{logger: logger, stats: stats}
	if !c.Bool("quiet") {
		handler.out = netlog.NewStreamWriter(os.Stdout)
	}

	var httpServer *fasthttp.Server
	if addr := c.String("stats"); addr != "" {
		httpServer = &fasthttp.Server{
			Handler:      statsHandler(stats),
			Logger:       compat.NewFastHTTPAdapter(logger),
			Name:         "netlog-collector",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpServer.ListenAndServe(addr); err != nil {
				logger.Error("stats server stopped:", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := handler.eng.Stop(ctx); err != nil {
			logger.Warn("engine stop:", err)
		}
		if httpServer != nil {
			_ = httpServer.ShutdownWithContext(ctx)
		}
	}()

	err = gnet.Run(handler, "tcp://"+c.String("listen"),
		gnet.WithMulticore(c.Bool("multicore")),
		gnet.WithReusePort(true),
		gnet.WithLogger(compat.NewGnetAdapter(logger, compat.WithFatalHandler(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
			os.Exit(1)
		}))),
	)

	logger.LogStructured(netlog.LevelInfo, "collector stopped", map[string]any{
		"records": stats.Records.Load(),
		"bytes":   stats.Bytes.Load(),
	})
	return err
}
