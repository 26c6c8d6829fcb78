package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"homebroker/internal/config"
	"homebroker/internal/ingest"
	"homebroker/internal/normalize"
	"homebroker/internal/obs"
	"homebroker/internal/online"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		logs.Errorf("online: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "config file (yaml, json or toml)")
	envFlag := flag.String("env", ".env", "dotenv file loaded before the config")
	marketFlag := flag.Bool("market-snapshot", false, "log a one-shot market snapshot after connecting")
	flag.Parse()

	if err := config.LoadEnv(*envFlag); err != nil {
		return err
	}
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	logs.Infof("broker %d %s at %s", cfg.Broker.ID, cfg.Broker.Name, cfg.Session.BaseURL)

	if cfg.Profiling.ServerAddress != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.Profiling.ApplicationName,
			ServerAddress:   cfg.Profiling.ServerAddress,
			Logger:          profilerLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cfg.Online.Hub.Metrics = obs.NewMetrics(reg)

	lost := make(chan struct{}, 1)
	client := online.NewWithSession(cfg.Session, callbacks(lost), cfg.Online)

	srv := &http.Server{
		Addr:              cfg.Ops.Addr,
		Handler:           opsRouter(reg, client),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Errorf("ops server: %+v", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(); err != nil {
			logs.Errorf("disconnect: %+v", err)
		}
	}()

	if *marketFlag {
		logMarketSnapshot(ctx, client)
	}

	if err := subscribe(ctx, client, cfg.Subscribe); err != nil {
		return err
	}

	select {
	case <-sys.Shutdown():
		logs.Info("shutdown")
	case <-lost:
		return errors.New("hub connection lost")
	}

	unsubscribe(ctx, client, cfg.Subscribe)
	return nil
}

func callbacks(lost chan<- struct{}) *ingest.Callbacks {
	return &ingest.Callbacks{
		OnOpen:  func() { logs.Info("hub connected") },
		OnClose: func() { logs.Info("hub disconnected") },
		OnPersonalPortfolio: func(p *normalize.PortfolioTable, ob *normalize.OrderBookTable) {
			logs.Infof("portfolio: %d positions, %d order book levels", p.Len(), ob.Len())
		},
		OnSecurities: func(t *normalize.SecuritiesTable) {
			logs.Infof("securities: %d rows", t.Len())
		},
		OnOptions: func(t *normalize.OptionsTable) {
			logs.Infof("options: %d rows", t.Len())
		},
		OnRepos: func(t *normalize.ReposTable) {
			logs.Infof("repos: %d rows", t.Len())
		},
		OnOrderBook: func(t *normalize.OrderBookTable) {
			logs.Infof("order book: %d levels", t.Len())
		},
		OnError: func(err error, connectionLost bool) {
			logs.Errorf("online error (connection lost: %v): %+v", connectionLost, err)
			if connectionLost {
				select {
				case lost <- struct{}{}:
				default:
				}
			}
		},
	}
}

func opsRouter(reg *prometheus.Registry, client *online.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !client.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("disconnected"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func subscribe(ctx context.Context, client *online.Client, s config.SubscribeConfig) error {
	if s.PersonalPortfolio {
		if err := client.SubscribePersonalPortfolio(ctx); err != nil {
			return err
		}
	}
	for _, sec := range s.Securities {
		if err := client.SubscribeSecurities(ctx, sec.Board, sec.Settlement); err != nil {
			return err
		}
	}
	if s.Options {
		if err := client.SubscribeOptions(ctx); err != nil {
			return err
		}
	}
	if s.Repos {
		if err := client.SubscribeRepos(ctx); err != nil {
			return err
		}
	}
	for _, ob := range s.OrderBooks {
		if err := client.SubscribeOrderBook(ctx, ob.Symbol, ob.Settlement); err != nil {
			return err
		}
	}
	return nil
}

// unsubscribe is best effort, the connection is closed right after.
func unsubscribe(ctx context.Context, client *online.Client, s config.SubscribeConfig) {
	logErr := func(err error) {
		if err != nil {
			logs.Warnf("unsubscribe: %+v", err)
		}
	}
	for _, ob := range s.OrderBooks {
		logErr(client.UnsubscribeOrderBook(ctx, ob.Symbol, ob.Settlement))
	}
	if s.Repos {
		logErr(client.UnsubscribeRepos(ctx))
	}
	if s.Options {
		logErr(client.UnsubscribeOptions(ctx))
	}
	for _, sec := range s.Securities {
		logErr(client.UnsubscribeSecurities(ctx, sec.Board, sec.Settlement))
	}
	if s.PersonalPortfolio {
		logErr(client.UnsubscribePersonalPortfolio(ctx))
	}
}

func logMarketSnapshot(ctx context.Context, client *online.Client) {
	snap, err := client.MarketSnapshot(ctx)
	if err != nil {
		logs.Errorf("market snapshot: %+v", err)
		return
	}
	for board, table := range snap.Boards {
		logs.Infof("market snapshot %s: %d rows", board, table.Len())
	}
	logs.Infof("market snapshot options: %d rows", snap.Options.Len())
}

type profilerLogger struct{}

func (profilerLogger) Infof(format string, args ...interface{})  { logs.Infof(format, args...) }
func (profilerLogger) Debugf(format string, args ...interface{}) { logs.Debugf(format, args...) }
func (profilerLogger) Errorf(format string, args ...interface{}) { logs.Errorf(format, args...) }
