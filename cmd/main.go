package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aukilabs/cellnet/controller"
	"github.com/aukilabs/cellnet/export"
	"github.com/aukilabs/cellnet/featureflag"
	cellhttp "github.com/aukilabs/cellnet/http"
	"github.com/aukilabs/cellnet/network"
	"github.com/aukilabs/cellnet/persist"
	"github.com/aukilabs/cellnet/smoketest"
	cellwebsocket "github.com/aukilabs/cellnet/websocket"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The cellnet version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "cellnet_info",
		Help:        "Cellnet information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Level              string        `cli:""        env:"CELLNET_LEVEL"                help:"The JSON level to build the network set from."`
	Load               string        `cli:""        env:"CELLNET_LOAD"                 help:"The binary network set to load instead of building one."`
	Save               string        `cli:""        env:"CELLNET_SAVE"                 help:"The file where the network set is saved."`
	Tolerance          float64       `cli:""        env:"CELLNET_TOLERANCE"            help:"The maximum difference between matching portal vertex components."`
	Matcher            string        `cli:""        env:"CELLNET_MATCHER"              help:"Portal matching strategy (scan|indexed)."`
	OBJ                string        `cli:""        env:"CELLNET_OBJ"                  help:"The file where the Wavefront OBJ export is written."`
	OBJTexture         bool          `cli:""        env:"CELLNET_OBJ_TEXTURE"          help:"Writes texture coordinates in the OBJ export."`
	OBJTriangles       bool          `cli:""        env:"CELLNET_OBJ_TRIANGLES"        help:"Splits quads into triangles in the OBJ export."`
	OBJGroups          bool          `cli:""        env:"CELLNET_OBJ_GROUPS"           help:"Writes one OBJ group per cell."`
	OBJPortals         bool          `cli:""        env:"CELLNET_OBJ_PORTALS"          help:"Writes portals in the OBJ export."`
	OBJVerticalOrder   bool          `cli:",hidden" env:"CELLNET_OBJ_VERTICAL_ORDER"   help:"Writes V texture coordinates as stored."`
	OBJMaterialLib     string        `cli:",hidden" env:"CELLNET_OBJ_MATERIAL_LIB"     help:"The material library referenced by the OBJ export."`
	Serve              bool          `cli:""        env:"CELLNET_SERVE"                help:"Serves locate queries once the set is ready."`
	Addr               string        `cli:""        env:"CELLNET_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"CELLNET_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"CELLNET_PUBLIC_ENDPOINT"      help:"The public endpoint where this server is reachable."`
	LogLevel           string        `cli:""        env:"CELLNET_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"CELLNET_LOG_INDENT"           help:"Indent logs."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"CELLNET_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	LogSummaryInterval time.Duration `cli:",hidden" env:"CELLNET_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	FeatureFlags       []string      `cli:",hidden" env:"CELLNET_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                            help:"Show version."`
	Help               bool          `cli:""        env:"-"                            help:"Show help."`
}

func main() {
	conf := config{
		Matcher:            network.MatchScan.String(),
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		LogLevel:           logs.InfoLevel.String(),
		ClientIdleTimeout:  time.Minute * 5,
		LogSummaryInterval: time.Minute,
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Builds, stores and serves cell and portal networks.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	flags := featureflag.New(conf.FeatureFlags)
	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("feature_flags", flags.Names()).
		Info("starting cellnet")

	set, err := loadSet(conf, flags)
	if err != nil {
		logs.Fatal(err)
	}

	if conf.Save != "" {
		if err := saveSet(conf.Save, set); err != nil {
			logs.Fatal(err)
		}
	}

	if conf.OBJ != "" {
		if err := exportSet(conf, set); err != nil {
			logs.Fatal(err)
		}
	}

	if conf.Serve {
		serve(ctx, conf, flags, set)
	}
}

func networkOptions(conf config, flags featureflag.FeatureFlag) []network.Option {
	matcher, _ := network.ParseMatcher(conf.Matcher)
	flags.IfSet(featureflag.FlagIndexedPortalMatching, func() {
		matcher = network.MatchIndexed
	})

	return []network.Option{
		network.WithTolerance(float32(conf.Tolerance)),
		network.WithMatcher(matcher),
	}
}

func loadSet(conf config, flags featureflag.FeatureFlag) (*network.Set, error) {
	opts := networkOptions(conf, flags)

	if conf.Load != "" {
		f, err := os.Open(conf.Load)
		if err != nil {
			return nil, errors.New("opening network set failed").
				WithTag("file_name", conf.Load).
				Wrap(err)
		}
		defer f.Close()

		set, err := persist.Decode(f)
		if err != nil {
			return nil, errors.New("loading network set failed").
				WithTag("file_name", conf.Load).
				Wrap(err)
		}

		if flags.IsSet(featureflag.FlagRebuildOnLoad) {
			logs.WithTag("set_id", set.ID.String()).Info("rebuilding portals")
			return network.Rebuild(set, opts...)
		}
		return set, nil
	}

	f, err := os.Open(conf.Level)
	if err != nil {
		return nil, errors.New("opening level failed").
			WithTag("file_name", conf.Level).
			Wrap(err)
	}
	defer f.Close()

	cells, err := persist.ReadLevel(f)
	if err != nil {
		return nil, errors.New("reading level failed").
			WithTag("file_name", conf.Level).
			Wrap(err)
	}
	return network.NewSet(cells, opts...)
}

func saveSet(filename string, set *network.Set) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.New("creating network set file failed").
			WithTag("file_name", filename).
			Wrap(err)
	}
	defer f.Close()

	if err := persist.Encode(f, set); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.New("closing network set file failed").
			WithTag("file_name", filename).
			Wrap(err)
	}

	logs.WithTag("set_id", set.ID.String()).
		WithTag("file_name", filename).
		Info("network set saved")
	return nil
}

func exportSet(conf config, set *network.Set) error {
	f, err := os.Create(conf.OBJ)
	if err != nil {
		return errors.New("creating obj file failed").
			WithTag("file_name", conf.OBJ).
			Wrap(err)
	}
	defer f.Close()

	err = export.WriteOBJ(f, set, export.Options{
		Texture:           conf.OBJTexture,
		KeepVerticalOrder: conf.OBJVerticalOrder,
		Triangles:         conf.OBJTriangles,
		GroupPerCell:      conf.OBJGroups,
		Portals:           conf.OBJPortals,
		MaterialLib:       conf.OBJMaterialLib,
	})
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.New("closing obj file failed").
			WithTag("file_name", conf.OBJ).
			Wrap(err)
	}

	logs.WithTag("set_id", set.ID.String()).
		WithTag("file_name", conf.OBJ).
		Info("network set exported")
	return nil
}

var serviceRoutes = []string{
	"/health",
	"/ready",
	"/version",
	"/set",
	"/locate",
	"/locate/stream",
	"/smoketest",
}

func serve(ctx context.Context, conf config, flags featureflag.FeatureFlag, set *network.Set) {
	cs := controller.NewSet(set)
	useHint := !flags.IsSet(featureflag.FlagDisableLocateHint)

	var ready atomic.Bool
	readinessCheck := func() bool {
		return ready.Load()
	}

	var service http.ServeMux
	service.Handle("/health", cellhttp.HandleWithCORS(http.HandlerFunc(cellhttp.HandleHealthCheck)))
	service.Handle("/ready", cellhttp.HandleWithCORS(cellhttp.HandleReadyCheck(readinessCheck)))
	service.Handle("/version", cellhttp.HandleWithCORS(cellhttp.HandleVersion(version)))
	service.Handle("/set", cellhttp.HandleWithCORS(cellhttp.HandleSetInfo(cs)))
	service.Handle("/locate", cellhttp.HandleWithCORS(cellhttp.HandleLocate(cs, useHint)))

	service.Handle("/smoketest", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:  conf.PublicEndpoint,
		UserAgent: "cellnet/" + version,
		SendResult: func(_ context.Context, res smoketest.Results) error {
			logs.WithTag("from_endpoint", res.FromEndpoint).
				WithTag("to_endpoint", res.ToEndpoint).
				WithTag("status", res.Status).
				WithTag("latency_ms", res.LatencyMilliSec).
				WithTag("located", res.Located).
				WithTag("missed", res.Missed).
				Info("smoke test done")
			return nil
		},
	}))

	service.Handle("/locate/stream", websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var h cellwebsocket.Handler = &cellwebsocket.LocateHandler{
				Set:               cs,
				ClientIdleTimeout: conf.ClientIdleTimeout,
				DisableHint:       !useHint,
			}
			h = cellwebsocket.HandlerWithLogs(h, conf.LogSummaryInterval)
			h = cellwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			cellwebsocket.Handle(ctx, conn, h)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", cellhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.HandleFunc("/ready", cellhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("set_id", set.ID.String()).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("network_count", set.Len()).
		Info("serving network set")

	ready.Store(true)
	cellhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			cellhttp.NewMetricsPathFormatter(serviceRoutes...))},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if conf.Level == "" && conf.Load == "" {
		return errors.New("have to specify either a level or a network set to load")
	}

	if conf.Level != "" && conf.Load != "" {
		return errors.New("have to specify either a level or a network set to load, not both")
	}

	if conf.Tolerance < 0 {
		return errors.New("tolerance cannot be negative").
			WithTag("tolerance", conf.Tolerance)
	}

	if _, ok := network.ParseMatcher(conf.Matcher); !ok {
		return errors.New("unknown portal matcher").
			WithTag("matcher", conf.Matcher)
	}

	if conf.Serve {
		if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
			return errors.New("invalid public endpoint").Wrap(err)
		}
	}

	return nil
}
