// Command bruteloom is the bruteloom binary. Invoked as "bruteloom serve" it
// runs the session supervisor's REST and MCP surfaces; invoked as
// "bruteloom <plugin-id> [flags]" it runs a single campaign to completion
// in the current process and exits, which is also the shape
// SubprocessBackend re-execs to isolate a REST-launched session.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/schollz/progressbar/v3"

	"github.com/wardenlabs/bruteloom/pkg/api"
	"github.com/wardenlabs/bruteloom/pkg/config"
	"github.com/wardenlabs/bruteloom/pkg/mcpserver"
	"github.com/wardenlabs/bruteloom/pkg/plugin"
	"github.com/wardenlabs/bruteloom/pkg/plugin/plugintest"
	"github.com/wardenlabs/bruteloom/pkg/registry"
	"github.com/wardenlabs/bruteloom/pkg/scheduler"
	"github.com/wardenlabs/bruteloom/pkg/session"
	"github.com/wardenlabs/bruteloom/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newPluginRegistry() *plugin.Registry {
	reg := plugin.NewRegistry()
	reg.Register(&plugin.HTTPBasic{})
	reg.Register(&plugin.TCPConnect{})
	if getEnv("BRUTELOOM_ENABLE_MOCK_PLUGIN", "") != "" {
		reg.Register(plugintest.NewMock("mock"))
	}
	return reg
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: bruteloom serve | bruteloom <plugin-id> [flags]")
		os.Exit(2)
	}

	if os.Args[1] == "serve" {
		runServe(os.Args[2:])
		return
	}

	runDirect(os.Args[1:])
}

// runServe wires the session registry to both the REST surface and the MCP
// stdio surface, then blocks serving the REST listener.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configDir := fs.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	_ = fs.Parse(args)

	log.Printf("starting %s", version.Full())
	log.Printf("config directory: %s", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	plugins := newPluginRegistry()
	reg := registry.New(plugins, cfg.Server.ConcurrencyCap)

	apiServer := api.NewServer(reg, session.SubprocessBackend{})

	if cfg.Server.MCPEnabled {
		mcpSrv := mcpserver.New(reg)
		go func() {
			log.Println("serving MCP tools over stdio")
			if err := mcpSrv.ServeStdio(); err != nil {
				slog.Error("mcp server exited", "error", err)
			}
		}()
	}

	gin.SetMode(getEnv("GIN_MODE", "release"))
	router := gin.Default()
	apiServer.Routes(router)
	router.GET("/health", apiServer.Health)

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: router}

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("REST listener on %s", cfg.Server.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// runDirect parses argv as a single-plugin campaign and runs it to
// completion in this process, emitting findings and progress over stdout
// using the wire protocol SubprocessBackend's streamLines understands.
func runDirect(argv []string) {
	plugins := newPluginRegistry()

	campaign, err := session.ParseArgv(argv, plugins)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.NewOptions64(int64(campaign.SearchSpaceSize),
		progressbar.OptionSetDescription(campaign.PluginID),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	campaign.SchedulerConfig.Sink = stdoutSink{bar: bar}
	sched := scheduler.New(campaign.SchedulerConfig)

	res, err := sched.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch {
	case res.HadFatal:
		os.Exit(1)
	case res.Cancelled:
		os.Exit(130)
	default:
		os.Exit(0)
	}
}

// stdoutSink implements scheduler.Sink for a direct-run process. Findings
// and progress markers go to stdout, line by line, so a parent
// SubprocessBackend can recover them without shared memory; a human running
// the same command at a terminal instead sees a progress bar and colored
// finding summaries on stderr.
type stdoutSink struct {
	bar *progressbar.ProgressBar
}

func (s stdoutSink) Loot(l *plugin.Loot) {
	b, err := json.Marshal(l)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("LOOT " + string(b))
	color.New(color.FgGreen, color.Bold).Fprintf(os.Stderr, "\nFOUND %s:%d %v\n", l.Target, l.Port, l.Credentials)
}

func (stdoutSink) Output(line string) {
	fmt.Println(line)
}

func (s stdoutSink) AttemptDone() {
	fmt.Println("ATTEMPT_DONE")
	if s.bar != nil {
		_ = s.bar.Add(1)
	}
}
