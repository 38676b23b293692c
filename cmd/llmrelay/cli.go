package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/dispatch"
	"github.com/effective-security/llmrelay/pkg/fallback"
	"github.com/effective-security/llmrelay/pkg/llmfactory"
	"github.com/effective-security/llmrelay/pkg/registry"
	"github.com/effective-security/llmrelay/pkg/strategy"
	"github.com/effective-security/xlog"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/llmrelay", "cmd")

const (
	defaultPrompt   = "Explain quantum computing in simple terms."
	defaultStrategy = strategy.QualityFirst
)

// exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// newFactory and newAdapter build the provider stack, replaced in tests
var (
	newFactory = llmfactory.New
	newAdapter = func(factory llmfactory.Factory, reg *registry.Registry) fallback.Adapter {
		return dispatch.New(factory, reg)
	}
)

var logLevels = map[string]xlog.LogLevel{
	"critical": xlog.CRITICAL,
	"error":    xlog.ERROR,
	"warning":  xlog.WARNING,
	"warn":     xlog.WARNING,
	"notice":   xlog.NOTICE,
	"info":     xlog.INFO,
	"debug":    xlog.DEBUG,
	"trace":    xlog.TRACE,
}

type flags struct {
	strategy    string
	models      []string
	prompt      string
	requestFile string
	maxTokens   int
	temperature float64
	requestID   string
	format      string
	config      string
	registry    string
	envFile     string
	logLevel    string
	timeout     time.Duration
	verbose     bool
	trace       string
}

type cli struct {
	out    io.Writer
	errOut io.Writer

	flags   flags
	fs      *pflag.FlagSet
	reg     *registry.Registry
	catalog *strategy.Catalog
}

func newCLI(out, errOut io.Writer) *cli {
	c := &cli{
		out:     out,
		errOut:  errOut,
		catalog: strategy.Default(),
	}

	fs := pflag.NewFlagSet("llmrelay", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVarP(&c.flags.strategy, "strategy", "s", "", "named model order, see the strategies command")
	fs.StringSliceVarP(&c.flags.models, "models", "m", nil, "comma separated model keys, the first is the primary")
	fs.StringVarP(&c.flags.prompt, "prompt", "p", defaultPrompt, "prompt to send")
	fs.StringVarP(&c.flags.requestFile, "request", "r", "", "JSON request file, overrides other request flags")
	fs.IntVar(&c.flags.maxTokens, "max-tokens", fallback.DefaultMaxTokens, "max tokens to generate")
	fs.Float64Var(&c.flags.temperature, "temperature", fallback.DefaultTemperature, "sampling temperature, 0 to 2")
	fs.StringVar(&c.flags.requestID, "request-id", "", "request ID, generated when not set")
	fs.StringVarP(&c.flags.format, "format", "o", "text", "output format: text, json or yaml")
	fs.StringVarP(&c.flags.config, "config", "c", "", "providers configuration file, providers are taken from the environment when not set")
	fs.StringVar(&c.flags.registry, "registry", "", "models registry file, YAML, JSON or TOML")
	fs.StringVar(&c.flags.envFile, "env-file", ".env", "environment file to load when present")
	fs.StringVar(&c.flags.logLevel, "log-level", "error", "log level: critical, error, warning, notice, info, debug or trace")
	fs.DurationVar(&c.flags.timeout, "timeout", 0, "overall deadline for all attempts, 0 for none")
	fs.BoolVarP(&c.flags.verbose, "verbose", "v", false, "print each attempt as it completes")
	fs.StringVar(&c.flags.trace, "trace", "", "file to write each attempt to, one JSON object per line")
	fs.Usage = c.usage
	c.fs = fs
	return c
}

func (c *cli) usage() {
	fmt.Fprintf(c.errOut, "Usage: llmrelay [models|strategies|run|<strategy>] [flags]\n\nFlags:\n%s", c.fs.FlagUsages())
}

// run returns the process exit code
func (c *cli) run(args []string) int {
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if err := c.setup(); err != nil {
		fmt.Fprintf(c.errOut, "error: %s\n", err.Error())
		return exitUsage
	}

	cmd := "run"
	if rest := c.fs.Args(); len(rest) > 0 {
		cmd = rest[0]
		if len(rest) > 1 {
			fmt.Fprintf(c.errOut, "unexpected arguments: %s\n", strings.Join(rest[1:], " "))
			return exitUsage
		}
	}

	switch {
	case cmd == "models":
		return c.listModels()
	case cmd == "strategies":
		return c.listStrategies()
	case cmd == "run":
		return c.execute()
	case slices.Contains(c.catalog.Names(), cmd):
		if c.flags.strategy != "" && c.flags.strategy != cmd {
			fmt.Fprintf(c.errOut, "strategy %q conflicts with --strategy %q\n", cmd, c.flags.strategy)
			return exitUsage
		}
		c.flags.strategy = cmd
		return c.execute()
	}

	fmt.Fprintf(c.errOut, "Unknown option: %s\n", cmd)
	fmt.Fprintln(c.errOut, "Available options: models, strategies, run, or strategy name")
	return exitUsage
}

func (c *cli) setup() error {
	level, ok := logLevels[strings.ToLower(c.flags.logLevel)]
	if !ok {
		return errors.Newf("invalid log level %q", c.flags.logLevel)
	}
	xlog.SetFormatter(xlog.NewStringFormatter(c.errOut))
	xlog.SetGlobalLogLevel(level)

	switch c.flags.format {
	case "text", "json", "yaml":
	default:
		return errors.Newf("invalid format %q", c.flags.format)
	}

	if c.flags.envFile != "" {
		if _, err := os.Stat(c.flags.envFile); err == nil {
			if err = godotenv.Load(c.flags.envFile); err != nil {
				return errors.Wrapf(err, "unable to load %s", c.flags.envFile)
			}
		}
	}

	if c.flags.registry != "" {
		reg, err := registry.LoadFile(c.flags.registry)
		if err != nil {
			return err
		}
		c.reg = reg
	} else {
		c.reg = registry.Default()
	}

	if err := c.catalog.Validate(c.reg); err != nil {
		logger.KV(xlog.WARNING, "reason", "strategies", "err", err.Error())
	}
	return nil
}

func (c *cli) buildRequest() (*fallback.Request, string, error) {
	if c.flags.requestFile != "" {
		data, err := os.ReadFile(c.flags.requestFile)
		if err != nil {
			return nil, "", errors.WithStack(err)
		}
		req, err := fallback.ParseRequest(data)
		if err != nil {
			return nil, "", err
		}
		return req, "", nil
	}

	opts := []fallback.RequestOption{
		fallback.WithMaxTokens(c.flags.maxTokens),
		fallback.WithTemperature(c.flags.temperature),
		fallback.WithRequestID(c.flags.requestID),
	}
	if len(c.flags.models) > 0 {
		if c.flags.strategy != "" {
			return nil, "", errors.New("--models and strategy are mutually exclusive")
		}
		req, err := fallback.NewRequest(c.flags.prompt, c.flags.models, opts...)
		return req, "", err
	}

	name := c.flags.strategy
	if name == "" {
		name = defaultStrategy
	}
	req, err := c.catalog.Request(name, c.flags.prompt, opts...)
	return req, name, err
}

// factory returns the providers from --config, or from the environment
func (c *cli) factory() (llmfactory.Factory, error) {
	cfg := llmfactory.FromEnv()
	if c.flags.config != "" {
		var err error
		if cfg, err = llmfactory.LoadConfig(c.flags.config); err != nil {
			return nil, err
		}
	}
	return newFactory(cfg)
}

// traceObserver writes each attempt as a JSON line
func traceObserver(w io.Writer) fallback.Observer {
	enc := json.NewEncoder(w)
	return fallback.ObserverFunc(func(ctx context.Context, attempt fallback.Attempt) {
		if err := enc.Encode(attempt); err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"reason", "trace",
				"model", attempt.Model,
				"err", err.Error())
		}
	})
}

func (c *cli) execute() int {
	req, strategyName, err := c.buildRequest()
	if err != nil {
		fmt.Fprintf(c.errOut, "error: %s\n", err.Error())
		return exitUsage
	}

	factory, err := c.factory()
	if err != nil {
		fmt.Fprintf(c.errOut, "error: %s\n", err.Error())
		return exitUsage
	}

	var observers []fallback.Observer
	if c.flags.verbose {
		observers = append(observers, fallback.NewPrinter(c.errOut))
	}
	if c.flags.trace != "" {
		f, err := os.Create(c.flags.trace)
		if err != nil {
			fmt.Fprintf(c.errOut, "error: %s\n", err.Error())
			return exitUsage
		}
		defer f.Close()
		observers = append(observers, traceObserver(f))
	}

	var opts []fallback.Option
	if len(observers) > 0 {
		opts = append(opts, fallback.WithObserver(fallback.NewFanout(observers...)))
	}
	engine := fallback.New(c.reg, newAdapter(factory, c.reg), opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if c.flags.timeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, c.flags.timeout)
		defer tcancel()
	}

	if strategyName != "" && c.flags.format == "text" {
		fmt.Fprintf(c.out, "Using %s strategy\n", strategyName)
	}

	res := engine.Execute(ctx, req)
	if err = c.printResult(res); err != nil {
		fmt.Fprintf(c.errOut, "error: %s\n", err.Error())
		return exitFailed
	}
	if !res.Success {
		return exitFailed
	}
	return exitOK
}
