package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/compressor"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/config"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/presenter"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/progress"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/selector"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/target"
	ui "github.com/Pavankumarbhedam/Pdf-compressior/internal/tui"
	"github.com/Pavankumarbhedam/Pdf-compressior/internal/workflow"
	"github.com/Pavankumarbhedam/Pdf-compressior/pkg/utils"
)

// exitCode is a process termination code.
type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1
	exitUsage   exitCode = 2
)

// errReported marks a failure the user has already been told about.
var errReported = errors.New("failure reported")

// version is the client version from git tag.
var version = ""

func main() {
	os.Exit(int(gracefulMain()))
}

// gracefulMain releases resources before the process exits.
func gracefulMain() exitCode {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	var (
		configPath string
		serviceURL string
		targetRaw  string
		outDir     string
		logPath    string
		debugLog   bool
		showVer    bool
	)
	fs.StringVar(&configPath, "config", "", "Path to the YAML config file")
	fs.StringVar(&configPath, "c", "", "Alias of --config")
	fs.StringVar(&serviceURL, "url", "", "Base URL of the compression service")
	fs.StringVar(&serviceURL, "u", "", "Alias of --url")
	fs.StringVar(&targetRaw, "target", "", "Target size in KB (minimum 20)")
	fs.StringVar(&targetRaw, "t", "", "Alias of --target")
	fs.StringVar(&outDir, "out", "", "Directory compressed files are saved to")
	fs.StringVar(&outDir, "o", "", "Alias of --out")
	fs.StringVar(&logPath, "log", "", "Log file used by the interactive UI")
	fs.BoolVar(&debugLog, "debug", false, "Log state transitions")
	fs.BoolVar(&showVer, "v", false, "Show version")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [file.pdf]\n\nWith a file argument the PDF is compressed without the interactive UI.\nFlags must come before the file.\n\n", os.Args[0])
		fs.PrintDefaults()
	}

	err := fs.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		return exitSuccess
	}
	if err != nil {
		return exitUsage
	}
	if showVer {
		if version == "" {
			version = "dev"
		}
		fmt.Println(version)
		return exitSuccess
	}
	if err = checkArgs(fs.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	headless := fs.NArg() == 1

	cfg, err := config.Parse(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot parse config: %v\n", err)
		return exitFailure
	}
	if serviceURL != "" {
		cfg.Service.URL = serviceURL
	}
	if outDir != "" {
		cfg.Download.Dir = outDir
	}
	if logPath != "" {
		cfg.Log.Path = logPath
	}
	if targetRaw != "" {
		kb, err := target.Validate(targetRaw)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUsage
		}
		cfg.Target.DefaultKb = kb
	}
	if err = cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		return exitFailure
	}

	// the interactive UI owns the terminal, so its logs go to a file
	var sink io.Writer = os.Stderr
	if !headless {
		f, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
			return exitFailure
		}
		defer f.Close()
		sink = f
	}

	var logger log.Logger
	{
		logger = log.NewJSONLogger(log.NewSyncWriter(sink))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
		if debugLog {
			logger = level.NewFilter(logger, level.AllowDebug())
		} else if headless {
			logger = level.NewFilter(logger, level.AllowWarn())
		} else {
			logger = level.NewFilter(logger, level.AllowInfo())
		}
	}

	defer monitorPanic(logger)

	client, err := compressor.NewClient(cfg.Service.URL, cfg.Service.Timeout, logger)
	if err != nil {
		level.Error(logger).Log("msg", "cannot create service client", "err", err)
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	pres, err := presenter.New("", logger)
	if err != nil {
		level.Error(logger).Log("msg", "cannot create result store", "err", err)
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	defer pres.Close()

	frames := make(chan progress.Frame, 32)
	listener := ui.Listener(frames)
	if headless {
		listener = printProgress(os.Stderr)
	}
	anim := progress.NewAnimator(
		progress.WithInterval(cfg.Progress.Interval),
		progress.WithLogger(logger),
		progress.WithListener(listener),
	)

	orch := workflow.New(client, anim, pres, workflow.WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case <-ctx.Done():
			return nil
		case s := <-sig:
			level.Info(logger).Log("msg", "terminating", "signal", s)
			return fmt.Errorf("signal received: %s", s)
		}
	})

	group.Go(func() error {
		defer cancel()
		if headless {
			return runHeadless(ctx, orch, fs.Arg(0), cfg)
		}
		cwd, _ := os.Getwd()
		return ui.Run(ctx, orch, frames, ui.Options{
			DownloadDir:     cfg.Download.Dir,
			StartDir:        cwd,
			DefaultTargetKb: cfg.Target.DefaultKb,
		})
	})

	if err = group.Wait(); err != nil {
		if !errors.Is(err, errReported) {
			level.Error(logger).Log("msg", "stopped with error", "err", err)
			fmt.Fprintln(os.Stderr, err)
		}
		return exitFailure
	}
	return exitSuccess
}

// checkArgs validates what is left after flag parsing, which stops at the
// first positional argument.
func checkArgs(args []string) error {
	if len(args) <= 1 {
		return nil
	}
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "-") {
			return fmt.Errorf("flag %s after %s: flags must come before the file", a, args[0])
		}
	}
	return errors.New("only one PDF can be compressed at a time")
}

func runHeadless(ctx context.Context, orch *workflow.Orchestrator, path string, cfg config.Client) error {
	f, err := orch.SelectPath(path, selector.OriginPick)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return errReported
	}
	fmt.Fprintln(os.Stderr, selector.Label(f))

	out, err := orch.Submit(ctx, cfg.Target.DefaultKb)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return errReported
	}
	if !out.OK() {
		fmt.Fprintln(os.Stderr, out.Failure.Message)
		return errReported
	}

	saved, err := orch.Save(cfg.Download.Dir)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	r := orch.Snapshot().Result
	fmt.Printf("Original size:   %s\n", r.OriginalSize)
	fmt.Printf("Target size:     %s\n", r.TargetSize)
	fmt.Printf("Compressed size: %s (%.1f%% smaller)\n", r.CompressedSize, utils.Reduction(r.OriginalBytes, r.CompressedBytes))
	fmt.Printf("Saved %s to %s\n", humanize.Bytes(uint64(r.CompressedBytes)), saved)
	return nil
}

// printProgress renders frames on a single terminal line.
func printProgress(w io.Writer) progress.Listener {
	return func(f progress.Frame) {
		switch {
		case f.Finished:
			fmt.Fprintf(w, "\rFinalizing… 100%%\n")
		case f.Stopped:
			fmt.Fprintln(w)
		default:
			fmt.Fprintf(w, "\rCompressing… %3.0f%%", f.Percent*100)
		}
	}
}

// monitorPanic logs a panic before re-raising it.
func monitorPanic(logger log.Logger) {
	if rec := recover(); rec != nil {
		err := fmt.Sprintf("panic: %v \n stack trace: %s", rec, debug.Stack())
		level.Error(logger).Log("err", err)
		panic(err)
	}
}
