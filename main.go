package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/BrugadaSyndrome/bslogger"

	"mandelbrot/display"
	"mandelbrot/mandelbrot"
	"mandelbrot/misc"
	"mandelbrot/output"
	"mandelbrot/render"
	"mandelbrot/tracing"
)

var errUsage = errors.New("usage")

type options struct {
	address, outputFile, settingsFile, traceFile string
	remoteDisplay, serve, verbose                bool
	workers                                      int
}

func main() {
	// bslogger, and multirpc through it, prints info lines on os.Stdout. The image keeps the real
	// stdout and every log line goes to stderr.
	image := os.Stdout
	os.Stdout = os.Stderr
	os.Exit(run(os.Args[1:], image, os.Stderr))
}

// run is the whole process: it draws the image on stdout (or a file) and returns the exit code.
func run(args []string, stdout io.Writer, stderr io.Writer) int {
	opts, err := parseArguments(args, stderr)
	if err != nil {
		return 1
	}

	settings, err := render.NewSettings(opts.settingsFile)
	logger := misc.NewLogger("Mandelbrot", opts.verbose || settings.Verbose)
	if misc.CheckError(err, logger, misc.Error) {
		return 1
	}
	opts.apply(&settings)
	logger.Debug(settings.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.serve {
		err = startDisplay(ctx, settings, stdout, logger)
	} else {
		settings.Workers = opts.workers
		err = startRender(ctx, opts, settings, stdout, logger)
	}
	if misc.CheckError(err, logger, misc.Error) {
		return 1
	}

	fmt.Fprintln(stdout, "OK.")
	return 0
}

func parseArguments(args []string, stderr io.Writer) (options, error) {
	opts := options{}
	flags := flag.NewFlagSet("mandelbrot", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		usage(flags)
	}
	flags.StringVar(&opts.address, "address", "", "Display server address (default this machine on port 51000)")
	flags.BoolVar(&opts.remoteDisplay, "display", false, "Send rows to a display server instead of the terminal")
	flags.StringVar(&opts.outputFile, "output", "", "Write the image to this file instead of stdout")
	flags.BoolVar(&opts.serve, "serve", false, "Run a display server that prints rows sent by a renderer")
	flags.StringVar(&opts.settingsFile, "settings", "", "JSON or YAML settings file")
	flags.StringVar(&opts.traceFile, "trace", "", "Write OpenTelemetry spans to this file")
	flags.BoolVar(&opts.verbose, "verbose", false, "Log progress")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	if opts.serve {
		if flags.NArg() != 0 {
			flags.Usage()
			return opts, errUsage
		}
		return opts, nil
	}

	if flags.NArg() != 1 {
		flags.Usage()
		return opts, errUsage
	}
	workers, err := strconv.Atoi(flags.Arg(0))
	if err != nil || workers <= 0 {
		fmt.Fprintf(stderr, "`%s' is not valid for `thread_count'\n", flags.Arg(0))
		return opts, errUsage
	}
	opts.workers = workers
	return opts, nil
}

func usage(flags *flag.FlagSet) {
	fmt.Fprintf(flags.Output(), "Usage: %s [flags] thread_count\n\n"+
		"Exactly 1 argument required:\n"+
		"    thread_count: The number of threads to create.\n\n", os.Args[0])
	flags.PrintDefaults()
}

func (opts options) apply(settings *render.Settings) {
	if opts.outputFile != "" {
		settings.OutputFile = opts.outputFile
	}
	if opts.traceFile != "" {
		settings.TraceFile = opts.traceFile
	}
	if opts.address != "" {
		settings.DisplayAddress = opts.address
	}
	settings.Verbose = settings.Verbose || opts.verbose
}

func displayAddress(settings render.Settings) (string, error) {
	if settings.DisplayAddress != "" {
		return settings.DisplayAddress, nil
	}
	return display.DefaultAddress()
}

// openSink returns the file or stdout the image is drawn on and a function that closes it.
func openSink(settings render.Settings, stdout io.Writer) (io.Writer, func() error, error) {
	if settings.OutputFile == "" {
		return stdout, func() error { return nil }, nil
	}
	file, err := misc.CreateFile(settings.OutputFile)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

func startTracing(ctx context.Context, settings render.Settings) (func() error, error) {
	if settings.TraceFile == "" {
		return func() error { return nil }, nil
	}

	traceOutput, err := misc.CreateFile(settings.TraceFile)
	if err != nil {
		return nil, err
	}
	shutdown, err := tracing.Init(ctx, "mandelbrot", settings.RunID, traceOutput)
	if err != nil {
		traceOutput.Close()
		return nil, err
	}
	return func() error {
		return errors.Join(shutdown(context.Background()), traceOutput.Close())
	}, nil
}

func newRowWriter(opts options, settings render.Settings, stdout io.Writer, logger bslogger.Logger) (output.RowWriter, func() error, error) {
	if opts.remoteDisplay || settings.DisplayAddress != "" {
		addr, err := displayAddress(settings)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Sending rows to display at %s", addr)
		client, err := display.NewClient(addr)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	}

	sink, closeSink, err := openSink(settings, stdout)
	if err != nil {
		return nil, nil, err
	}
	return output.NewTerminal(sink, settings.MandelbrotSettings.Marker[0]), closeSink, nil
}

func startRender(ctx context.Context, opts options, settings render.Settings, stdout io.Writer, logger bslogger.Logger) error {
	stopTracing, err := startTracing(ctx, settings)
	if err != nil {
		return err
	}

	writer, closeSink, err := newRowWriter(opts, settings, stdout, logger)
	if err != nil {
		return errors.Join(err, stopTracing())
	}

	computer := mandelbrot.NewMandelbrot(settings.MandelbrotSettings)
	err = render.NewRenderer(settings, computer, writer).Run(ctx)
	return errors.Join(err, closeSink(), stopTracing())
}

// startDisplay prints the image a renderer sends until it is finished or aborted, or ctx is cancelled.
func startDisplay(ctx context.Context, settings render.Settings, stdout io.Writer, logger bslogger.Logger) error {
	addr, err := displayAddress(settings)
	if err != nil {
		return err
	}

	sink, closeSink, err := openSink(settings, stdout)
	if err != nil {
		return err
	}

	server := display.NewServer(addr, sink, settings.MandelbrotSettings.Marker[0], misc.NewLogger("Display", settings.Verbose))
	if err = server.Run(); err != nil {
		return errors.Join(err, closeSink())
	}
	logger.Infof("Waiting for rows at %s", addr)
	return errors.Join(server.Wait(ctx), closeSink())
}
