package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
	"github.com/sohaibmokhliss/spotifyPLdownloader/driver"
	"github.com/sohaibmokhliss/spotifyPLdownloader/services"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

// CLIOptions configures a terminal download
type CLIOptions struct {
	PlaylistURL string
	// RemoteURL runs the job on a server instead of in-process
	RemoteURL string
	In        io.Reader
	Out       io.Writer
}

// runner abstracts the in-process controller and a remote session
type runner interface {
	start(ctx context.Context, playlistURL string, resume bool) (*types.JobResult, error)
	stop()
	watch(ctx context.Context, fn func(types.ProgressReport))
	final(ctx context.Context) types.ProgressReport
}

// RunCLI downloads a playlist with a progress bar. The first Ctrl-C pauses the
// job after the current track and offers to resume; a second one aborts.
func RunCLI(ctx context.Context, cfg *config.Config, opts CLIOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = ansi.NewAnsiStdout()
	}

	var r runner
	if opts.RemoteURL != "" {
		r = &remoteRunner{session: driver.NewSession(opts.RemoteURL, nil)}
	} else {
		app, err := NewApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()
		r = &localRunner{app: app}
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	interrupts := newInterruptHandler(r.stop, cancel, opts.Out)
	stopSignals := interrupts.listen(jobCtx)
	defer stopSignals()

	input := bufio.NewReader(opts.In)
	resume := false
	for {
		result, err := runWithProgress(jobCtx, r, opts.PlaylistURL, resume, opts.Out)
		if err != nil {
			return err
		}

		if !result.Paused {
			printSummary(opts.Out, result, r.final(ctx))
			return nil
		}

		fmt.Fprintf(opts.Out, "\nPaused after %d of %d tracks.\n", result.Completed+result.Failed, result.Total)
		if jobCtx.Err() != nil || !confirm(input, opts.Out, "Resume download? [y/N] ") {
			fmt.Fprintln(opts.Out, "Run again with the same playlist to start over.")
			return nil
		}
		interrupts.reset()
		resume = true
	}
}

func runWithProgress(ctx context.Context, r runner, playlistURL string, resume bool, out io.Writer) (*types.JobResult, error) {
	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Resolving playlist...[reset]"),
	)

	watchCtx, stopWatch := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.watch(watchCtx, func(report types.ProgressReport) {
			renderProgress(bar, report)
		})
	}()

	result, err := r.start(ctx, playlistURL, resume)
	stopWatch()
	wg.Wait()

	if result != nil && result.Total > 0 {
		bar.ChangeMax(result.Total)
		bar.Set(result.Completed + result.Failed)
	}
	bar.Finish()
	fmt.Fprintln(out)

	return result, err
}

func renderProgress(bar *progressbar.ProgressBar, report types.ProgressReport) {
	if report.Total > 0 && bar.GetMax() != report.Total {
		bar.ChangeMax(report.Total)
	}
	if report.CurrentTrack != "" {
		bar.Describe(fmt.Sprintf("[cyan]%s[reset]", report.CurrentTrack))
	}
	bar.Set(report.Cursor)
}

func printSummary(out io.Writer, result *types.JobResult, final types.ProgressReport) {
	fmt.Fprintf(out, "Done: %d downloaded, %d failed, %d total.\n", result.Completed, result.Failed, result.Total)
	for _, f := range final.Failed {
		fmt.Fprintf(out, "  failed: %s (%s)\n", f.Track, f.Reason)
	}
}

func confirm(in *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// interruptHandler turns the first SIGINT of a run into a stop request and the
// second into cancellation
type interruptHandler struct {
	mu     sync.Mutex
	count  int
	stop   func()
	cancel context.CancelFunc
	out    io.Writer
}

func newInterruptHandler(stop func(), cancel context.CancelFunc, out io.Writer) *interruptHandler {
	return &interruptHandler{stop: stop, cancel: cancel, out: out}
}

func (h *interruptHandler) interrupt() {
	h.mu.Lock()
	h.count++
	n := h.count
	h.mu.Unlock()

	if n == 1 {
		fmt.Fprintln(h.out, "\nStopping after the current track, press Ctrl-C again to abort")
		h.stop()
		return
	}
	h.cancel()
}

// reset re-arms the stop behaviour for a resumed run
func (h *interruptHandler) reset() {
	h.mu.Lock()
	h.count = 0
	h.mu.Unlock()
}

// listen forwards SIGINT to interrupt until ctx is done or the returned func is called
func (h *interruptHandler) listen(ctx context.Context) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-sigCh:
				h.interrupt()
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

type localRunner struct {
	app *App
}

func (l *localRunner) start(ctx context.Context, playlistURL string, resume bool) (*types.JobResult, error) {
	return l.app.Controller.Start(ctx, playlistURL, resume)
}

func (l *localRunner) stop() {
	l.app.Controller.Stop()
}

func (l *localRunner) watch(ctx context.Context, fn func(types.ProgressReport)) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(services.BuildReport(l.app.Controller.Snapshot()))
		}
	}
}

func (l *localRunner) final(_ context.Context) types.ProgressReport {
	return services.BuildReport(l.app.Controller.Snapshot())
}

type remoteRunner struct {
	session *driver.Session
}

func (r *remoteRunner) start(ctx context.Context, playlistURL string, resume bool) (*types.JobResult, error) {
	return r.session.Download(ctx, playlistURL, resume)
}

func (r *remoteRunner) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.session.Stop(ctx)
}

// watch keeps polling until the run ends. Watch also returns on a paused
// status, which a resumed job still reports until the server picks it up.
func (r *remoteRunner) watch(ctx context.Context, fn func(types.ProgressReport)) {
	for {
		if _, err := r.session.Watch(ctx, fn); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(driver.DefaultPollInterval):
		}
	}
}

func (r *remoteRunner) final(ctx context.Context) types.ProgressReport {
	report, err := r.session.Progress(ctx)
	if err != nil {
		return types.ProgressReport{}
	}
	return *report
}
