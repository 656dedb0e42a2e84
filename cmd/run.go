package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-pomodoro/internal/completion"
	"github.com/Tiliavir/trivial-pomodoro/internal/config"
	"github.com/Tiliavir/trivial-pomodoro/internal/console"
	"github.com/Tiliavir/trivial-pomodoro/internal/model"
	"github.com/Tiliavir/trivial-pomodoro/internal/runloop"
	"github.com/Tiliavir/trivial-pomodoro/internal/scheduler"
	"github.com/Tiliavir/trivial-pomodoro/internal/timecalc"
	"github.com/Tiliavir/trivial-pomodoro/internal/timer"
	"github.com/Tiliavir/trivial-pomodoro/internal/upload"
)

var runMetricsAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the timer in this terminal",
	Long: `Run the interval timer interactively. Type commands on stdin, e.g. "s" to
start or stop and "submit <text>" to record what you finished. Type "help"
for the full list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(false)
	},
}

func init() {
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on host:port (overrides metrics.address)")
}

// session wires the timer core to the terminal. All fields are used from the
// loop goroutine only.
type session struct {
	cfg       config.Config
	loop      *runloop.Loop
	sched     *scheduler.Scheduler
	machine   *timer.Machine
	coord     *completion.Coordinator
	prompter  *console.Prompter
	notifier  *console.Notifier
	out       io.Writer
	remaining time.Duration
}

type sessionOption func(*sessionDeps)

type sessionDeps struct {
	logger   *log.Logger
	now      func() time.Time
	cadence  time.Duration
	uploader completion.Uploader
}

func withSessionClock(now func() time.Time) sessionOption {
	return func(d *sessionDeps) { d.now = now }
}

func withSessionUploader(u completion.Uploader) sessionOption {
	return func(d *sessionDeps) { d.uploader = u }
}

func withSessionCadence(c time.Duration) sessionOption {
	return func(d *sessionDeps) { d.cadence = c }
}

func newSession(cfg config.Config, j completion.Journal, out io.Writer, logger *log.Logger, opts ...sessionOption) *session {
	deps := sessionDeps{
		logger:   logger,
		now:      time.Now,
		cadence:  scheduler.DefaultCadence,
		uploader: upload.NewClient(cfg.Remote.Timeout()),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	s := &session{
		cfg:      cfg,
		loop:     runloop.New(),
		prompter: console.NewPrompter(out),
		notifier: console.NewNotifier(out),
		out:      out,
	}
	s.coord = completion.New(s.loop.Post, j, cfg.Remote,
		completion.WithUploader(deps.uploader),
		completion.WithPrompter(s.prompter),
		completion.WithNotifier(s.notifier),
		completion.WithLogger(deps.logger),
		completion.WithClock(deps.now),
	)
	s.sched = scheduler.New(s.loop.Post, cfg.Timer.OverrunLimit(),
		func(e scheduler.Expiry) { s.machine.Expired(e) },
		scheduler.WithClock(deps.now),
		scheduler.WithCadence(deps.cadence),
		scheduler.WithTickObserver(s.tick),
	)
	s.machine = timer.New(timer.SettingsFrom(cfg.Timer), s.sched, s.coord,
		timer.WithNotifier(s.notifier),
		timer.WithLogger(deps.logger),
		timer.WithClock(deps.now),
		timer.WithFailureHandler(s.loop.Fail),
		timer.WithObserver(s.announce),
	)
	return s
}

// fire delivers ev and treats a protocol violation as fatal for the loop.
func (s *session) fire(ev timer.Event) {
	if err := s.machine.Fire(ev); err != nil {
		s.loop.Fail(err)
	}
}

// tick warns once when the running interval gets close to its end.
func (s *session) tick(remaining time.Duration) {
	if s.remaining > time.Minute && remaining <= time.Minute && remaining > 0 {
		fmt.Fprintln(s.out, "One minute left.")
	}
	s.remaining = remaining
}

func (s *session) announce(c timer.Change) {
	switch c.To {
	case timer.Work:
		s.remaining = s.machine.Current().PlannedDuration()
		fmt.Fprintf(s.out, "Work started, %s to go.\n", timecalc.FormatDuration(s.remaining))
	case timer.Rest:
		s.remaining = s.machine.Current().PlannedDuration()
		label := "Short rest"
		if s.machine.Current().Kind == model.KindLongRest {
			label = "Long rest"
		}
		fmt.Fprintf(s.out, "%s for %s.\n", label, timecalc.FormatDuration(s.remaining))
	case timer.Idle:
		s.remaining = 0
		fmt.Fprintln(s.out, "Timer stopped.")
	}
}

// handle runs one typed command on the loop. It reports whether the session
// should end.
func (s *session) handle(c console.Command) bool {
	switch c.Action {
	case console.StartStop:
		s.fire(timer.StartStop)
	case console.SkipRest:
		if s.machine.State() != timer.Rest {
			fmt.Fprintln(s.out, "Not resting, nothing to skip.")
			return false
		}
		s.fire(timer.SkipRest)
	case console.SetDraft:
		if !s.prompter.SetDraft(c.Description, c.Tags) {
			fmt.Fprintln(s.out, "No open prompt.")
		}
	case console.Submit, console.Skip, console.Dismiss:
		h, ok := s.prompter.Newest()
		if !ok {
			fmt.Fprintln(s.out, "No open prompt.")
			return false
		}
		s.coord.Resolve(h, s.outcome(h, c))
		fmt.Fprintln(s.out, "Recorded.")
	case console.Status:
		// Recompute first so an interval that ended while the machine slept
		// is settled before it is reported.
		s.sched.Tick()
		fmt.Fprintln(s.out, s.status())
	case console.Help:
		fmt.Fprintln(s.out, console.Usage)
	case console.Quit:
		return true
	}
	return false
}

func (s *session) outcome(h completion.Handle, c console.Command) completion.Outcome {
	switch c.Action {
	case console.Skip:
		return completion.Skip()
	case console.Dismiss:
		return completion.Dismiss()
	}
	if !c.HasText {
		desc, tags := s.prompter.Draft(h)
		return completion.Submit(desc, tags...)
	}
	return completion.Submit(c.Description, c.Tags...)
}

func (s *session) status() string {
	line := s.machine.State().String()
	if s.machine.State() != timer.Idle {
		line += " " + timecalc.FormatCountdown(s.sched.TimeLeft()) + " left"
	}
	line += fmt.Sprintf(", %d/%d in set", s.machine.ConsecutiveWorkIntervals(), s.cfg.Timer.WorkIntervalsInSet)
	if n := s.prompter.Open(); n > 0 {
		line += fmt.Sprintf(", %d prompt(s) open", n)
	}
	st := s.coord.Stats()
	line += fmt.Sprintf(", %d recorded, %d uploaded", st.Resolved, st.Uploaded)
	return line
}

// readCommands posts each stdin line to the loop until in is exhausted.
func (s *session) readCommands(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		c, err := console.Parse(scanner.Text())
		if errors.Is(err, console.ErrEmpty) {
			continue
		}
		if err != nil {
			msg := err.Error()
			s.loop.Post(func() { fmt.Fprintln(s.out, msg) })
			continue
		}
		if !s.loop.Post(func() {
			if s.handle(c) {
				s.loop.Stop()
			}
		}) {
			return
		}
	}
	s.loop.Post(s.loop.Stop)
}

// shutdown settles what is still open once the loop has stopped.
func (s *session) shutdown() {
	s.sched.Cancel()
	if n := s.coord.ResolvePending(); n > 0 {
		fmt.Fprintf(s.out, "Saved %d open prompt(s) with their drafts.\n", n)
	}
}

// serveMetrics exposes /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("metrics server shutdown: %v", err)
		}
	}()
}

func runInteractive(startNow bool) error {
	base := dataDir()
	cfg := loadConfig(base)
	j, store := openJournal(base, cfg)
	defer store.Close()

	logger := log.New(os.Stderr, "tpom: ", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Metrics.Address
	if runMetricsAddr != "" {
		addr = runMetricsAddr
	}
	if addr != "" {
		serveMetrics(ctx, addr, logger)
		fmt.Printf("Metrics on http://%s/metrics\n", addr)
	}

	if err := cfg.Remote.Validate(); errors.Is(err, config.ErrMissingCredentials) {
		fmt.Fprintln(os.Stderr, "Warning: remote.api_endpoint is set without app_id and app_secret; records stay local.")
	}

	s := newSession(cfg, j, os.Stdout, logger)
	fmt.Println(`tpom is running. Type "s" to start, "help" for commands.`)
	if startNow {
		s.loop.Post(func() { s.fire(timer.StartStop) })
	}
	go s.readCommands(os.Stdin)

	err := s.loop.Run(ctx)
	s.shutdown()

	var pv *timer.ProtocolViolation
	switch {
	case errors.As(err, &pv):
		store.Close()
		fail(fmt.Errorf("internal error: %w", err))
	case err != nil && !errors.Is(err, runloop.ErrStopped) && !errors.Is(err, context.Canceled):
		return err
	}
	return nil
}
