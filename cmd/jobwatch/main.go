package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/jobwatch/internal/adapter/jobapi"
	"github.com/plastinin/jobwatch/internal/adapter/queue"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/domain"
	"github.com/plastinin/jobwatch/internal/telemetry"
	"github.com/plastinin/jobwatch/internal/usecase"
	"github.com/plastinin/jobwatch/internal/validation"
	"github.com/plastinin/jobwatch/pkg/logger"
	"go.uber.org/zap"
)

// Коды выхода
const (
	exitOK          = 0
	exitFailed      = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return exitFailed
	}

	c := &cli{cfg: cfg, stdout: stdout, stderr: stderr}

	switch args[0] {
	case "submit":
		return c.submit(ctx, args[1:])
	case "watch":
		return c.watchCmd(ctx, args[1:])
	case "status":
		return c.status(ctx, args[1:])
	case "cancel":
		return c.cancel(ctx, args[1:])
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage:")
	_, _ = fmt.Fprintln(w, "  jobwatch submit (--email <addr> | --phone <digits> --country <code>) --password <pw> [--query <text>] [--max <n>] [--answer <text>] [--watch=false]")
	_, _ = fmt.Fprintln(w, "  jobwatch watch [--cancel-on-interrupt] <task-id>")
	_, _ = fmt.Fprintln(w, "  jobwatch status <task-id>")
	_, _ = fmt.Fprintln(w, "  jobwatch cancel <task-id>")
	_, _ = fmt.Fprintln(w, "common flags: --api-url, --interval, --max-errors, --publish")
}

type cli struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer

	publish           bool
	cancelOnInterrupt bool

	log *zap.Logger
	api *jobapi.Client
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(&c.cfg.JobAPI.BaseURL, "api-url", c.cfg.JobAPI.BaseURL, "job service base URL")
	fs.DurationVar(&c.cfg.JobAPI.PollInterval, "interval", c.cfg.JobAPI.PollInterval, "status poll interval")
	fs.IntVar(&c.cfg.JobAPI.MaxPollErrors, "max-errors", c.cfg.JobAPI.MaxPollErrors, "stop after n failed polls in a row, 0 = never")
	fs.BoolVar(&c.publish, "publish", false, "publish the final outcome to the outcome queue")
	return fs
}

// setup поднимает логгер, телеметрию и клиент после разбора флагов
func (c *cli) setup(ctx context.Context) (func(), error) {
	log, err := logger.NewWithWriter(c.cfg.Log.Level, c.cfg.Log.Format, c.stderr)
	if err != nil {
		return nil, err
	}
	c.log = log
	c.api = jobapi.NewClient(c.cfg.JobAPI, log)

	cleanup := func() { _ = log.Sync() }

	if c.cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, c.cfg.Telemetry)
		if err != nil {
			log.Warn("Telemetry disabled", zap.Error(err))
			return cleanup, nil
		}
		cleanup = func() {
			_ = shutdown(context.WithoutCancel(ctx))
			_ = log.Sync()
		}
	}

	return cleanup, nil
}

func (c *cli) submit(ctx context.Context, args []string) int {
	fs := c.flagSet("submit")
	var (
		query    string
		maxApps  int
		answer   string
		email    string
		phone    string
		country  string
		password string
		watch    bool
	)
	fs.StringVar(&query, "query", domain.DefaultSearchQuery, "vacancy search query")
	fs.IntVar(&maxApps, "max", 10, fmt.Sprintf("maximum applications (%d-%d)", domain.MinApplications, domain.MaxApplications))
	fs.StringVar(&answer, "answer", "", "answer for employer questions")
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&phone, "phone", "", "account phone without country code")
	fs.StringVar(&country, "country", "", "phone country code")
	fs.StringVar(&password, "password", os.Getenv("JOBWATCH_PASSWORD"), "account password (or JOBWATCH_PASSWORD)")
	fs.BoolVar(&watch, "watch", true, "watch the task after submission")
	fs.BoolVar(&c.cancelOnInterrupt, "cancel-on-interrupt", false, "cancel the task on Ctrl-C instead of leaving it running")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cleanup, err := c.setup(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(c.stderr, "Failed to init: %v\n", err)
		return exitFailed
	}
	defer cleanup()

	req := domain.SubmissionRequest{
		SearchQuery:       query,
		MaxApplications:   maxApps,
		AnswerRequirement: answer,
	}
	if email != "" {
		req.Email = &domain.EmailCredentials{Email: email, Password: password}
	}
	if phone != "" {
		req.Phone = &domain.PhoneCredentials{Phone: phone, Country: country, Password: password}
	}

	submitter := usecase.NewSubmitter(c.api, validation.MustSubmissionValidator(), c.log)
	handle, err := submitter.Submit(ctx, req)
	if err != nil {
		c.printSubmitError(err)
		return exitFailed
	}

	_, _ = fmt.Fprintf(c.stdout, "Task submitted: %s\n", handle.TaskID)
	if !watch {
		return exitOK
	}
	return c.watch(ctx, handle)
}

func (c *cli) watchCmd(ctx context.Context, args []string) int {
	fs := c.flagSet("watch")
	fs.BoolVar(&c.cancelOnInterrupt, "cancel-on-interrupt", false, "cancel the task on Ctrl-C instead of leaving it running")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		usage(c.stderr)
		return exitUsage
	}

	cleanup, err := c.setup(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(c.stderr, "Failed to init: %v\n", err)
		return exitFailed
	}
	defer cleanup()

	return c.watch(ctx, domain.TaskHandle{TaskID: fs.Arg(0)})
}

// watch опрашивает задачу до финального состояния или прерывания
func (c *cli) watch(ctx context.Context, handle domain.TaskHandle) int {
	var opts []usecase.MonitorOption
	if c.cfg.JobAPI.MaxPollErrors > 0 {
		opts = append(opts, usecase.WithMaxPollErrors(c.cfg.JobAPI.MaxPollErrors))
	}
	if c.publish {
		producer := queue.NewOutcomeProducer(c.cfg.Redis)
		defer producer.Close()
		opts = append(opts, usecase.WithOutcomePublisher(producer))
	}

	presenter := newTerminalPresenter(c.stdout)
	session := usecase.NewSession(presenter)
	monitor := usecase.NewMonitor(c.api, usecase.NewScheduler(c.cfg.JobAPI.PollInterval), c.log, opts...)
	// Итог уходит в очередь в фоне; ждём его до закрытия producer
	defer monitor.Wait()

	// Опрос не зависит от сигнала: после прерывания сессию останавливает Leave или Cancel
	watchCtx, stopWatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWatch()

	if err := monitor.Watch(watchCtx, session, handle); err != nil {
		_, _ = fmt.Fprintf(c.stderr, "Failed to watch task: %v\n", err)
		return exitFailed
	}

	select {
	case <-presenter.Done():
		return exitCode(session.View())
	case <-ctx.Done():
	}

	if c.cancelOnInterrupt {
		cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.JobAPI.RequestTimeout)
		defer cancel()
		if err := monitor.Cancel(cancelCtx, session); err != nil {
			_, _ = fmt.Fprintf(c.stderr, "Cancel failed: %s\n", domain.UserMessage(err))
			monitor.Leave(session)
		}
		return exitInterrupted
	}

	monitor.Leave(session)
	_, _ = fmt.Fprintf(c.stdout, "Stopped watching %s, the task keeps running\n", handle.TaskID)
	return exitInterrupted
}

func (c *cli) status(ctx context.Context, args []string) int {
	fs := c.flagSet("status")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		usage(c.stderr)
		return exitUsage
	}

	cleanup, err := c.setup(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(c.stderr, "Failed to init: %v\n", err)
		return exitFailed
	}
	defer cleanup()

	taskID := fs.Arg(0)
	st, err := c.api.Status(ctx, taskID)
	if err != nil {
		_, _ = fmt.Fprintf(c.stderr, "%s\n", domain.UserMessage(err))
		return exitFailed
	}

	_, _ = fmt.Fprintln(c.stdout, formatStatus(domain.DisplayStatus{TaskID: taskID}.Apply(*st)))
	return exitOK
}

func (c *cli) cancel(ctx context.Context, args []string) int {
	fs := c.flagSet("cancel")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		usage(c.stderr)
		return exitUsage
	}

	cleanup, err := c.setup(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(c.stderr, "Failed to init: %v\n", err)
		return exitFailed
	}
	defer cleanup()

	taskID := fs.Arg(0)
	if err := c.api.Cancel(ctx, taskID); err != nil {
		_, _ = fmt.Fprintf(c.stderr, "%s\n", domain.UserMessage(err))
		return exitFailed
	}

	_, _ = fmt.Fprintf(c.stdout, "Task %s cancelled\n", taskID)
	return exitOK
}

func (c *cli) printSubmitError(err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		_, _ = fmt.Fprintln(c.stderr, "Invalid submission:")
		for _, f := range verr.Fields {
			_, _ = fmt.Fprintf(c.stderr, "  %s: %s\n", f.Field, f.Message)
		}
		return
	}
	_, _ = fmt.Fprintf(c.stderr, "%s\n", domain.UserMessage(err))
}

func exitCode(view domain.DisplayStatus) int {
	if view.State == domain.DisplayDone {
		return exitOK
	}
	return exitFailed
}
