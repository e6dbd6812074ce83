// ABOUTME: Terminal console for the docex gateway: compose a document, pick a mode, submit
// ABOUTME: Streams the activity log and health indicators while reading commands from stdin

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/docex-gateway/internal/api"
	"github.com/2389/docex-gateway/internal/console"
)

const defaultServer = "http://localhost:5000"

// sampleDocument is loaded by /sample.
const sampleDocument = "This Contract Agreement is entered into on January 15, 2024. " +
	"The parties agree to the terms described herein. " +
	"Payment is due within thirty days of invoice. " +
	"Either party may terminate with sixty days written notice."

type options struct {
	server         string
	mode           api.Mode
	accessCode     string
	timeout        time.Duration
	healthInterval time.Duration
	maxLog         int
}

func main() {
	server := flag.String("server", envOr("DOCEX_SERVER", defaultServer), "Gateway base URL (env DOCEX_SERVER)")
	mode := flag.String("mode", string(api.ModeProcess), "Initial mode: process, verify, or summarize")
	code := flag.String("code", os.Getenv("DOCEX_ACCESS_CODE"), "Access code to submit with (env DOCEX_ACCESS_CODE)")
	timeout := flag.Duration("timeout", console.DefaultTimeout, "Per-request timeout")
	healthInterval := flag.Duration("health-interval", console.DefaultHealthInterval, "Health polling interval")
	maxLog := flag.Int("max-log", console.DefaultMaxEntries, "Maximum activity log entries kept (0 for unbounded)")
	flag.Parse()

	m, err := api.ParseMode(*mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("docex-tui connected to %s\n", *server)
	fmt.Println("Type or paste a document, then /send. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := options{
		server:         *server,
		mode:           m,
		accessCode:     *code,
		timeout:        *timeout,
		healthInterval: *healthInterval,
		maxLog:         *maxLog,
	}
	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// app is the state of one terminal session.
type app struct {
	out        *printer
	store      *console.LogStore
	session    *console.Session
	dispatcher *console.Dispatcher
	monitor    *console.HealthMonitor

	accessCode string
	draft      []string

	mu         sync.Mutex
	lastModal  *console.Modal
	indicators *console.Indicators

	submits sync.WaitGroup
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	p := &printer{out: out}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := console.NewLogStore(opts.maxLog)
	entries, unsubscribe := store.Subscribe(256)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for e := range entries {
			p.Println(formatEntry(e))
		}
	}()
	defer func() {
		unsubscribe()
		<-printed
	}()

	a := &app{out: p, store: store, accessCode: opts.accessCode}

	a.session = console.NewSession(opts.mode, console.Observer{
		Label: func(label string) { p.Printf("Action: %s\n", label) },
		Loading: func(loading bool, label string) {
			if loading {
				p.Println(label)
			}
		},
	})

	var err error
	a.dispatcher, err = console.NewDispatcher(console.DispatcherConfig{
		BaseURL: opts.server,
		Timeout: opts.timeout,
		Log:     store,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	a.monitor, err = console.NewHealthMonitor(console.HealthConfig{
		BaseURL:  opts.server,
		Interval: opts.healthInterval,
		Log:      store,
		OnChange: a.healthChanged,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	var eg errgroup.Group
	eg.Go(func() error {
		if err := a.monitor.Run(bgCtx); err != nil && bgCtx.Err() == nil {
			return err
		}
		return nil
	})

	store.Append(console.SourceSystem, console.KindSystem, "Ready. Choose an action, enter a document and an access code.")

	err = a.loop(ctx, in)

	a.submits.Wait()
	stopBackground()
	if werr := eg.Wait(); werr != nil && err == nil {
		err = werr
	}
	return err
}

func (a *app) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for {
		a.out.Printf("[%s]> ", a.session.Mode())

		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		if a.handle(ctx, input) {
			return nil
		}
	}
}

// handle processes one line of input and reports whether the user asked to quit.
// Lines that are not commands are appended to the draft; a leading "//" escapes
// a line that really starts with a slash.
func (a *app) handle(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "//") {
		if strings.HasPrefix(trimmed, "//") {
			line = strings.Replace(line, "//", "/", 1)
		}
		a.draft = append(a.draft, line)
		return false
	}

	cmd, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true
	case "/send":
		a.send(ctx)
	case "/code":
		a.accessCode = arg
		if arg == "" {
			a.out.Println("Access code cleared")
		} else {
			a.out.Println("Access code set")
		}
	case "/mode":
		if arg == "" {
			a.printModes()
			break
		}
		m, err := api.ParseMode(arg)
		if err != nil {
			a.out.Printf("[error] %v\n", err)
			break
		}
		_ = a.session.SelectMode(m)
	case "/sample":
		a.draft = []string{sampleDocument}
		a.store.Append(console.SourceSystem, console.KindSystem, "Sample document loaded.")
	case "/show":
		a.out.Println(a.content())
	case "/reset":
		a.draft = nil
		a.out.Println("Draft discarded")
	case "/health":
		a.mu.Lock()
		a.indicators = nil
		a.mu.Unlock()
		a.monitor.Check(ctx)
	case "/clear":
		a.store.Clear()
	case "/log":
		a.printLog()
	case "/copy":
		a.mu.Lock()
		m := a.lastModal
		a.mu.Unlock()
		if m == nil {
			a.out.Println("No results yet")
		} else {
			a.out.Println(m.Text())
		}
	case "/help":
		a.printHelp()
	default:
		a.out.Printf("Unknown command %s. /help for commands.\n", cmd)
	}
	return false
}

func (a *app) content() string {
	return strings.Join(a.draft, "\n")
}

// send submits the current draft in the background. The session drops a
// second submission while one is in flight.
func (a *app) send(ctx context.Context) {
	content, code := a.content(), a.accessCode
	a.submits.Add(1)
	go func() {
		defer a.submits.Done()
		m := a.dispatcher.Submit(ctx, a.session, content, code)
		if m == nil {
			return
		}
		a.mu.Lock()
		a.lastModal = m
		a.mu.Unlock()
		a.out.Println(formatModal(m))
	}()
}

// healthChanged prints the indicators when they differ from the last poll.
func (a *app) healthChanged(ind console.Indicators) {
	a.mu.Lock()
	changed := a.indicators == nil || *a.indicators != ind
	a.indicators = &ind
	a.mu.Unlock()
	if changed {
		a.out.Println(formatIndicators(ind))
	}
}

func (a *app) printModes() {
	current := a.session.Mode()
	for _, s := range console.Modes {
		marker := " "
		if s.Mode == current {
			marker = "*"
		}
		a.out.Printf(" %s %-10s %s\n", marker, s.Mode, s.ButtonLabel)
	}
}

// printLog replays the stored log oldest first, matching the live stream.
func (a *app) printLog() {
	entries := a.store.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		a.out.Println(formatEntry(entries[i]))
	}
}

func (a *app) printHelp() {
	a.out.Println(strings.Join([]string{
		"Commands:",
		"  /send          Submit the draft with the current mode and access code",
		"  /code <code>   Set the access code (no argument clears it)",
		"  /mode [mode]   Show modes or switch to process, verify, or summarize",
		"  /sample        Replace the draft with a sample document",
		"  /show          Print the draft",
		"  /reset         Discard the draft",
		"  /health        Check upstream health now",
		"  /clear         Clear the activity log",
		"  /log           Replay the activity log",
		"  /copy          Print the last results as plain text",
		"  /help          Show this help",
		"  /quit          Exit",
		"Any other line is added to the draft. Start a line with // to enter a literal slash.",
	}, "\n"))
}
