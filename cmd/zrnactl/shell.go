package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/zrna-research/zrna-go/pkg/channel"
	"github.com/zrna-research/zrna-go/pkg/connection"
	"github.com/zrna-research/zrna-go/pkg/inspect"
	"github.com/zrna-research/zrna-go/pkg/interaction"
	"github.com/zrna-research/zrna-go/pkg/path"
	"github.com/zrna-research/zrna-go/pkg/version"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

const shellHelp = `Commands:
  Resources:
    get <path>                  GET a resource
    post <path> [payload]       POST to a resource
    put <path> <payload>        PUT a payload
    patch <path> <payload>      PATCH a resource
    delete <path> [payload]     DELETE a resource
    compile <path>              Show how a path compiles

  Device:
    version                     Firmware version
    run | pause | reset         Change system state
    clear                       Replace the circuit with the default
    circuit                     Show the current circuit
    types                       List module types

  Session:
    status                      Connection state and session ID
    connect                     Reconnect after a failure
    ids on|off                  Show enum ordinals
    help                        Show this help
    quit                        Exit

Payloads:
` + inspect.PayloadHelp

// shell is the interactive session.
type shell struct {
	mgr     *connection.Manager
	device  *interaction.Device
	fmt     *inspect.Formatter
	rl      *readline.Instance
	timeout time.Duration
}

func runShell(args []string) error {
	fs := pflag.NewFlagSet("shell", pflag.ContinueOnError)
	link := addLinkFlags(fs)
	maxAttempts := fs.Int("max-attempts", 0, "Reconnect attempts before giving up (0 = unlimited)")
	if done, err := parseFlags(fs, "shell [flags]", args); done || err != nil {
		return err
	}

	cfg, err := link.load()
	if err != nil {
		return err
	}
	cc, closeLog, err := link.clientConfig(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "zrna> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	mgr := connection.NewManager(channel.Opener(cfg), connection.ManagerConfig{
		Client:         cc,
		MaxAttempts:    *maxAttempts,
		AttemptTimeout: link.timeout,
	})
	mgr.OnStateChange(func(_, next connection.State) {
		fmt.Fprintf(rl.Stderr(), "[%s]\n", next)
	})
	mgr.OnReconnecting(func(attempt int, delay time.Duration) {
		fmt.Fprintf(rl.Stderr(), "reconnect attempt %d in %s\n", attempt, delay.Round(time.Millisecond))
	})
	mgr.StartReconnectLoop()
	defer mgr.Close()

	s := &shell{
		mgr:     mgr,
		device:  interaction.NewDevice(mgr),
		fmt:     inspect.NewFormatter(),
		rl:      rl,
		timeout: link.timeout,
	}

	ctx, stop := signalContext()
	defer stop()

	if err := s.connect(ctx); err != nil {
		fmt.Fprintf(rl.Stderr(), "connect: %v\n", err)
	}
	s.run(ctx)
	return nil
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "zrnactl_history")
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("get"),
		readline.PcItem("post"),
		readline.PcItem("put"),
		readline.PcItem("patch"),
		readline.PcItem("delete"),
		readline.PcItem("compile"),
		readline.PcItem("version"),
		readline.PcItem("run"),
		readline.PcItem("pause"),
		readline.PcItem("reset"),
		readline.PcItem("clear"),
		readline.PcItem("circuit"),
		readline.PcItem("types"),
		readline.PcItem("status"),
		readline.PcItem("connect"),
		readline.PcItem("ids", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func (s *shell) out() io.Writer {
	return s.rl.Stdout()
}

func (s *shell) connect(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err := s.mgr.Connect(cctx)
	if errors.Is(err, connection.ErrAlreadyConnected) {
		return nil
	}
	return err
}

func (s *shell) run(ctx context.Context) {
	fmt.Fprintln(s.out(), `zrna shell. Type "help" for commands.`)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out(), "Exiting...")
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if cmd == "quit" || cmd == "exit" || cmd == "q" {
			fmt.Fprintln(s.out(), "Exiting...")
			return
		}
		if err := s.dispatch(ctx, cmd, args); err != nil {
			fmt.Fprintf(s.out(), "Error: %v\n", err)
		}
	}
}

func (s *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if m, ok := wire.ParseMethod(cmd); ok {
		return s.cmdVerb(rctx, m, args)
	}

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out(), shellHelp)
	case "compile":
		if len(args) != 1 {
			return errors.New("usage: compile <path>")
		}
		fmt.Fprintln(s.out(), s.fmt.FormatPath(path.Compile(args[0])))
	case "status":
		s.cmdStatus()
	case "connect":
		return s.connect(ctx)
	case "ids":
		s.fmt.ShowIDs = len(args) == 0 || args[0] == "on"
	case "version":
		fw, err := s.device.Firmware(rctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out(), fw.String())
		if err := version.Check(fw); err != nil {
			fmt.Fprintf(s.out(), "warning: %v\n", err)
		}
	case "run":
		return s.device.Run(rctx)
	case "pause":
		return s.device.Pause(rctx)
	case "reset":
		return s.device.HardReset(rctx)
	case "clear":
		return s.device.Clear(rctx)
	case "circuit":
		c, err := s.device.Circuit(rctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out(), s.fmt.FormatCircuit(c))
	case "types":
		types, err := s.device.ModuleTypes(rctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out(), s.fmt.FormatBody(&wire.ModuleTypes{Types: types}))
	default:
		fmt.Fprintf(s.out(), "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return nil
}

func (s *shell) cmdVerb(ctx context.Context, m wire.Method, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: %s <path> [payload]", strings.ToLower(m.String()))
	}
	var expr string
	if len(args) == 2 {
		expr = args[1]
	}
	payload, err := inspect.ParsePayload(expr)
	if err != nil {
		return err
	}

	resp, err := s.mgr.Do(ctx, m, args[0], payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out(), s.fmt.FormatResponse(resp))
	return nil
}

func (s *shell) cmdStatus() {
	fmt.Fprintf(s.out(), "State: %s\n", s.mgr.State())
	if c := s.mgr.Client(); c != nil {
		fmt.Fprintf(s.out(), "Session: %s\n", c.ConnectionID())
	}
	if n := s.mgr.BackoffAttempts(); n > 0 {
		fmt.Fprintf(s.out(), "Reconnect attempts: %d\n", n)
	}
}
