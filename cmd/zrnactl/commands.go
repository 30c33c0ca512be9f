package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/zrna-research/zrna-go/pkg/channel"
	"github.com/zrna-research/zrna-go/pkg/inspect"
	"github.com/zrna-research/zrna-go/pkg/interaction"
	"github.com/zrna-research/zrna-go/pkg/path"
	"github.com/zrna-research/zrna-go/pkg/version"
	"github.com/zrna-research/zrna-go/pkg/wire"
)

// parseFlags parses args into fs. A help request returns done.
func parseFlags(fs *pflag.FlagSet, synopsis string, args []string) (done bool, err error) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  zrnactl %s\n\nFlags:\n", synopsis)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runPing(args []string) error {
	fs := pflag.NewFlagSet("ping", pflag.ContinueOnError)
	link := addLinkFlags(fs)
	if done, err := parseFlags(fs, "ping [flags]", args); done || err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	client, closeFn, err := link.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	rctx, cancel := context.WithTimeout(ctx, link.timeout)
	defer cancel()
	fw, err := interaction.NewDevice(client).Firmware(rctx)
	if err != nil {
		return err
	}
	fmt.Printf("ok, firmware %s (%s)\n", fw.String(), client.ConnectionID())
	if err := version.Check(fw); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return nil
}

func runVerb(method wire.Method, args []string) error {
	name := strings.ToLower(method.String())
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	link := addLinkFlags(fs)
	showIDs := fs.Bool("ids", false, "Show enum ordinals in the output")
	synopsis := name + " [flags] <path> [payload]\n\nPayloads:\n" + inspect.PayloadHelp
	if done, err := parseFlags(fs, synopsis, args); done || err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errors.New("want a path and at most one payload")
	}

	payload, err := inspect.ParsePayload(fs.Arg(1))
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	client, closeFn, err := link.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	rctx, cancel := context.WithTimeout(ctx, link.timeout)
	defer cancel()
	resp, err := client.Send(rctx, &wire.Request{
		Method:  method,
		Path:    path.Compile(fs.Arg(0)),
		Payload: payload,
	})
	if err != nil {
		return err
	}

	f := inspect.NewFormatter()
	f.ShowIDs = *showIDs
	fmt.Println(f.FormatResponse(resp))
	return nil
}

func runCompile(args []string) error {
	fs := pflag.NewFlagSet("compile", pflag.ContinueOnError)
	if done, err := parseFlags(fs, "compile <path>...", args); done || err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("path required")
	}

	f := inspect.NewFormatter()
	for _, p := range fs.Args() {
		fmt.Println(f.FormatPath(path.Compile(p)))
	}
	return nil
}

func runPorts(args []string) error {
	fs := pflag.NewFlagSet("ports", pflag.ContinueOnError)
	buses := fs.Bool("buses", false, "Also list I2C and SPI buses (loads periph host drivers)")
	if done, err := parseFlags(fs, "ports [flags]", args); done || err != nil {
		return err
	}

	ports, err := channel.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
	}
	for _, p := range ports {
		line := p.Name
		if p.USB {
			line += fmt.Sprintf("  %s:%s  %q", p.VID, p.PID, p.Product)
			if p.Serial != "" {
				line += "  serial " + p.Serial
			}
		}
		fmt.Println(line)
	}

	if !*buses {
		return nil
	}
	i2cNames, spiNames, err := channel.BusNames()
	if err != nil {
		return err
	}
	fmt.Printf("I2C: %s\n", listOrNone(i2cNames))
	fmt.Printf("SPI: %s\n", listOrNone(spiNames))
	return nil
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
