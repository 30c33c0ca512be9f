// Command zrnactl talks to a zrna analog signal processor.
//
// Usage:
//
//	zrnactl <command> [flags] [args]
//
// Commands:
//
//	ping      Run the handshake and report the firmware version
//	get       GET a resource path
//	post      POST to a resource path with an optional payload
//	put       PUT a payload to a resource path
//	patch     PATCH a resource path
//	delete    DELETE a resource path
//	compile   Show how a path compiles, without a device
//	ports     List serial ports and periph buses
//	shell     Interactive session with automatic reconnection
//
// Examples:
//
//	# Find the device over USB and ping it
//	zrnactl ping
//
//	# Add a module and set a parameter
//	zrnactl post /circuit/modules module=gain-inv
//	zrnactl put /circuit/module/0/parameter/gain/requested requested=0.5
//
//	# Use the I2C link through an FT232H
//	zrnactl get --transport register --i2c-bus FT232H /version
//
//	# Load link settings from a file and capture the protocol
//	zrnactl shell --config zrna.yaml --protocol-log session.zlog.zst
package main

import (
	"fmt"
	"os"

	"github.com/zrna-research/zrna-go/pkg/wire"
)

const usage = `zrnactl - zrna device client

Usage:
  zrnactl <command> [flags] [args]

Commands:
  ping                      Run the handshake and report the firmware version
  get <path>                GET a resource path
  post <path> [payload]     POST to a resource path
  put <path> <payload>      PUT a payload to a resource path
  patch <path> <payload>    PATCH a resource path
  delete <path>             DELETE a resource path
  compile <path>...         Show how paths compile, without a device
  ports                     List serial ports and periph buses
  shell                     Interactive session with automatic reconnection

Use "zrnactl <command> --help" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "ping":
		err = runPing(args)
	case "get":
		err = runVerb(wire.MethodGet, args)
	case "post":
		err = runVerb(wire.MethodPost, args)
	case "put":
		err = runVerb(wire.MethodPut, args)
	case "patch":
		err = runVerb(wire.MethodPatch, args)
	case "delete":
		err = runVerb(wire.MethodDelete, args)
	case "compile":
		err = runCompile(args)
	case "ports":
		err = runPorts(args)
	case "shell":
		err = runShell(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
