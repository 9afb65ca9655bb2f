package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"nimbus/internal/ipc"
)

func main() {
	socket := cli.String("socket", ipc.SocketPath, "Control socket path")
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var msg ipc.ControlMessage
	switch args[0] {
	case ipc.CmdTrigger, ipc.CmdStop:
		msg.Cmd = args[0]
	case ipc.CmdCommand, ipc.CmdSay:
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		msg.Cmd = args[0]
		msg.Arg = strings.Join(args[1:], " ")
	default:
		usage()
		os.Exit(2)
	}

	if err := ipc.Send(*socket, msg); err != nil {
		fmt.Fprintln(os.Stderr, "nimbus-ctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nimbus-ctl [--socket path] trigger|stop|command <text>|say <text>")
}
