package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// SocketPath is the daemon control endpoint.
const SocketPath = "/tmp/nimbus.sock"

// Control commands understood by the daemon.
// The daemon listens continuously, so trigger does not start a capture of
// its own; it silences the current reply, which reopens the microphone on
// the next loop pass.
const (
	CmdTrigger = "trigger" // cut speech short and get back to listening
	CmdCommand = "command" // inject Arg as a typed command
	CmdSay     = "say"     // speak Arg verbatim
	CmdStop    = "stop"    // silence current speech
)

type ControlMessage struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

func StartServer(path string, handler func(ControlMessage)) error {
	if path == "" {
		path = SocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&msg); err != nil {
		return
	}
	handler(msg)
}

func Send(path string, msg ControlMessage) error {
	if path == "" {
		path = SocketPath
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	enc := json.NewEncoder(conn)
	return enc.Encode(msg)
}
