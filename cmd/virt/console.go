package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/tinyrange/virt/internal/event"
	"github.com/tinyrange/virt/internal/libvirt"
	"golang.org/x/term"
)

func newConsoleCmd(a *app) *cobra.Command {
	var devname string
	var force bool
	cmd := &cobra.Command{
		Use:   "console <domain>",
		Short: "Attach to a domain's serial console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// libvirt's default loop expects to be driven from one thread.
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			if err := event.RegisterDefaultImpl(); err != nil {
				return err
			}
			escape, err := a.cfg.EscapeByte()
			if err != nil {
				return err
			}
			flags := libvirt.ConsoleSafe
			if force || a.cfg.Console.Force {
				flags |= libvirt.ConsoleForce
			}

			return a.withDomain(args[0], func(conn *libvirt.Connect, dom *libvirt.Domain) error {
				return runConsole(cmd.Context(), conn, dom, devname, flags, escape)
			})
		},
	}
	cmd.Flags().StringVar(&devname, "devname", "", "Console device alias (default: first console)")
	cmd.Flags().BoolVar(&force, "force", false, "Disconnect any existing session")
	return cmd
}

func runConsole(ctx context.Context, conn *libvirt.Connect, dom *libvirt.Domain, devname string, flags libvirt.DomainConsoleFlags, escape byte) error {
	st, err := conn.NewStream(libvirt.StreamNonBlock)
	if err != nil {
		return err
	}
	defer st.Free()

	if err := dom.OpenConsole(devname, st, flags); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err = st.EventAddCallback(libvirt.StreamEventReadable|libvirt.StreamEventError|libvirt.StreamEventHangup,
		func(s *libvirt.Stream, events libvirt.StreamEventType) {
			if events&(libvirt.StreamEventError|libvirt.StreamEventHangup) != 0 {
				cancel()
				return
			}
			if err := copyFromStream(os.Stdout, s); err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Error("Console read failed", "error", err)
				}
				cancel()
			}
		})
	if err != nil {
		return err
	}
	defer st.EventRemoveCallback()

	name, _ := dom.Name()
	fmt.Fprintf(os.Stderr, "Connected to domain '%s'\r\nEscape character is %q\r\n", name, caret(escape))

	if term.IsTerminal(int(os.Stdin.Fd())) {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("enable raw mode: %w", err)
		}
		defer term.Restore(int(os.Stdin.Fd()), oldState)
	}

	go copyToStream(ctx, cancel, st, os.Stdin, escape)

	if err := event.RunDefaultImplContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprint(os.Stderr, "\r\n")
	return nil
}

// copyFromStream drains whatever the stream has buffered.
func copyFromStream(w io.Writer, st *libvirt.Stream) error {
	buf := make([]byte, 4096)
	for {
		n, err := st.Recv(buf)
		if errors.Is(err, libvirt.ErrWouldBlock) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return io.EOF
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}
}

// copyToStream forwards stdin until the escape byte or end of input.
func copyToStream(ctx context.Context, cancel context.CancelFunc, st *libvirt.Stream, r io.Reader, escape byte) {
	defer cancel()
	buf := make([]byte, 1024)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if n > 0 {
			data := buf[:n]
			quit := false
			if i := bytes.IndexByte(data, escape); i >= 0 {
				data, quit = data[:i], true
			}
			if err := sendAll(ctx, st, data); err != nil {
				slog.Error("Console write failed", "error", err)
				return
			}
			if quit {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func sendAll(ctx context.Context, st *libvirt.Stream, data []byte) error {
	for len(data) > 0 {
		n, err := st.Send(data)
		if errors.Is(err, libvirt.ErrWouldBlock) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// caret renders a control byte the way terminals print it, e.g. ^].
func caret(b byte) string {
	switch {
	case b < 0x20:
		return "^" + string(rune(b+'@'))
	case b == 0x7f:
		return "^?"
	default:
		return string(rune(b))
	}
}
