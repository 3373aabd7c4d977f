package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tinyrange/virt/internal/libvirt"
)

func newHelloCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Print connection details and list domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.connect()
			if err != nil {
				return err
			}
			defer conn.Close()

			out := cmd.OutOrStdout()

			uri, err := conn.URI()
			if err != nil {
				return err
			}
			typ, err := conn.Type()
			if err != nil {
				return err
			}
			host, err := conn.Hostname()
			if err != nil {
				return err
			}
			lib, err := conn.LibVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Connected to %s (%s) on %s, libvirt %s\n", uri, typ, host, libvirt.VersionString(lib))
			if hv, err := conn.Version(); err == nil {
				fmt.Fprintf(out, "Hypervisor version %s\n", libvirt.VersionString(hv))
			}

			doms, err := conn.ListAllDomains(0)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-5s %-20s %-36s %s\n", "Id", "Name", "UUID", "State")
			for _, dom := range doms {
				if err := printDomain(cmd, dom); err != nil {
					dom.Free()
					return err
				}
				dom.Free()
			}
			return nil
		},
	}
}

func printDomain(cmd *cobra.Command, dom *libvirt.Domain) error {
	name, err := dom.Name()
	if err != nil {
		return err
	}
	u, err := dom.UUID()
	if err != nil {
		return err
	}
	active, err := dom.IsActive()
	if err != nil {
		return err
	}
	id, state := "-", "shut off"
	if active {
		n, err := dom.ID()
		if err != nil {
			return err
		}
		id, state = fmt.Sprint(n), "running"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-5s %-20s %-36s %s\n", id, name, u, state)
	return nil
}
