package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tinyrange/virt/internal/libvirt"
)

func newMigrateCmd(a *app) *cobra.Command {
	var p libvirt.DomainMigrateParameters
	var live, p2p, tunnelled, persist, undefine, autoConverge bool
	cmd := &cobra.Command{
		Use:   "migrate <domain> <dest-uri>",
		Short: "Migrate a domain to another host",
		Long: `Migrate a domain to the libvirt daemon at dest-uri.

With --p2p the source daemon connects to dest-uri itself; otherwise dest-uri
is only used to reach the destination and --migrate-uri picks the data
channel.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p.URISet = flags.Changed("migrate-uri")
			p.DestNameSet = flags.Changed("dname")
			p.ListenAddressSet = flags.Changed("listen-address")
			p.BandwidthSet = flags.Changed("bandwidth")
			p.AutoConvergeInitialSet = flags.Changed("auto-converge-initial")
			p.AutoConvergeIncrementSet = flags.Changed("auto-converge-increment")
			p.CompressionMTLevelSet = flags.Changed("comp-mt-level")
			p.CompressionMTThreadsSet = flags.Changed("comp-mt-threads")

			var mflags libvirt.DomainMigrateFlags
			for _, f := range []struct {
				on   bool
				flag libvirt.DomainMigrateFlags
			}{
				{live, libvirt.MigrateLive},
				{p2p, libvirt.MigratePeer2Peer},
				{tunnelled, libvirt.MigrateTunnelled},
				{persist, libvirt.MigratePersistDest},
				{undefine, libvirt.MigrateUndefineSource},
				{autoConverge || p.AutoConvergeInitialSet || p.AutoConvergeIncrementSet, libvirt.MigrateAutoConverge},
				{p.CompressionMTLevelSet || p.CompressionMTThreadsSet, libvirt.MigrateCompressed},
			} {
				if f.on {
					mflags |= f.flag
				}
			}

			return a.withDomain(args[0], func(_ *libvirt.Connect, dom *libvirt.Domain) error {
				slog.Info("Migrating", "domain", args[0], "dest", args[1], "flags", uint32(mflags))
				if err := dom.MigrateToURI3(args[1], &p, mflags); err != nil {
					return err
				}
				slog.Info("Migration complete", "domain", args[0])
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&live, "live", false, "Migrate while the domain runs")
	flags.BoolVar(&p2p, "p2p", false, "Peer to peer migration")
	flags.BoolVar(&tunnelled, "tunnelled", false, "Tunnel data through the libvirt connection")
	flags.BoolVar(&persist, "persistent", false, "Persist the domain on the destination")
	flags.BoolVar(&undefine, "undefinesource", false, "Undefine the domain on the source")
	flags.BoolVar(&autoConverge, "auto-converge", false, "Throttle vCPUs to help convergence")
	flags.StringVar(&p.URI, "migrate-uri", "", "Migration data URI")
	flags.StringVar(&p.DestName, "dname", "", "Rename the domain on the destination")
	flags.StringVar(&p.ListenAddress, "listen-address", "", "Address the destination listens on")
	flags.Uint64Var(&p.Bandwidth, "bandwidth", 0, "Bandwidth limit in MiB/s")
	flags.Int32Var(&p.AutoConvergeInitial, "auto-converge-initial", 0, "Initial throttle percentage")
	flags.Int32Var(&p.AutoConvergeIncrement, "auto-converge-increment", 0, "Throttle increment percentage")
	flags.Int32Var(&p.CompressionMTLevel, "comp-mt-level", 0, "Multithread compression level")
	flags.Int32Var(&p.CompressionMTThreads, "comp-mt-threads", 0, "Multithread compression threads")
	return cmd
}
