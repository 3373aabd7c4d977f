// Command virt is a small libvirt client built on the cgo-free bindings.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tinyrange/virt/internal/config"
	"github.com/tinyrange/virt/internal/libvirt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "virt: %v\n", err)
		os.Exit(1)
	}
}

// app carries the settings shared by every subcommand.
type app struct {
	configPath string
	uri        string
	readOnly   bool
	debug      bool

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "virt",
		Short:         "Inspect and tune libvirt domains",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config-file", "", "Config file (default: ~/.config/virt/config.yaml)")
	flags.StringVarP(&a.uri, "connect", "c", "", "Hypervisor connection URI")
	flags.BoolVarP(&a.readOnly, "readonly", "r", false, "Open a read-only connection")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newHelloCmd(a),
		newConsoleCmd(a),
		newMemtuneCmd(a),
		newSchedinfoCmd(a),
		newNumatuneCmd(a),
		newBlkiotuneCmd(a),
		newJobinfoCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// setup loads the config file and lets flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	flags := cmd.Flags()
	if !flags.Changed("connect") {
		a.uri = cfg.URI
	}
	if !flags.Changed("readonly") {
		a.readOnly = cfg.ReadOnly
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if a.debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func (a *app) connect() (*libvirt.Connect, error) {
	slog.Debug("Connecting", "uri", a.uri, "readonly", a.readOnly)
	if a.readOnly {
		return libvirt.OpenReadOnly(a.uri)
	}
	return libvirt.Open(a.uri)
}

// withDomain opens a connection, looks up name and calls fn. Both handles
// are released afterwards.
func (a *app) withDomain(name string, fn func(conn *libvirt.Connect, dom *libvirt.Domain) error) error {
	conn, err := a.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	dom, err := conn.LookupDomainByName(name)
	if err != nil {
		return err
	}
	defer dom.Free()

	return fn(conn, dom)
}

// impactFlags adds --live, --config and --current.
type impactFlags struct {
	live, config, current bool
}

func (f *impactFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.live, "live", false, "Affect the running domain")
	cmd.Flags().BoolVar(&f.config, "config", false, "Affect the persistent configuration")
	cmd.Flags().BoolVar(&f.current, "current", false, "Affect the current state")
	cmd.MarkFlagsMutuallyExclusive("current", "live")
	cmd.MarkFlagsMutuallyExclusive("current", "config")
}

func (f *impactFlags) value() libvirt.DomainModificationImpact {
	var v libvirt.DomainModificationImpact
	if f.live {
		v |= libvirt.DomainAffectLive
	}
	if f.config {
		v |= libvirt.DomainAffectConfig
	}
	return v
}

// anyChanged reports whether any of the named flags was given.
func anyChanged(fs *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}
