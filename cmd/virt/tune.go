package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tinyrange/virt/internal/libvirt"
)

func printParam(w io.Writer, name string, set bool, v any) {
	if set {
		fmt.Fprintf(w, "%-24s: %v\n", name, v)
	}
}

func newMemtuneCmd(a *app) *cobra.Command {
	var impact impactFlags
	var p libvirt.DomainMemoryParameters
	cmd := &cobra.Command{
		Use:   "memtune <domain>",
		Short: "Get or set memory limits (KiB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p.HardLimitSet = flags.Changed("hard-limit")
			p.SoftLimitSet = flags.Changed("soft-limit")
			p.MinGuaranteeSet = flags.Changed("min-guarantee")
			p.SwapHardLimitSet = flags.Changed("swap-hard-limit")

			return a.withDomain(args[0], func(_ *libvirt.Connect, dom *libvirt.Domain) error {
				if anyChanged(flags, "hard-limit", "soft-limit", "min-guarantee", "swap-hard-limit") {
					return dom.SetMemoryParameters(&p, impact.value())
				}
				got, err := dom.GetMemoryParameters(impact.value())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printParam(w, "hard_limit", got.HardLimitSet, got.HardLimit)
				printParam(w, "soft_limit", got.SoftLimitSet, got.SoftLimit)
				printParam(w, "min_guarantee", got.MinGuaranteeSet, got.MinGuarantee)
				printParam(w, "swap_hard_limit", got.SwapHardLimitSet, got.SwapHardLimit)
				return nil
			})
		},
	}
	impact.register(cmd)
	cmd.Flags().Uint64Var(&p.HardLimit, "hard-limit", 0, "Maximum memory the guest can use")
	cmd.Flags().Uint64Var(&p.SoftLimit, "soft-limit", 0, "Memory limit enforced under contention")
	cmd.Flags().Uint64Var(&p.MinGuarantee, "min-guarantee", 0, "Guaranteed minimum memory")
	cmd.Flags().Uint64Var(&p.SwapHardLimit, "swap-hard-limit", 0, "Maximum memory plus swap")
	return cmd
}

func newSchedinfoCmd(a *app) *cobra.Command {
	var impact impactFlags
	var p libvirt.DomainSchedulerParameters
	cmd := &cobra.Command{
		Use:   "schedinfo <domain>",
		Short: "Get or set scheduler parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p.CPUSharesSet = flags.Changed("cpu-shares")
			p.VcpuPeriodSet = flags.Changed("vcpu-period")
			p.VcpuQuotaSet = flags.Changed("vcpu-quota")
			p.EmulatorPeriodSet = flags.Changed("emulator-period")
			p.EmulatorQuotaSet = flags.Changed("emulator-quota")
			p.WeightSet = flags.Changed("weight")
			p.CapSet = flags.Changed("cap")
			set := p.CPUSharesSet || p.VcpuPeriodSet || p.VcpuQuotaSet || p.EmulatorPeriodSet ||
				p.EmulatorQuotaSet || p.WeightSet || p.CapSet

			return a.withDomain(args[0], func(_ *libvirt.Connect, dom *libvirt.Domain) error {
				if set {
					if err := dom.SetSchedulerParameters(&p, impact.value()); err != nil {
						return err
					}
				}
				got, err := dom.GetSchedulerParameters(impact.value())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printParam(w, "Scheduler", true, got.Type)
				printParam(w, "cpu_shares", got.CPUSharesSet, got.CPUShares)
				printParam(w, "vcpu_period", got.VcpuPeriodSet, got.VcpuPeriod)
				printParam(w, "vcpu_quota", got.VcpuQuotaSet, got.VcpuQuota)
				printParam(w, "emulator_period", got.EmulatorPeriodSet, got.EmulatorPeriod)
				printParam(w, "emulator_quota", got.EmulatorQuotaSet, got.EmulatorQuota)
				printParam(w, "weight", got.WeightSet, got.Weight)
				printParam(w, "cap", got.CapSet, got.Cap)
				return nil
			})
		},
	}
	impact.register(cmd)
	cmd.Flags().Uint64Var(&p.CPUShares, "cpu-shares", 0, "Relative CPU weight")
	cmd.Flags().Uint64Var(&p.VcpuPeriod, "vcpu-period", 0, "vCPU enforcement period (us)")
	cmd.Flags().Int64Var(&p.VcpuQuota, "vcpu-quota", 0, "vCPU bandwidth per period (us)")
	cmd.Flags().Uint64Var(&p.EmulatorPeriod, "emulator-period", 0, "Emulator enforcement period (us)")
	cmd.Flags().Int64Var(&p.EmulatorQuota, "emulator-quota", 0, "Emulator bandwidth per period (us)")
	cmd.Flags().Uint32Var(&p.Weight, "weight", 0, "Scheduler weight")
	cmd.Flags().Uint32Var(&p.Cap, "cap", 0, "Scheduler cap")
	return cmd
}

var numaModes = map[string]libvirt.DomainNumaTuneMemMode{
	"strict":      libvirt.NumaTuneMemStrict,
	"preferred":   libvirt.NumaTuneMemPreferred,
	"interleave":  libvirt.NumaTuneMemInterleave,
	"restrictive": libvirt.NumaTuneMemRestrictive,
}

func numaModeName(m libvirt.DomainNumaTuneMemMode) string {
	for name, v := range numaModes {
		if v == m {
			return name
		}
	}
	return fmt.Sprint(int32(m))
}

func newNumatuneCmd(a *app) *cobra.Command {
	var impact impactFlags
	var p libvirt.DomainNumaParameters
	var mode string
	cmd := &cobra.Command{
		Use:   "numatune <domain>",
		Short: "Get or set NUMA memory placement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p.NodesetSet = flags.Changed("nodeset")
			if p.ModeSet = flags.Changed("mode"); p.ModeSet {
				m, ok := numaModes[mode]
				if !ok {
					return fmt.Errorf("unknown numa mode %q", mode)
				}
				p.Mode = m
			}

			return a.withDomain(args[0], func(_ *libvirt.Connect, dom *libvirt.Domain) error {
				if p.NodesetSet || p.ModeSet {
					return dom.SetNumaParameters(&p, impact.value())
				}
				got, err := dom.GetNumaParameters(impact.value())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printParam(w, "numa_mode", got.ModeSet, numaModeName(got.Mode))
				printParam(w, "numa_nodeset", got.NodesetSet, got.Nodeset)
				return nil
			})
		},
	}
	impact.register(cmd)
	cmd.Flags().StringVar(&p.Nodeset, "nodeset", "", "Host NUMA nodes, e.g. 0-1,3")
	cmd.Flags().StringVar(&mode, "mode", "", "strict, preferred, interleave or restrictive")
	return cmd
}

func newBlkiotuneCmd(a *app) *cobra.Command {
	var impact impactFlags
	var p libvirt.DomainBlkioParameters
	cmd := &cobra.Command{
		Use:   "blkiotune <domain>",
		Short: "Get or set block I/O tuning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			p.WeightSet = flags.Changed("weight")
			p.DeviceWeightSet = flags.Changed("device-weights")
			p.DeviceReadIopsSet = flags.Changed("device-read-iops-sec")
			p.DeviceWriteIopsSet = flags.Changed("device-write-iops-sec")
			p.DeviceReadBytesSet = flags.Changed("device-read-bytes-sec")
			p.DeviceWriteBytesSet = flags.Changed("device-write-bytes-sec")
			set := anyChanged(flags, "weight", "device-weights", "device-read-iops-sec",
				"device-write-iops-sec", "device-read-bytes-sec", "device-write-bytes-sec")

			return a.withDomain(args[0], func(_ *libvirt.Connect, dom *libvirt.Domain) error {
				if set {
					return dom.SetBlkioParameters(&p, impact.value())
				}
				got, err := dom.GetBlkioParameters(impact.value())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printParam(w, "weight", got.WeightSet, got.Weight)
				printParam(w, "device_weight", got.DeviceWeightSet, got.DeviceWeight)
				printParam(w, "device_read_iops_sec", got.DeviceReadIopsSet, got.DeviceReadIops)
				printParam(w, "device_write_iops_sec", got.DeviceWriteIopsSet, got.DeviceWriteIops)
				printParam(w, "device_read_bytes_sec", got.DeviceReadBytesSet, got.DeviceReadBytes)
				printParam(w, "device_write_bytes_sec", got.DeviceWriteBytesSet, got.DeviceWriteBytes)
				return nil
			})
		},
	}
	impact.register(cmd)
	cmd.Flags().Uint32Var(&p.Weight, "weight", 0, "Block I/O weight (100-1000)")
	cmd.Flags().StringVar(&p.DeviceWeight, "device-weights", "", "Per-device weights: /dev/sda,500")
	cmd.Flags().StringVar(&p.DeviceReadIops, "device-read-iops-sec", "", "Per-device read IOPS limits")
	cmd.Flags().StringVar(&p.DeviceWriteIops, "device-write-iops-sec", "", "Per-device write IOPS limits")
	cmd.Flags().StringVar(&p.DeviceReadBytes, "device-read-bytes-sec", "", "Per-device read throughput limits")
	cmd.Flags().StringVar(&p.DeviceWriteBytes, "device-write-bytes-sec", "", "Per-device write throughput limits")
	return cmd
}
