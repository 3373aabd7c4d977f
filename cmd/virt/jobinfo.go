package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/tinyrange/virt/internal/libvirt"
)

// jobStatsCompleted is VIR_DOMAIN_JOB_STATS_COMPLETED.
const jobStatsCompleted = 1 << 0

func newJobinfoCmd(a *app) *cobra.Command {
	var completed, watch, abort bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "jobinfo <domain>",
		Short: "Show, watch or abort the active domain job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDomain(args[0], func(_ *libvirt.Connect, dom *libvirt.Domain) error {
				if abort {
					return dom.AbortJob()
				}
				if watch {
					return watchJob(dom, interval)
				}
				var flags uint32
				if completed {
					flags |= jobStatsCompleted
				}
				info, err := dom.GetJobStats(flags)
				if err != nil {
					return err
				}
				printJob(cmd.OutOrStdout(), info)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "Show the last completed job")
	cmd.Flags().BoolVar(&watch, "watch", false, "Follow the job with a progress bar until it ends")
	cmd.Flags().BoolVar(&abort, "abort", false, "Abort the active job")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval for --watch")
	cmd.MarkFlagsMutuallyExclusive("watch", "abort", "completed")
	return cmd
}

func printJob(w io.Writer, info *libvirt.DomainJobInfo) {
	printParam(w, "Job type", true, info.Type)
	printParam(w, "Operation", info.OperationSet, info.Operation)
	printParam(w, "Time elapsed (ms)", info.TimeElapsedSet, info.TimeElapsed)
	printParam(w, "Time remaining (ms)", info.TimeRemainingSet, info.TimeRemaining)
	printParam(w, "Data processed", info.DataProcessedSet, info.DataProcessed)
	printParam(w, "Data remaining", info.DataRemainingSet, info.DataRemaining)
	printParam(w, "Data total", info.DataTotalSet, info.DataTotal)
	printParam(w, "Memory processed", info.MemProcessedSet, info.MemProcessed)
	printParam(w, "Memory remaining", info.MemRemainingSet, info.MemRemaining)
	printParam(w, "Memory total", info.MemTotalSet, info.MemTotal)
	printParam(w, "Memory bandwidth (B/s)", info.MemBpsSet, info.MemBps)
	printParam(w, "Dirty rate (pages/s)", info.MemDirtyRateSet, info.MemDirtyRate)
	printParam(w, "Iteration", info.MemIterationSet, info.MemIteration)
	printParam(w, "File processed", info.DiskProcessedSet, info.DiskProcessed)
	printParam(w, "File remaining", info.DiskRemainingSet, info.DiskRemaining)
	printParam(w, "File total", info.DiskTotalSet, info.DiskTotal)
	printParam(w, "Expected downtime (ms)", info.DowntimeSet, info.Downtime)
	printParam(w, "Setup time (ms)", info.SetupTimeSet, info.SetupTime)
	printParam(w, "Success", info.SuccessSet, info.Success)
}

func watchJob(dom *libvirt.Domain, interval time.Duration) error {
	var bar *progressbar.ProgressBar
	defer func() {
		if bar != nil {
			bar.Close()
		}
	}()

	for {
		info, err := dom.GetJobStats(0)
		if err != nil {
			return err
		}
		if info.Type == libvirt.JobNone {
			if bar == nil {
				return fmt.Errorf("no active job")
			}
			bar.Finish()
			return nil
		}
		if bar == nil {
			total := int64(-1)
			if info.DataTotalSet {
				total = int64(info.DataTotal)
			}
			bar = progressbar.DefaultBytes(total, "job")
		}
		if info.DataTotalSet && bar.GetMax64() != int64(info.DataTotal) {
			bar.ChangeMax64(int64(info.DataTotal))
		}
		if info.DataProcessedSet {
			bar.Set64(int64(info.DataProcessed))
		}
		time.Sleep(interval)
	}
}
