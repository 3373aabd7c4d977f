//go:build ignore

// This file walks through the public API of the virt package against the
// libvirt test driver. It is excluded from the build and serves as a
// reference and compile-time check.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	virt "github.com/tinyrange/virt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Event loop - must be registered before the first connection
	// =========================================================================
	if err := virt.EventRegisterDefaultImpl(); err != nil {
		return fmt.Errorf("register event loop: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fired := 0
	timer, err := virt.EventAddTimeout(100, func(t virt.EventTimer, opaque any) {
		fired++
		fmt.Printf("tick %d (%v)\n", fired, opaque)
	}, "example", func(opaque any) {
		fmt.Printf("timer context %v released\n", opaque)
	})
	if err != nil {
		return fmt.Errorf("add timeout: %w", err)
	}

	go func() {
		time.Sleep(500 * time.Millisecond)
		timer.Remove()
	}()

	if err := virt.EventRunDefaultImplContext(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("run event loop: %w", err)
	}

	// =========================================================================
	// Connections and domains
	// =========================================================================
	conn, err := virt.Open("test:///default")
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer conn.Close()

	lib, err := conn.LibVersion()
	if err != nil {
		return err
	}
	fmt.Printf("libvirt %s\n", virt.VersionString(lib))

	dom, err := conn.LookupDomainByName("test")
	if err != nil {
		return err
	}
	defer dom.Free()

	// =========================================================================
	// Typed parameters - only the fields marked Set are sent
	// =========================================================================
	mem := &virt.DomainMemoryParameters{SoftLimitSet: true, SoftLimit: 87539319}
	if err := dom.SetMemoryParameters(mem, virt.DomainAffectLive); err != nil {
		if !errors.Is(err, virt.ErrNoSupport) {
			return fmt.Errorf("set memory parameters: %w", err)
		}
	}

	sched, err := dom.GetSchedulerParameters(virt.DomainAffectCurrent)
	if err != nil {
		return fmt.Errorf("get scheduler parameters: %w", err)
	}
	fmt.Printf("scheduler %s weight=%d (set=%v)\n", sched.Type, sched.Weight, sched.WeightSet)

	// =========================================================================
	// Errors - libvirt codes match sentinels
	// =========================================================================
	if _, err := conn.LookupDomainByName("missing"); errors.Is(err, virt.ErrNoDomain) {
		fmt.Println("missing domain reported as ErrNoDomain")
	}

	return nil
}
