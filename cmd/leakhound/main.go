package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rafabd1/LeakHound/cmd"
	"github.com/rafabd1/LeakHound/utils"
)

func main() {
	printBanner()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad flags or configuration and 1 for scan failures.
func exitCode(err error) int {
	if utils.IsConfigError(err) {
		return 2
	}
	return 1
}

// setupSignalHandling cancels the scan on the first Ctrl+C and exits on the second
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Finishing active units...")
		fmt.Fprintln(os.Stderr, "Press Ctrl+C again to exit immediately.")
		cancel()
		<-c
		os.Exit(130)
	}()
}

// printBanner prints the application banner
func printBanner() {
	banner := `
    __               __   __  __                      __
   / /   ___  ____ _/ /__/ / / /___  __  ______  ____/ /
  / /   / _ \/ __ '/ //_/ /_/ / __ \/ / / / __ \/ __  /
 / /___/  __/ /_/ / ,< / __  / /_/ / /_/ / / / / /_/ /
/_____/\___/\__,_/_/|_/_/ /_/\____/\__,_/_/ /_/\__,_/   v%s

Leak Finder | Created by github.com/rafabd1

`
	fmt.Fprintf(os.Stderr, banner, cmd.Version)
}
