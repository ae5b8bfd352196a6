// ABOUTME: Entry point for the LAF player
// ABOUTME: Parses CLI flags and starts the player application
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/limitless-audio/laf-go/internal/app"
	"github.com/limitless-audio/laf-go/internal/version"
	"github.com/limitless-audio/laf-go/pkg/audio/sink"
)

var (
	device     = flag.String("device", "", "Audio device name (default: system default)")
	logFile    = flag.String("log-file", "laf-player.log", "Log file path")
	idleMs     = flag.Int("idle-ms", 10, "Scheduler idle delay in milliseconds")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs = flag.Bool("stream-logs", false, "Alias for -no-tui")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] file.laf [file.laf ...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	player := app.New(app.Config{
		Files:     flag.Args(),
		Device:    *device,
		IdleDelay: time.Duration(*idleMs) * time.Millisecond,
		NoTUI:     !useTUI,
	}, sink.NewOto())

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down", sig)
		player.Stop()
	}()

	if err := player.Start(); err != nil {
		log.Fatalf("Player error: %v", err)
	}

	log.Printf("Player stopped")
}
