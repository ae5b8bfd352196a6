// ABOUTME: Entry point for the offline LAF-to-WAV converter
// ABOUTME: Parses CLI flags and renders each input file to a stereo WAV
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/limitless-audio/laf-go/internal/render"
	"github.com/limitless-audio/laf-go/pkg/laf"
)

var output = flag.String("o", "", "Output WAV path (default: input with .wav extension; only valid with a single input)")

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [-o out.wav] file.laf [file.laf ...]\n", os.Args[0])
		os.Exit(2)
	}
	if *output != "" && flag.NArg() > 1 {
		log.Fatal("-o requires exactly one input file")
	}

	failed := false
	for _, path := range flag.Args() {
		out := *output
		if out == "" {
			out = strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
		}
		if err := convert(path, out); err != nil {
			log.Printf("%s: %v", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func convert(path, out string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	stream, err := laf.NewStream(in)
	if err != nil {
		return fmt.Errorf("parsing header: %w", err)
	}

	info := stream.Info()
	log.Printf("%s: %s %s, %d tracks (%d position) at %d Hz, %.1fs",
		path, info.Quality.Name(), info.Mode.Name(), info.NumTracks,
		stream.NumPositionTracks(), info.SampleRate, info.Duration())

	f, err := os.Create(out)
	if err != nil {
		return err
	}

	frames, err := render.WAV(stream, f)
	if err != nil {
		f.Close()
		os.Remove(out)
		return fmt.Errorf("rendering: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Printf("%s: wrote %d frames to %s", path, frames, out)
	return nil
}
