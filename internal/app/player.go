// ABOUTME: Main player application orchestration
// ABOUTME: Coordinates stream parsing, scheduling, sink and UI
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/limitless-audio/laf-go/internal/player"
	"github.com/limitless-audio/laf-go/internal/ui"
	"github.com/limitless-audio/laf-go/pkg/audio/sink"
	"github.com/limitless-audio/laf-go/pkg/laf"
)

// Config holds player configuration
type Config struct {
	// Files are played back to back; a file that fails to parse or
	// play aborts only its own stream.
	Files []string

	Device    string
	IdleDelay time.Duration
	NoTUI     bool
}

// Player represents the main player application
type Player struct {
	config  Config
	snk     sink.Sink
	ctrl    *ui.Control
	tuiProg *tea.Program
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// New creates a player driving the given sink.
func New(config Config, snk sink.Sink) *Player {
	ctx, cancel := context.WithCancel(context.Background())

	return &Player{
		config: config,
		snk:    snk,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start plays every configured file in order and returns when the last
// one finishes or the player is stopped.
func (p *Player) Start() error {
	if !p.config.NoTUI {
		p.ctrl = ui.NewControl()
		tuiProg, err := ui.Run(p.ctrl)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
		p.tuiProg = tuiProg

		go func() {
			// The TUI exiting (q, ctrl+c) ends playback too.
			if _, err := p.tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			p.cancel()
		}()
		go p.handleControls()
	}

	for _, path := range p.config.Files {
		if p.ctx.Err() != nil {
			break
		}
		if err := p.playFile(path); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			log.Printf("%s: %v", path, err)
		}
		if err := p.snk.Reset(); err != nil {
			log.Printf("sink reset: %v", err)
		}
	}

	p.Stop()
	return nil
}

// handleControls routes TUI input to the sink.
func (p *Player) handleControls() {
	for {
		select {
		case v := <-p.ctrl.Volume:
			if vs, ok := p.snk.(interface{ SetVolume(int) }); ok {
				vs.SetVolume(v)
			}

		case <-p.ctrl.Quit:
			p.cancel()
			return

		case <-p.ctx.Done():
			return
		}
	}
}

// playFile parses and plays one file to completion.
func (p *Player) playFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stream, err := laf.NewStream(f)
	if err != nil {
		return fmt.Errorf("parsing header: %w", err)
	}

	info := stream.Info()
	sessionID := uuid.New().String()
	log.Printf("Session %s: %s", sessionID, path)
	log.Printf("  quality=%s mode=%s tracks=%d position-tracks=%d rate=%dHz duration=%.1fs",
		info.Quality.Name(), info.Mode.Name(), info.NumTracks,
		stream.NumPositionTracks(), info.SampleRate, info.Duration())

	p.sendStatus(ui.StatusMsg{
		File:           filepath.Base(path),
		Quality:        info.Quality.Name(),
		Mode:           info.Mode.Name(),
		Tracks:         int(info.NumTracks),
		PositionTracks: stream.NumPositionTracks(),
		SampleRate:     int(info.SampleRate),
		Duration:       info.Duration(),
		State:          "loading",
	})

	opts := player.Options{
		Device:    p.config.Device,
		IdleDelay: p.config.IdleDelay,
	}

	var lastUpdate time.Time
	var sched *player.Scheduler
	opts.OnProgress = func(played uint64, st sink.State) {
		if time.Since(lastUpdate) < 100*time.Millisecond {
			return
		}
		lastUpdate = time.Now()
		pos := float64(played) / float64(info.SampleRate)
		stats := sched.Stats()
		p.sendStatus(ui.StatusMsg{
			State:      st.String(),
			Position:   &pos,
			ChunksRead: stats.ChunksRead,
			Underruns:  stats.Underruns,
		})
	}

	sched, err = player.New(stream, p.snk, opts)
	if err != nil {
		return err
	}

	err = sched.Run(p.ctx)

	stats := sched.Stats()
	played, _ := sched.Progress()
	pos := float64(played) / float64(info.SampleRate)
	p.sendStatus(ui.StatusMsg{
		State:      "done",
		Position:   &pos,
		ChunksRead: stats.ChunksRead,
		Underruns:  stats.Underruns,
	})
	if err == nil {
		log.Printf("Session %s: finished, %d chunks, %d underruns",
			sessionID, stats.ChunksRead, stats.Underruns)
	}
	return err
}

// sendStatus forwards a status update to the TUI if one is running.
func (p *Player) sendStatus(msg ui.StatusMsg) {
	if p.tuiProg != nil {
		p.tuiProg.Send(msg)
	}
}

// Stop stops the player
func (p *Player) Stop() {
	p.cancel()

	p.stopOnce.Do(func() {
		if err := p.snk.Close(); err != nil {
			log.Printf("closing sink: %v", err)
		}

		if p.tuiProg != nil {
			p.tuiProg.Quit()
		}
	})
}
