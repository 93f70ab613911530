// Package engine provides the host side of a run: the tick loop, the
// broadcast bus and the simulation that steps every agent against the
// world once per tick.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval; 0 runs as fast as possible

	speedMu sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running atomic.Bool

	// Callbacks, populated during setup.
	OnTick      func(tick uint64) // Every tick
	OnReport    func(tick uint64) // Every ReportEvery ticks
	ReportEvery uint64
	Done        func() bool // Ends the run early when it returns true
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		speed:       1.0,
		Interval:    0,
		ReportEvery: 50,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.speedMu.Lock()
	defer e.speedMu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. 0 pauses the run.
func (e *Engine) SetSpeed(speed float64) {
	e.speedMu.Lock()
	defer e.speedMu.Unlock()
	e.speed = speed
}

// Running reports whether Run is in progress.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run steps the simulation until Stop is called, Done reports true or
// maxTicks ticks have run (0 = no limit). It returns the last tick.
func (e *Engine) Run(maxTicks uint64) uint64 {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started", "tick", e.Tick, "max_ticks", maxTicks, "interval", e.Interval)

	var ran uint64
	for e.running.Load() {
		if maxTicks > 0 && ran >= maxTicks {
			break
		}
		speed := e.Speed()
		if speed <= 0 {
			// Paused; sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.step()
		ran++
		if e.Done != nil && e.Done() {
			slog.Info("run complete", "tick", e.Tick)
			break
		}

		if e.Interval > 0 {
			elapsed := time.Since(start)
			target := time.Duration(float64(e.Interval) / speed)
			if elapsed < target {
				time.Sleep(target - elapsed)
			}
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
	return e.Tick
}

// Stop halts the simulation loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}
