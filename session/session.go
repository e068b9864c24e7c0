// Package session ties the engine, the tick driver and the renderers
// together into one playable game.
package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-web/input"
	"github.com/hoshinonyaruko/snake-web/render"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
	"github.com/hoshinonyaruko/snake-web/ticker"
)

// Config 描述一局游戏的参数
type Config struct {
	TileCount      int
	Period         time.Duration // 每次移动的间隔
	SwipeThreshold float64
}

// Option configures a Session.
type Option func(*Session)

// WithRenderer adds a renderer called after every tick.
func WithRenderer(r render.Renderer) Option {
	return func(s *Session) {
		s.renderers = append(s.renderers, r)
	}
}

// WithEngineOptions passes options through to the engine.
func WithEngineOptions(opts ...snake.Option) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// Session is the single writer of one engine. Ticks and inputs are
// serialized by mu, so a step never overlaps a direction change.
type Session struct {
	cfg        Config
	engineOpts []snake.Option
	renderers  []render.Renderer

	// ctl 串行化 Start/Stop，保证旧的 driver 完全停止后才启动新的
	ctl    sync.Mutex
	driver *ticker.Ticker

	mu        sync.Mutex
	engine    *snake.Engine
	id        string
	startedAt time.Time
	listeners []func(structs.Result)
}

func New(cfg Config, opts ...Option) (*Session, error) {
	if cfg.Period <= 0 {
		return nil, ticker.ErrInvalidPeriod
	}
	if cfg.SwipeThreshold <= 0 {
		cfg.SwipeThreshold = input.DefaultSwipeThreshold
	}
	s := &Session{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	engine, err := snake.NewEngine(cfg.TileCount, s.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.engine = engine
	return s, nil
}

// OnGameOver registers fn to receive the result of every finished game.
// fn runs on the tick goroutine and must not call Start or Stop.
func (s *Session) OnGameOver(fn func(structs.Result)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Start stops any running game, resets the engine and starts moving right.
func (s *Session) Start() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.driver != nil {
		s.driver.Stop()
		s.driver = nil
	}

	driver, err := ticker.New(s.cfg.Period, s.tick)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.engine.Initialize(s.cfg.TileCount); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start session: %w", err)
	}
	s.engine.SetDirection(structs.Right)
	s.id = uuid.NewString()
	s.startedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Printf("session %s started, grid %dx%d, tick %v", snap.SessionID, snap.TileCount, snap.TileCount, s.cfg.Period)
	s.render(snap)

	s.driver = driver
	driver.Start()
	return nil
}

// Stop halts the tick driver without touching the game state.
func (s *Session) Stop() {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if s.driver != nil {
		s.driver.Stop()
		s.driver = nil
	}
}

// SetDirection forwards a direction request to the engine for the next tick.
func (s *Session) SetDirection(d structs.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetDirection(d)
}

// Key applies a keyboard key; unknown keys are ignored.
func (s *Session) Key(name string) bool {
	d, ok := input.FromKey(name)
	if !ok {
		return false
	}
	return s.SetDirection(d)
}

// Swipe applies a touch gesture displacement.
func (s *Session) Swipe(dx, dy float64) bool {
	d, ok := input.FromSwipe(dx, dy, s.cfg.SwipeThreshold)
	if !ok {
		return false
	}
	return s.SetDirection(d)
}

func (s *Session) Snapshot() structs.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() structs.Snapshot {
	snap := s.engine.Snapshot()
	snap.SessionID = s.id
	return snap
}

// tick is the driver task: one step, then render, then report game over.
func (s *Session) tick() bool {
	s.mu.Lock()
	out := s.engine.Step()
	snap := s.snapshotLocked()
	var result structs.Result
	var listeners []func(structs.Result)
	if out.Terminal() {
		result = structs.Result{
			SessionID: s.id,
			Score:     snap.Score,
			Length:    len(snap.Snake),
			Ticks:     snap.Tick,
			TileCount: snap.TileCount,
			StartedAt: s.startedAt,
			EndedAt:   time.Now(),
		}
		listeners = append(listeners, s.listeners...)
	}
	s.mu.Unlock()

	s.render(snap)

	if !out.Terminal() {
		return true
	}
	log.Printf("session %s game over (%v), score %d, length %d", result.SessionID, out, result.Score, result.Length)
	for _, fn := range listeners {
		fn(result)
	}
	return false
}

func (s *Session) render(snap structs.Snapshot) {
	for _, r := range s.renderers {
		if err := r.Render(snap); err != nil {
			log.Printf("render error: %v", err)
		}
	}
}
