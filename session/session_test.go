package session

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/hoshinonyaruko/snake-web/render"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
	"github.com/hoshinonyaruko/snake-web/ticker"
)

type recorder struct {
	mu    sync.Mutex
	snaps []structs.Snapshot
}

func (r *recorder) Render(snap structs.Snapshot) error {
	r.mu.Lock()
	r.snaps = append(r.snaps, snap)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func newTestSession(t *testing.T, cfg Config, opts ...Option) *Session {
	t.Helper()
	opts = append(opts, WithEngineOptions(snake.WithRand(rand.New(rand.NewSource(3)))))
	s, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{TileCount: 25}); !errors.Is(err, ticker.ErrInvalidPeriod) {
		t.Errorf("zero period: err = %v", err)
	}
	if _, err := New(Config{TileCount: 1, Period: time.Millisecond}); !errors.Is(err, snake.ErrInvalidTileCount) {
		t.Errorf("tile count 1: err = %v", err)
	}
}

func TestSessionRunsToGameOver(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(t, Config{TileCount: 5, Period: time.Millisecond}, WithRenderer(rec))

	results := make(chan structs.Result, 1)
	s.OnGameOver(func(r structs.Result) { results <- r })

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	id := s.Snapshot().SessionID
	if id == "" {
		t.Fatal("Start did not assign a session id")
	}

	var result structs.Result
	select {
	case result = <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("no game over: the snake should hit the right wall")
	}

	if result.SessionID != id {
		t.Errorf("result session = %q, want %q", result.SessionID, id)
	}
	snap := s.Snapshot()
	if snap.State != structs.GameOver {
		t.Errorf("state = %s, want game_over", snap.State)
	}
	if result.Score != snap.Score || result.Length != len(snap.Snake) {
		t.Errorf("result %+v does not match final snapshot %+v", result, snap)
	}
	if result.EndedAt.Before(result.StartedAt) {
		t.Errorf("ended %v before started %v", result.EndedAt, result.StartedAt)
	}

	rendered := rec.count()
	if rendered < 2 {
		t.Errorf("rendered %d frames, want the start frame and at least one tick", rendered)
	}
	time.Sleep(20 * time.Millisecond)
	if got := rec.count(); got != rendered {
		t.Errorf("rendered %d more frames after game over", got-rendered)
	}
}

func TestRestartResetsState(t *testing.T) {
	s := newTestSession(t, Config{TileCount: 25, Period: time.Hour})

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	first := s.Snapshot()
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	second := s.Snapshot()

	if first.SessionID == second.SessionID {
		t.Error("restart kept the old session id")
	}
	if second.State != structs.Running || second.Direction != structs.Right {
		t.Errorf("after restart state=%s direction=%v, want running right", second.State, second.Direction)
	}
	if len(second.Snake) != 1 || second.Snake[0] != (structs.Position{X: 12, Y: 12}) || second.Score != 0 {
		t.Errorf("after restart snake=%v score=%d", second.Snake, second.Score)
	}
}

func TestInputsReachEngine(t *testing.T) {
	s := newTestSession(t, Config{TileCount: 25, Period: time.Hour})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	if s.Key("ArrowLeft") {
		t.Error("reverse key accepted")
	}
	if s.Key("Enter") {
		t.Error("unmapped key accepted")
	}
	if !s.Key("w") {
		t.Error("key w rejected")
	}
	if s.Swipe(0, 50) {
		t.Error("swipe down accepted while up is pending")
	}
	if s.Swipe(10, 5) {
		t.Error("short swipe accepted")
	}
	if !s.Swipe(-50, 3) {
		t.Error("swipe left rejected")
	}
	if got := s.Snapshot().Direction; got != structs.Left {
		t.Errorf("direction = %v, want left", got)
	}
}

func TestRenderErrorsAreNotFatal(t *testing.T) {
	var calls sync.WaitGroup
	calls.Add(1)
	var once sync.Once
	failing := render.Func(func(structs.Snapshot) error {
		once.Do(calls.Done)
		return errors.New("disk full")
	})
	s := newTestSession(t, Config{TileCount: 25, Period: time.Hour}, WithRenderer(failing))

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	calls.Wait()
}
