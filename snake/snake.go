// 贪食蛇的状态与每一步的更新
package snake

import (
	"errors"
	"math/rand"
	"time"

	"github.com/hoshinonyaruko/snake-web/structs"
)

// ErrInvalidTileCount is returned when the grid cannot hold a snake and a food.
var ErrInvalidTileCount = errors.New("snake: tile count must be at least 2")

// Outcome 描述一次 Step 的结果
type Outcome int

const (
	Idle     Outcome = iota // 未开始或已结束，什么都没做
	Moved                   // 正常移动
	Ate                     // 吃到食物，蛇变长
	Collided                // 撞墙或撞到自己，游戏结束
	Filled                  // 蛇占满整个地图，无处放食物，游戏结束
)

// Terminal reports whether the step ended the session.
func (o Outcome) Terminal() bool {
	return o == Collided || o == Filled
}

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Moved:
		return "moved"
	case Ate:
		return "ate"
	case Collided:
		return "collided"
	case Filled:
		return "filled"
	}
	return "unknown"
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand 指定食物位置的随机源，测试时用固定种子
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// Engine owns the authoritative game state. It is not safe for concurrent
// use; callers serialize Step, SetDirection and Snapshot.
type Engine struct {
	tileCount int
	snake     []structs.Position // 头在前
	direction structs.Direction  // 下一次 Step 使用的方向
	heading   structs.Direction  // 上一次 Step 实际移动的方向
	food      structs.Position
	score     int
	state     structs.State
	ticks     uint64
	rng       *rand.Rand
}

// NewEngine creates an engine and starts its first session.
func NewEngine(tileCount int, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if err := e.Initialize(tileCount); err != nil {
		return nil, err
	}
	return e, nil
}

// Initialize resets the engine to a fresh PRE_START session: one segment at
// the grid center, no direction, zero score and a food on a free cell.
func (e *Engine) Initialize(tileCount int) error {
	if tileCount < 2 {
		return ErrInvalidTileCount
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	center := tileCount / 2
	e.tileCount = tileCount
	e.snake = []structs.Position{{X: center, Y: center}}
	e.direction = structs.Stopped
	e.heading = structs.Stopped
	e.score = 0
	e.ticks = 0
	e.state = structs.PreStart
	e.placeFood()
	return nil
}

// SetDirection requests a new direction for the next Step. It returns false
// and leaves the state untouched when the request is invalid, when the
// session is over, or when it would reverse the snake into itself.
func (e *Engine) SetDirection(d structs.Direction) bool {
	if e.state == structs.GameOver || !d.Valid() || d.IsZero() {
		return false
	}
	// 既不能与已请求的方向相反，也不能与上一步实际移动的方向相反，
	// 否则一个 tick 内连按两次就能掉头
	if d == e.direction.Opposite() || d == e.heading.Opposite() {
		return false
	}
	e.direction = d
	if e.state == structs.PreStart {
		e.state = structs.Running
	}
	return true
}

// Step advances the session by one tick.
func (e *Engine) Step() Outcome {
	if e.state != structs.Running || e.direction.IsZero() {
		return Idle
	}

	head := e.snake[0].Add(e.direction)

	// 撞墙
	if !e.inBounds(head) {
		e.state = structs.GameOver
		return Collided
	}
	// 撞到自己，尾巴此时还没移走，也算碰撞
	if e.occupied(head) {
		e.state = structs.GameOver
		return Collided
	}

	e.heading = e.direction
	e.ticks++

	// 新头部放在最前面
	e.snake = append(e.snake, structs.Position{})
	copy(e.snake[1:], e.snake)
	e.snake[0] = head

	if head == e.food {
		e.score++
		if !e.placeFood() {
			e.state = structs.GameOver
			return Filled
		}
		return Ate
	}

	e.snake = e.snake[:len(e.snake)-1]
	return Moved
}

// Snapshot returns a copy of the state that readers may keep.
func (e *Engine) Snapshot() structs.Snapshot {
	body := make([]structs.Position, len(e.snake))
	copy(body, e.snake)
	return structs.Snapshot{
		TileCount: e.tileCount,
		Snake:     body,
		Food:      e.food,
		Score:     e.score,
		Direction: e.direction,
		State:     e.state,
		Tick:      e.ticks,
	}
}

func (e *Engine) State() structs.State { return e.state }

func (e *Engine) Score() int { return e.score }

func (e *Engine) Len() int { return len(e.snake) }

func (e *Engine) TileCount() int { return e.tileCount }

func (e *Engine) inBounds(p structs.Position) bool {
	return p.X >= 0 && p.X < e.tileCount && p.Y >= 0 && p.Y < e.tileCount
}

func (e *Engine) occupied(p structs.Position) bool {
	for _, seg := range e.snake {
		if seg == p {
			return true
		}
	}
	return false
}

// placeFood re-rolls a uniform random cell until it is off the snake.
// It returns false when the snake covers the whole grid.
func (e *Engine) placeFood() bool {
	if len(e.snake) >= e.tileCount*e.tileCount {
		return false
	}
	for {
		p := structs.Position{
			X: e.rng.Intn(e.tileCount),
			Y: e.rng.Intn(e.tileCount),
		}
		if !e.occupied(p) {
			e.food = p
			return true
		}
	}
}
