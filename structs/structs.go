package structs

import "time"

// Position 描述网格上的一个格子坐标。
type Position struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Add 返回按方向移动一格后的位置
func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Direction 是单位方向向量，(0,0) 表示尚未开始移动。
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	Stopped = Direction{0, 0}
	Up      = Direction{0, -1}
	Down    = Direction{0, 1}
	Left    = Direction{-1, 0}
	Right   = Direction{1, 0}
)

// Valid reports whether d is one of the four unit vectors or Stopped.
func (d Direction) Valid() bool {
	switch d {
	case Stopped, Up, Down, Left, Right:
		return true
	}
	return false
}

// Opposite 返回反方向
func (d Direction) Opposite() Direction {
	return Direction{X: -d.X, Y: -d.Y}
}

// IsZero reports whether d is the pre-start direction.
func (d Direction) IsZero() bool {
	return d == Stopped
}

// String 用于日志
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Stopped:
		return "stopped"
	}
	return "invalid"
}

// ParseDirection 解析 "up", "down", "left", "right"
func ParseDirection(name string) (Direction, bool) {
	switch name {
	case "up":
		return Up, true
	case "down":
		return Down, true
	case "left":
		return Left, true
	case "right":
		return Right, true
	}
	return Stopped, false
}

// State 是一局游戏的状态机状态
type State string

const (
	PreStart State = "pre_start"
	Running  State = "running"
	GameOver State = "game_over"
)

// Snapshot 是渲染器读取的只读状态副本。
type Snapshot struct {
	SessionID string     `json:"session_id"`
	TileCount int        `json:"tile_count"` // 地图边长
	Snake     []Position `json:"snake"`      // 蛇身，头在前
	Food      Position   `json:"food"`       // 食物位置
	Score     int        `json:"score"`
	Direction Direction  `json:"direction"`
	State     State      `json:"state"`
	Tick      uint64     `json:"tick"` // 已执行的移动次数
}

// Head returns the first segment, or the zero position for an empty snake.
func (s Snapshot) Head() Position {
	if len(s.Snake) == 0 {
		return Position{}
	}
	return s.Snake[0]
}

// Result 描述一局结束的游戏。
type Result struct {
	SessionID string    `json:"session_id"`
	Score     int       `json:"score"`
	Length    int       `json:"length"`
	Ticks     uint64    `json:"ticks"`
	TileCount int       `json:"tile_count"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}
