package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-web/input"
	"github.com/hoshinonyaruko/snake-web/sqlite"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// Game is the session surface the HTTP handlers drive.
type Game interface {
	Start() error
	SetDirection(d structs.Direction) bool
	Key(name string) bool
	Swipe(dx, dy float64) bool
	Snapshot() structs.Snapshot
}

// Frames serves the last rendered image.
type Frames interface {
	Frame() ([]byte, bool)
}

const (
	defaultScoreLimit = 10
	maxScoreLimit     = 100
)

// Register 注册所有路由，ws 可以为 nil
func Register(router *gin.Engine, game Game, frames Frames, db *sql.DB, ws http.HandlerFunc) {
	// 开始或重新开始
	router.GET("/start", StartHandler(game))
	// 处理玩家改变方向
	router.GET("/update-direction", UpdateDirection(game))
	router.GET("/swipe", SwipeHandler(game))
	router.GET("/state", StateHandler(game))
	// 渲染结果 返回最近一帧 PNG
	router.GET("/render-map", RenderMapHandler(frames))
	router.GET("/scores", ScoresHandler(db))
	router.GET("/scores/:id", ScoreHandler(db))
	if ws != nil {
		router.GET("/ws", gin.WrapF(ws))
	}
}

func StartHandler(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := game.Start(); err != nil {
			log.Printf("start failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to start game"})
			return
		}
		c.JSON(http.StatusOK, game.Snapshot())
	}
}

// UpdateDirection accepts either a browser key name (?key=ArrowUp) or a
// direction name (?direction=up).
func UpdateDirection(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Query("key")
		name := c.Query("direction")

		var d structs.Direction
		var ok bool
		switch {
		case key != "":
			d, ok = input.FromKey(key)
		case name != "":
			d, ok = structs.ParseDirection(name)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: key or direction"})
			return
		}
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown key or direction"})
			return
		}

		if !game.SetDirection(d) {
			c.JSON(http.StatusConflict, gin.H{"error": "Direction rejected", "state": game.Snapshot()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Direction updated successfully", "direction": d.String()})
	}
}

func SwipeHandler(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		dx, errX := strconv.ParseFloat(c.Query("dx"), 64)
		dy, errY := strconv.ParseFloat(c.Query("dy"), 64)
		if errX != nil || errY != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dx and dy must be numbers"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"accepted": game.Swipe(dx, dy)})
	}
}

func StateHandler(game Game) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, game.Snapshot())
	}
}

func RenderMapHandler(frames Frames) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, ok := frames.Frame()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Nothing rendered yet"})
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", data)
	}
}

func ScoresHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultScoreLimit)))
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if limit > maxScoreLimit {
			limit = maxScoreLimit
		}
		results, err := sqlite.TopScores(db, limit)
		if err != nil {
			log.Printf("err TopScores: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load scores"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"scores": results})
	}
}

func ScoreHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := sqlite.ResultByID(db, c.Param("id"))
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No such session"})
			return
		}
		if err != nil {
			log.Printf("err ResultByID: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load session"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
