package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-web/api"
	"github.com/hoshinonyaruko/snake-web/config"
	"github.com/hoshinonyaruko/snake-web/memimg"
	"github.com/hoshinonyaruko/snake-web/render"
	"github.com/hoshinonyaruko/snake-web/session"
	"github.com/hoshinonyaruko/snake-web/sqlite"
	"github.com/hoshinonyaruko/snake-web/stream"
	"github.com/hoshinonyaruko/snake-web/structs"
)

func main() {
	configPath := flag.String("config", "./config.json", "path to the JSON config file")
	flag.Parse()

	// Initialize the configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	EnsureFoldersExist(cfg.SpriteDir, cfg.OutputDir, "static")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 载入贴图到内存，并检测热更新
	sprites := memimg.New(cfg.Blocksize)
	if err := sprites.Load(cfg.SpriteDir); err != nil {
		log.Printf("Failed to load sprites: %v", err)
	}
	if err := sprites.Watch(ctx, cfg.SpriteDir); err != nil {
		log.Printf("Failed to watch %s: %v", cfg.SpriteDir, err)
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	frames := render.NewImage(cfg.Blocksize, sprites, filepath.Join(cfg.OutputDir, "snake.png"))
	hub := stream.NewHub()
	defer hub.Close()

	game, err := session.New(session.Config{
		TileCount:      cfg.TileCount,
		Period:         cfg.Speed(),
		SwipeThreshold: cfg.SwipeThreshold,
	}, session.WithRenderer(frames), session.WithRenderer(hub))
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	defer game.Stop()

	// 持久化每一局的分数
	game.OnGameOver(func(r structs.Result) {
		if err := sqlite.RecordResult(db, r); err != nil {
			log.Printf("Failed to record session %s: %v", r.SessionID, err)
		}
	})
	game.OnGameOver(hub.GameOver)

	router := gin.Default()
	api.Register(router, game, frames, db, hub.Handler(game))
	router.Static("/static", "./static") // 静态文件服务

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("listening on %s, open http://%s/static/", srv.Addr, cfg.SelfPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist(folders ...string) {
	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			if err := os.MkdirAll(folder, 0755); err != nil {
				log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			log.Printf("Created %s directory", folder)
		}
	}
}
