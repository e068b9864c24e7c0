package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath       string  `json:"selfpath"`
	Port           string  `json:"port"`
	TileCount      int     `json:"tilecount"`      // 地图边长（格子数）
	SpeedMS        int     `json:"speedms"`        // 每次移动的间隔，毫秒
	Blocksize      int     `json:"blocksize"`      // 渲染时每个格子的像素
	SwipeThreshold float64 `json:"swipethreshold"` // 滑动判定距离
	DBPath         string  `json:"dbpath"`
	SpriteDir      string  `json:"spritedir"`
	OutputDir      string  `json:"outputdir"`
}

var (
	instance *AppConfig
	once     sync.Once
	loadErr  error
)

// Default returns the built-in settings.
func Default() *AppConfig {
	return &AppConfig{
		SelfPath:       "localhost:38870",
		Port:           "38870",
		TileCount:      25,
		SpeedMS:        100,
		Blocksize:      20,
		SwipeThreshold: 30,
		DBPath:         "game.db",
		SpriteDir:      "sprites",
		OutputDir:      "output",
	}
}

// LoadConfig initializes and returns the instance of AppConfig. The file is
// created with defaults when it does not exist.
func LoadConfig(filePath string) (*AppConfig, error) {
	once.Do(func() {
		instance, loadErr = Load(filePath)
	})
	return instance, loadErr
}

// Load reads filePath without touching the singleton.
func Load(filePath string) (*AppConfig, error) {
	cfg := Default()
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := saveConfig(filePath, cfg); err != nil {
			return nil, err
		}
	} else if err := loadConfig(filePath, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", filePath, err)
	}
	return cfg, nil
}

// Validate rejects settings the game cannot start with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.TileCount < 2 {
		errs = append(errs, fmt.Errorf("tilecount must be at least 2, got %d", c.TileCount))
	}
	if c.SpeedMS <= 0 {
		errs = append(errs, fmt.Errorf("speedms must be positive, got %d", c.SpeedMS))
	}
	if c.Blocksize <= 0 {
		errs = append(errs, fmt.Errorf("blocksize must be positive, got %d", c.Blocksize))
	}
	if c.SwipeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("swipethreshold must be positive, got %v", c.SwipeThreshold))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is empty"))
	}
	return errors.Join(errs...)
}

// Speed is the tick period.
func (c *AppConfig) Speed() time.Duration {
	return time.Duration(c.SpeedMS) * time.Millisecond
}

// loadConfig loads the settings from the file
func loadConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	return nil
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
