package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Settings are the user choices restored across dashboard restarts.
type Settings struct {
	Symbol                 string    `json:"symbol"`
	AutoRefresh            bool      `json:"auto_refresh"`
	RefreshIntervalSeconds int       `json:"refresh_interval_seconds"`
	Theme                  string    `json:"theme"`
	TimeRange              string    `json:"time_range"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Load reads settings from a JSON file. ok is false if the file doesn't exist.
func Load(filePath string) (s *Settings, ok bool, err error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, false, nil
		}
		return nil, false, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, false, fmt.Errorf("parse prefs: %w", err)
	}
	return &settings, true, nil
}

// Save writes settings to a JSON file, creating its directory if needed.
func Save(filePath string, s *Settings) error {
	s.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0o644)
}
