package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// ErrConfigNotFound 配置项不存在
var ErrConfigNotFound = errors.New("config key not found")

// 配置键
const (
	ConfigCurrentRunID = "current_run_id"
	ConfigRunCount     = "run_count"
)

// GetConfig 获取配置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", key, ErrConfigNotFound)
		}
		return "", err
	}
	return value, nil
}

// GetConfigInt 获取整数配置项
func (s *Store) GetConfigInt(key string) (int, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// SetConfigInt 设置整数配置项
func (s *Store) SetConfigInt(key string, value int) error {
	return s.SetConfig(key, strconv.Itoa(value))
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}

	return config, rows.Err()
}

// GetCurrentRunID 最近一次完成的任务；没有时返回空串
func (s *Store) GetCurrentRunID() (string, error) {
	id, err := s.GetConfig(ConfigCurrentRunID)
	if errors.Is(err, ErrConfigNotFound) {
		return "", nil
	}
	return id, err
}

// SetCurrentRunID 记录最近一次完成的任务并累加任务计数
func (s *Store) SetCurrentRunID(id string) error {
	if err := s.SetConfig(ConfigCurrentRunID, id); err != nil {
		return err
	}
	n, err := s.GetConfigInt(ConfigRunCount)
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}
	return s.SetConfigInt(ConfigRunCount, n+1)
}
