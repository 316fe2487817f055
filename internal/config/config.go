package config

import (
	"fmt"
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	AllowedOrigins []string
	RoomCapacity   int
}

func NewConfig(serverAddr, databaseDSN string, allowedOrigins []string, roomCapacity int) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if roomCapacity < 1 {
		return nil, fmt.Errorf("room capacity must be at least 1, got %d", roomCapacity)
	}

	return &Config{
		ServerAddr:     serverAddr,
		DatabaseDSN:    databaseDSN,
		AllowedOrigins: allowedOrigins,
		RoomCapacity:   roomCapacity,
	}, nil
}
