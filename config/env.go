package config

import (
	"strings"

	"github.com/joho/godotenv"
)

// ParseDotenv reads KEY=VALUE lines in .env syntax. Blank input is an empty set.
func ParseDotenv(text string) (map[string]string, error) {
	if strings.TrimSpace(text) == "" {
		return map[string]string{}, nil
	}
	env, err := godotenv.Unmarshal(text)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// ReadDotenv loads one or more .env files, later files winning.
func ReadDotenv(paths ...string) (map[string]string, error) {
	return godotenv.Read(paths...)
}

// FormatDotenv renders env as sorted .env lines.
func FormatDotenv(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}
	s, err := godotenv.Marshal(env)
	if err != nil {
		return ""
	}
	return s + "\n"
}
