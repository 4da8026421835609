package provider

import (
	"encoding/json"
	"os"
	"sync"

	"portfolio_view/internal/app/port"
)

// tokenFilterFile mirrors the JSON the background wallet exports: flat
// lists of position-id+chain keys.
type tokenFilterFile struct {
	Blocked    []string `json:"blocked"`
	Customized []string `json:"customized"`
}

// TokenFilterLoader implements port.TokenFilterProvider from a JSON file.
// The file is loaded lazily on first use and cached for the process
// lifetime; a missing or malformed file degrades to empty lists.
type TokenFilterLoader struct {
	filePath   string
	loggerInfo func(msg string, args ...any)
	loggerWarn func(msg string, args ...any)

	once       sync.Once
	blocked    map[string]struct{}
	customized map[string]struct{}
}

// NewTokenFilterLoader creates a new TokenFilterLoader.
func NewTokenFilterLoader(filePath string, loggerInfo, loggerWarn func(msg string, args ...any)) port.TokenFilterProvider {
	return &TokenFilterLoader{
		filePath:   filePath,
		loggerInfo: loggerInfo,
		loggerWarn: loggerWarn,
	}
}

// IsBlocked reports whether the user hid this token.
func (l *TokenFilterLoader) IsBlocked(tokenKey string) bool {
	l.load()
	_, ok := l.blocked[tokenKey]
	return ok
}

// IsCustomized reports whether the user explicitly added this token.
func (l *TokenFilterLoader) IsCustomized(tokenKey string) bool {
	l.load()
	_, ok := l.customized[tokenKey]
	return ok
}

func (l *TokenFilterLoader) load() {
	l.once.Do(func() {
		l.blocked = make(map[string]struct{})
		l.customized = make(map[string]struct{})

		if l.filePath == "" {
			return
		}
		data, err := os.ReadFile(l.filePath)
		if err != nil {
			if l.loggerWarn != nil {
				l.loggerWarn("Failed to read token filter file, no tokens will be filtered", "path", l.filePath, "error", err)
			}
			return
		}

		var f tokenFilterFile
		if err := json.Unmarshal(data, &f); err != nil {
			if l.loggerWarn != nil {
				l.loggerWarn("Failed to unmarshal token filter file, no tokens will be filtered", "path", l.filePath, "error", err)
			}
			return
		}
		for _, key := range f.Blocked {
			l.blocked[key] = struct{}{}
		}
		for _, key := range f.Customized {
			l.customized[key] = struct{}{}
		}
		if l.loggerInfo != nil {
			l.loggerInfo("Token filter lists loaded",
				"path", l.filePath, "blocked", len(l.blocked), "customized", len(l.customized))
		}
	})
}
