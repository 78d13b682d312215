package tokenloader

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tokenstats/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WatchlistLoader reads token watchlists from disk. A .json file holds an
// array of {address, network, label}; any other file holds one address per
// line, with # comments.
type WatchlistLoader struct {
	loggerInfo func(msg string, args ...any)
	loggerWarn func(msg string, args ...any)
}

// NewWatchlistLoader creates a new WatchlistLoader.
func NewWatchlistLoader(loggerInfo func(msg string, args ...any), loggerWarn func(msg string, args ...any)) *WatchlistLoader {
	return &WatchlistLoader{loggerInfo: loggerInfo, loggerWarn: loggerWarn}
}

// Load reads the watchlist at path. Invalid addresses are skipped with a
// warning; duplicates (same address and network) are dropped.
func (l *WatchlistLoader) Load(path string) ([]entity.WatchlistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist %s: %w", path, err)
	}

	var raw []entity.WatchlistEntry
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal watchlist %s: %w", path, err)
		}
	} else {
		raw, err = parseLines(data)
		if err != nil {
			return nil, fmt.Errorf("error scanning watchlist %s: %w", path, err)
		}
	}

	seen := make(map[string]struct{}, len(raw))
	entries := make([]entity.WatchlistEntry, 0, len(raw))
	for i, e := range raw {
		addr, err := entity.ParseTokenAddress(string(e.Address))
		if err != nil {
			l.warn("Skipping invalid watchlist address", "file", path, "entry", i+1, "address", e.Address)
			continue
		}
		e.Address = addr
		e.Network = strings.ToLower(strings.TrimSpace(e.Network))
		key := e.Network + "|" + addr.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, e)
	}

	l.info("Watchlist loaded", "path", path, "count", len(entries))
	return entries, nil
}

func parseLines(data []byte) ([]entity.WatchlistEntry, error) {
	var entries []entity.WatchlistEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		entries = append(entries, entity.WatchlistEntry{Address: entity.TokenAddress(line)})
	}
	return entries, scanner.Err()
}

func (l *WatchlistLoader) info(msg string, args ...any) {
	if l.loggerInfo != nil {
		l.loggerInfo(msg, args...)
	}
}

func (l *WatchlistLoader) warn(msg string, args ...any) {
	if l.loggerWarn != nil {
		l.loggerWarn(msg, args...)
	}
}
