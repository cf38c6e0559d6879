package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Subscription is one line of the urls file: a feed URL and an optional
// color hint used when rendering that feed's items.
type Subscription struct {
	URL   string
	Color string
}

// LoadSubscriptions reads the urls file: one URL per line, an optional
// second whitespace-separated token as a color hint. Lines starting with #
// and blank lines are ignored; any line with more than two tokens is a hard
// configuration error.
func LoadSubscriptions(path string) ([]Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading urls file: %w", err)
	}

	var subs []Subscription
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}

		switch fields := strings.Fields(line); len(fields) {
		case 0:
		case 1:
			subs = append(subs, Subscription{URL: fields[0]})
		case 2:
			subs = append(subs, Subscription{URL: fields[0], Color: fields[1]})
		default:
			return nil, fmt.Errorf("unable to parse line: %q", line)
		}
	}

	return subs, nil
}

// Settings holds the optional application settings read from config.toml in
// the config directory. Every field has a default, so a missing file is
// fine.
type Settings struct {
	// UserAgent identifies the client on feed fetches.
	UserAgent string `toml:"user_agent"`

	// FetchTimeoutSeconds bounds each feed fetch.
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`

	// Listen is the address the web server binds to.
	Listen string `toml:"listen"`

	// HomeDays is the day window of the ranked home view.
	HomeDays int `toml:"home_days"`

	// TidyDays is the retention window for read items.
	TidyDays int `toml:"tidy_days"`
}

func DefaultSettings() Settings {
	return Settings{
		UserAgent:           "newsyacht/1.0",
		FetchTimeoutSeconds: 5,
		Listen:              "0.0.0.0:8080",
		HomeDays:            3,
		TidyDays:            90,
	}
}

// LoadSettings reads path and overlays it on the defaults. A missing file
// just yields the defaults; a malformed file is an error.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("error parsing config file: %w", err)
	}

	if settings.UserAgent == "" {
		settings.UserAgent = DefaultSettings().UserAgent
	}
	if settings.FetchTimeoutSeconds <= 0 {
		settings.FetchTimeoutSeconds = DefaultSettings().FetchTimeoutSeconds
	}
	if settings.Listen == "" {
		settings.Listen = DefaultSettings().Listen
	}
	if settings.HomeDays <= 0 {
		settings.HomeDays = DefaultSettings().HomeDays
	}
	if settings.TidyDays <= 0 {
		settings.TidyDays = DefaultSettings().TidyDays
	}

	return settings, nil
}

// FetchTimeout returns the fetch timeout as a duration.
func (s Settings) FetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeoutSeconds) * time.Second
}
