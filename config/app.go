package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// App is the application configuration, read from a TOML file at startup.
// Every field has a working default so the file is optional.
type App struct {
	CredentialsFile string   `toml:"credentials_file"`
	TokenFile       string   `toml:"token_file"`
	SettingsFile    string   `toml:"settings_file"`
	LogFile         string   `toml:"log_file"`
	PollInterval    Duration `toml:"poll_interval"`
	IgnoreRead      bool     `toml:"ignore_read"`
}

// Duration wraps time.Duration so TOML values can be written as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func DefaultApp() App {
	return App{
		CredentialsFile: "credentials.json",
		TokenFile:       "token.json",
		SettingsFile:    "mailsort.json",
		LogFile:         "mailsort.log",
		PollInterval:    Duration{30 * time.Second},
		IgnoreRead:      true,
	}
}

// LoadApp reads the TOML config at path, falling back to defaults when the
// file does not exist.
func LoadApp(path string) (App, error) {
	app := DefaultApp()
	if _, err := toml.DecodeFile(path, &app); err != nil {
		if os.IsNotExist(err) {
			return app, nil
		}
		return App{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if app.PollInterval.Duration <= 0 {
		return App{}, fmt.Errorf("loading config %s: poll_interval must be positive", path)
	}
	return app, nil
}
