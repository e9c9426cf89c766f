package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/coloriage/pkg/cache"
	"github.com/matzehuels/coloriage/pkg/pipeline"
)

// fileConfig is the layout of coloriage.toml:
//
//	[grid]
//	columns = 60
//	colors = 8
//	category = "arithmetic"
//	arithmetic = "mult"
//
//	[serve]
//	addr = ":8080"
//	timeout = "20s"
//
//	[redis]
//	addr = "localhost:6379"
type fileConfig struct {
	Grid  pipeline.Options   `toml:"grid"`
	Serve serveConfig        `toml:"serve"`
	Redis cache.RedisOptions `toml:"redis"`
}

type serveConfig struct {
	Addr     string `toml:"addr"`
	MaxBytes int64  `toml:"max_bytes"`
	Timeout  string `toml:"timeout"`
}

// timeout parses the configured request timeout. Empty means the server
// default.
func (s serveConfig) timeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("serve.timeout: %w", err)
	}
	return d, nil
}

// loadConfig reads the TOML file at path. An empty path falls back to
// coloriage.toml in the working directory and yields a zero config when that
// file does not exist. Unknown keys are rejected so typos do not pass
// silently.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	explicit := path != ""
	if !explicit {
		path = configFileName
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
