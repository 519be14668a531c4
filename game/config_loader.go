package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// tableViper reads YAML tables; env vars override keys with "." as "_".
func tableViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfigInto loads a YAML table file into out (out must be a pointer).
func LoadConfigInto(configPath string, out interface{}) error {
	v := tableViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal table: %w", err)
	}
	return nil
}

// LoadConfigFromDirInto merges every YAML file in configDir into out.
// Files load in alphabetical order, so later files override earlier ones.
func LoadConfigFromDirInto(configDir string, out interface{}) error {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return fmt.Errorf("failed to read table directory: %w", err)
	}
	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && isYAML(e.Name())
	})
	if len(files) == 0 {
		return fmt.Errorf("no YAML files found in table directory: %s", configDir)
	}
	sort.Strings(files)

	v := tableViper()
	for _, name := range files {
		v.SetConfigFile(filepath.Join(configDir, name))
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("failed to merge table from %s: %w", name, err)
		}
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal table: %w", err)
	}
	return nil
}

// LoadGameConfig loads a game table from a file or a directory of YAML files.
//
//	table, err := game.LoadGameConfig[wheel.Table]("tables/wheel")
func LoadGameConfig[T any](configPath string) (*T, error) {
	info, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config path: %w", err)
	}

	var table T
	if info.IsDir() {
		if err := LoadConfigFromDirInto(configPath, &table); err != nil {
			return nil, fmt.Errorf("failed to load config from directory: %w", err)
		}
	} else {
		if err := LoadConfigInto(configPath, &table); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	return &table, nil
}

// LoadTableOrDefault loads name from tablesDir when present, else returns def.
// Both "<name>.yaml" and a "<name>/" directory are accepted.
func LoadTableOrDefault[T any](tablesDir, name string, def T) (T, error) {
	if tablesDir == "" {
		return def, nil
	}
	for _, candidate := range []string{
		filepath.Join(tablesDir, name),
		filepath.Join(tablesDir, name+".yaml"),
		filepath.Join(tablesDir, name+".yml"),
	} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		table, err := LoadGameConfig[T](candidate)
		if err != nil {
			return def, err
		}
		return *table, nil
	}
	return def, nil
}
