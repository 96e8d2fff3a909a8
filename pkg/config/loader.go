package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	pkgerrors "github.com/pkg/errors"

	"github.com/siyuan-infoblox/import-reorder/pkg/errors"
	"github.com/siyuan-infoblox/import-reorder/pkg/utils"
)

// AppName names the user config directory
const AppName = "import-reorder"

// EnvPrefix prefixes environment overrides, e.g. IMPORT_REORDER_MAX_LINE_LENGTH
const EnvPrefix = "IMPORT_REORDER_"

//go:embed embedded/defaults.yaml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigPath is an explicit config file; it replaces project discovery
	ConfigPath string
	// WorkDir is where project config discovery starts. Defaults to the
	// current working directory
	WorkDir string
	// UserConfigDir holds the user-global config file. Defaults to
	// $XDG_CONFIG_HOME/import-reorder
	UserConfigDir string
	// Overrides are applied last, keyed like the config file
	Overrides map[string]interface{}
}

// Default returns the built-in configuration
func Default() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, yaml.Parser()); err != nil {
		return nil, pkgerrors.Wrap(err, errors.ErrMsgFailedToLoadDefaults)
	}
	return unmarshal(k)
}

// Load builds the configuration from, in increasing priority: the embedded
// defaults, the user-global file, the project file (or opts.ConfigPath),
// IMPORT_REORDER_* environment variables and opts.Overrides
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")
	var sources []string

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, yaml.Parser()); err != nil {
		return nil, pkgerrors.Wrap(err, errors.ErrMsgFailedToLoadDefaults)
	}

	// 2. User-global config if it exists
	userDir := opts.UserConfigDir
	if userDir == "" {
		userDir = filepath.Join(xdg.ConfigHome, AppName)
	}
	if path := utils.FindFileIn(userDir, userConfigNames); path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
		sources = append(sources, path)
	}

	// 3. Project config, explicit or discovered
	path := opts.ConfigPath
	if path == "" {
		workDir := opts.WorkDir
		if workDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, pkgerrors.Wrap(err, errors.ErrMsgFailedToGetWorkingDir)
			}
			workDir = wd
		}
		path = utils.FindConfigFile(workDir, utils.ConfigFileNames)
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
		sources = append(sources, path)
	}

	// 4. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, errors.ErrMsgFailedToLoadEnv)
	}

	// 5. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, pkgerrors.Wrap(err, errors.ErrMsgFailedToLoadConfig)
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var userConfigNames = []string{"config.yaml", "config.yml", "config.toml"}

// loadFile merges a yaml or toml file into k, picking the parser by extension
func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parser = toml.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return pkgerrors.Wrapf(err, "%s %s", errors.ErrMsgFailedToLoadConfig, path)
	}
	return nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, pkgerrors.Wrap(err, errors.ErrMsgFailedToDecodeConfig)
	}
	return &cfg, nil
}
