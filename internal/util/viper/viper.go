package viper

import (
	"strings"

	"github.com/dealerops/dealerctl/internal/meta"
	"github.com/dealerops/dealerctl/internal/util"
	v "github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// InitializeDefaultViper loads the file at path, seeding it with defaultValues
// (and writing it back) when nothing could be read from it.
func InitializeDefaultViper(defaultValues map[string]any, path string) (*v.Viper, error) {
	if err := util.InitDir(path, 0o755); err != nil {
		return nil, err
	}

	rv := NewViper(path)
	if len(rv.AllSettings()) > 0 {
		return rv, nil
	}

	if err := rv.MergeConfigMap(defaultValues); err != nil {
		return nil, err
	}
	if err := rv.WriteConfig(); err != nil {
		return nil, err
	}
	return rv, nil
}

// NewViperE reads path strictly, failing when the file cannot be parsed.
func NewViperE(path string) (*v.Viper, error) {
	rv := newViper(path)
	if err := rv.ReadInConfig(); err != nil {
		return nil, err
	}
	return rv, nil
}

// NewViper reads path leniently; a missing file yields an empty config.
func NewViper(path string) *v.Viper {
	rv := newViper(path)
	_ = rv.ReadInConfig()
	return rv
}

// ConfigureEnvVars binds a viper instance to DEALERCTL-style env variables
// under the given prefix.
func ConfigureEnvVars(vip *v.Viper, prefix string) {
	vip.AutomaticEnv()
	vip.SetEnvPrefix(prefix)
	vip.SetEnvKeyReplacer(envKeyReplacer)
}

func newViper(path string) *v.Viper {
	rv := v.New()
	rv.SetConfigFile(path)
	ConfigureEnvVars(rv, strings.ToLower(meta.EnvPrefix))
	return rv
}
