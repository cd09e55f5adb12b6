package config

import (
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// MockConfigHook implements config.Hook for tests. Any hook left nil falls
// back to the Values map, so tests only stub what they care about.
type MockConfigHook struct {
	Values  map[string]any
	Profile string
	Path    string

	GetStringMock      func(key string) string
	GetBoolMock        func(key string) bool
	GetIntMock         func(key string) int
	GetDurationMock    func(key string, orElse time.Duration) time.Duration
	GetStringSliceMock func(key string) []string
	IsSetMock          func(key string) bool
	SaveMock           func() error
	BindFlagMock       func(string, *pflag.Flag) error
}

func (m *MockConfigHook) value(key string) (any, bool) {
	v, ok := m.Values[key]
	return v, ok
}

func (m *MockConfigHook) Save() error {
	if m.SaveMock != nil {
		return m.SaveMock()
	}
	return nil
}

func (m *MockConfigHook) GetString(key string) string {
	if m.GetStringMock != nil {
		return m.GetStringMock(key)
	}
	v, _ := m.value(key)
	return cast.ToString(v)
}

func (m *MockConfigHook) GetBool(key string) bool {
	if m.GetBoolMock != nil {
		return m.GetBoolMock(key)
	}
	v, _ := m.value(key)
	return cast.ToBool(v)
}

func (m *MockConfigHook) GetInt(key string) int {
	if m.GetIntMock != nil {
		return m.GetIntMock(key)
	}
	v, _ := m.value(key)
	return cast.ToInt(v)
}

func (m *MockConfigHook) GetIntOrElse(key string, orElse int) int {
	if !m.IsSet(key) {
		return orElse
	}
	return m.GetInt(key)
}

func (m *MockConfigHook) GetDurationOrElse(key string, orElse time.Duration) time.Duration {
	if m.GetDurationMock != nil {
		return m.GetDurationMock(key, orElse)
	}
	v, ok := m.value(key)
	if !ok {
		return orElse
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return orElse
	}
	return d
}

func (m *MockConfigHook) IsSet(key string) bool {
	if m.IsSetMock != nil {
		return m.IsSetMock(key)
	}
	_, ok := m.value(key)
	return ok
}

func (m *MockConfigHook) BindFlag(configPath string, f *pflag.Flag) error {
	if m.BindFlagMock != nil {
		return m.BindFlagMock(configPath, f)
	}
	return nil
}

func (m *MockConfigHook) GetProfile() string {
	return m.Profile
}

func (m *MockConfigHook) GetStringSlice(key string) []string {
	if m.GetStringSliceMock != nil {
		return m.GetStringSliceMock(key)
	}
	v, _ := m.value(key)
	return cast.ToStringSlice(v)
}

func (m *MockConfigHook) SetString(k string, v string) {
	m.Set(k, v)
}

func (m *MockConfigHook) Set(k string, v any) {
	if m.Values == nil {
		m.Values = map[string]any{}
	}
	m.Values[k] = v
}

func (m *MockConfigHook) Get(k string) any {
	v, _ := m.value(k)
	return v
}

func (m *MockConfigHook) GetPath() string {
	return m.Path
}
