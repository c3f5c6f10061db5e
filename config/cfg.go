package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ScopingConfig struct {
		NormalizeHTML  bool   `yaml:"normalize_html"`
		ReplaceElement string `yaml:"replace_element" validate:"required"`
		RemoveScripts  bool   `yaml:"remove_scripts"`
		UniqueSuffix   string `yaml:"unique_suffix" validate:"omitempty,max=64"`
		RepairAttempts int    `yaml:"repair_attempts" validate:"min=0,max=16"`
	}

	OutputConfig struct {
		Format                OutputFmt `yaml:"format" validate:"gte=0,lte=1"`
		NameTemplate          string    `yaml:"name_template"`
		FileNameTransliterate bool      `yaml:"file_name_transliterate"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Scoping   ScopingConfig  `yaml:"scoping"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// NOTE: must match yaml field name above
const NameTemplateFieldName TemplateFieldName = "name_template"

var requiredOptions = []func(*gencfg.ProcessingOptions){
	gencfg.WithDoNotExpandField(string(NameTemplateFieldName)),
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration expands embedded template to get defaults and
// superimposes values from the file at path (if any) on top of them.
// Result is sanitized and validated.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns expanded default configuration.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump returns configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
