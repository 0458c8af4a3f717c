// Package config loads pipeline settings from defaults, an optional YAML
// file and TABREG_* environment variables.
package config

import (
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// EnvPrefix is prepended to every environment override, e.g. TABREG_TARGET.
const EnvPrefix = "TABREG"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "tabreg.yaml"

// Config holds every setting of a pipeline run.
type Config struct {
	// Data
	DataPath  string            `mapstructure:"data_path" yaml:"data_path" validate:"required"`
	Sheet     string            `mapstructure:"sheet" yaml:"sheet,omitempty"`
	Delimiter string            `mapstructure:"delimiter" yaml:"delimiter" validate:"omitempty,len=1"`
	Encoding  string            `mapstructure:"file_encoding" yaml:"file_encoding" validate:"omitempty,oneof=utf-8 utf8 utf-8-sig latin1 latin-1 iso-8859-1 windows-1252 cp1252"`
	Schema    map[string]string `mapstructure:"schema" yaml:"schema,omitempty" validate:"omitempty,dive,oneof=numeric categorical"`

	// Columns
	IDColumn        string   `mapstructure:"id_column" yaml:"id_column"`
	Target          string   `mapstructure:"target" yaml:"target" validate:"required"`
	EDAColumns      []string `mapstructure:"eda_columns" yaml:"eda_columns"`
	EncodeColumns   []string `mapstructure:"encode_columns" yaml:"encode_columns"`
	HistogramColumn string   `mapstructure:"histogram_column" yaml:"histogram_column"`
	BarColumn       string   `mapstructure:"bar_column" yaml:"bar_column"`
	ScatterX        string   `mapstructure:"scatter_x" yaml:"scatter_x"`
	ScatterY        string   `mapstructure:"scatter_y" yaml:"scatter_y"`

	// Preprocessing
	NumericStrategy     string  `mapstructure:"numeric_strategy" yaml:"numeric_strategy" validate:"oneof=mean median most_frequent constant"`
	CategoricalStrategy string  `mapstructure:"categorical_strategy" yaml:"categorical_strategy" validate:"oneof=most_frequent constant"`
	FillValue           string  `mapstructure:"fill_value" yaml:"fill_value,omitempty"`
	EncodingMethod      string  `mapstructure:"encoding" yaml:"encoding"`
	TestSize            float64 `mapstructure:"test_size" yaml:"test_size" validate:"gt=0,lt=1"`
	RandomState         uint64  `mapstructure:"random_state" yaml:"random_state"`
	Shuffle             bool    `mapstructure:"shuffle" yaml:"shuffle"`
	Scaler              string  `mapstructure:"scaler" yaml:"scaler" validate:"oneof=none standard minmax"`

	// Model
	FitIntercept bool   `mapstructure:"fit_intercept" yaml:"fit_intercept"`
	WeightsOut   string `mapstructure:"weights_out" yaml:"weights_out,omitempty"`

	// Output
	PreviewRows  int    `mapstructure:"preview_rows" yaml:"preview_rows" validate:"gte=0"`
	Bins         int    `mapstructure:"bins" yaml:"bins" validate:"gte=1"`
	PlotsEnabled bool   `mapstructure:"plots_enabled" yaml:"plots_enabled"`
	PlotDir      string `mapstructure:"plot_dir" yaml:"plot_dir" validate:"required_if=PlotsEnabled true"`
	PlotFormat   string `mapstructure:"plot_format" yaml:"plot_format" validate:"oneof=png svg pdf"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json slog"`
	NoColor      bool   `mapstructure:"no_color" yaml:"no_color"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "data/raw/dados_exemplo.csv")
	v.SetDefault("sheet", "")
	v.SetDefault("delimiter", ",")
	v.SetDefault("file_encoding", "utf-8")
	v.SetDefault("id_column", "id")
	v.SetDefault("target", "target")
	v.SetDefault("eda_columns", []string{"sexo", "categoria", "observacao"})
	v.SetDefault("encode_columns", []string{"sexo", "categoria"})
	v.SetDefault("histogram_column", "idade")
	v.SetDefault("bar_column", "categoria")
	v.SetDefault("scatter_x", "valor_compra")
	v.SetDefault("scatter_y", "target")
	v.SetDefault("numeric_strategy", "median")
	v.SetDefault("categorical_strategy", "most_frequent")
	v.SetDefault("fill_value", "")
	v.SetDefault("encoding", "onehot")
	v.SetDefault("test_size", 0.3)
	v.SetDefault("random_state", 42)
	v.SetDefault("shuffle", true)
	v.SetDefault("scaler", "none")
	v.SetDefault("fit_intercept", true)
	v.SetDefault("weights_out", "")
	v.SetDefault("preview_rows", 5)
	v.SetDefault("bins", 10)
	v.SetDefault("plots_enabled", true)
	v.SetDefault("plot_dir", "plots")
	v.SetDefault("plot_format", "png")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("no_color", false)
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// デフォルト値のみなので失敗しない
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from defaults, the YAML file and the environment.
// Precedence: env > config file > defaults. An explicit cfgFile must exist;
// ./tabreg.yaml is read only when present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(cfgFile); os.IsNotExist(statErr) {
				return nil, errors.Mark(errors.Wrapf(err, "read config %s", cfgFile), errors.ErrFileNotFound)
			}
			return nil, errors.Wrapf(err, "read config %s", cfgFile)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".yaml"))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &c, nil
}

// Save writes c as YAML to path.
func Save(c *Config, path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal yaml")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "write config %s", path)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// エラーメッセージには YAML のキー名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c against its struct tags and returns a ValidationError
// for the first offending field. The encoding method is checked by the
// encoder at run time instead.
func Validate(c *Config) error {
	if c == nil {
		return errors.NewValidationError("config", "is nil", nil)
	}
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, "validate config")
	}
	fe := verrs[0]
	reason := "failed '" + fe.Tag() + "'"
	if fe.Param() != "" {
		reason += " (" + fe.Param() + ")"
	}
	return errors.NewValidationError(fe.Field(), reason, fe.Value())
}

// LoadOptions converts the data settings into loader options.
func (c *Config) LoadOptions() dataframe.LoadOptions {
	opts := dataframe.LoadOptions{Sheet: c.Sheet, Encoding: c.Encoding}
	if r := []rune(c.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	if len(c.Schema) > 0 {
		opts.Schema = make(map[string]dataframe.Kind, len(c.Schema))
		for name, kind := range c.Schema {
			if kind == "categorical" {
				opts.Schema[name] = dataframe.Categorical
			} else {
				opts.Schema[name] = dataframe.Numeric
			}
		}
	}
	return opts
}
