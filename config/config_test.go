package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/YuminosukeSato/tabreg/dataframe"
	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Target != "target" || c.IDColumn != "id" || c.TestSize != 0.3 || c.RandomState != 42 {
		t.Errorf("Default() = %+v", c)
	}
	if !reflect.DeepEqual(c.EncodeColumns, []string{"sexo", "categoria"}) {
		t.Errorf("EncodeColumns = %v", c.EncodeColumns)
	}
	if !c.Shuffle || !c.FitIntercept || !c.PlotsEnabled {
		t.Error("boolean defaults should be true")
	}
	if err := Validate(c); err != nil {
		t.Errorf("Validate(Default()) = %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	yaml := []byte("target: valor_compra\ntest_size: 0.25\nencode_columns: [sexo]\nplot_format: svg\n")
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TABREG_PLOT_FORMAT", "pdf")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Target != "valor_compra" || c.TestSize != 0.25 {
		t.Errorf("file values not applied: %+v", c)
	}
	if !reflect.DeepEqual(c.EncodeColumns, []string{"sexo"}) {
		t.Errorf("EncodeColumns = %v", c.EncodeColumns)
	}
	if c.PlotFormat != "pdf" {
		t.Errorf("PlotFormat = %q, want env override pdf", c.PlotFormat)
	}
	if c.NumericStrategy != "median" {
		t.Errorf("default lost: NumericStrategy = %q", c.NumericStrategy)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if c.DataPath != "data/raw/dados_exemplo.csv" {
		t.Errorf("DataPath = %q", c.DataPath)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabreg.yaml")
	want := Default()
	want.Schema = map[string]string{"idade": "numeric", "sexo": "categorical"}
	want.Scaler = "standard"
	if err := Save(want, path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"missing data path", func(c *Config) { c.DataPath = "" }, "data_path"},
		{"missing target", func(c *Config) { c.Target = "" }, "target"},
		{"test size too large", func(c *Config) { c.TestSize = 1 }, "test_size"},
		{"test size zero", func(c *Config) { c.TestSize = 0 }, "test_size"},
		{"bad numeric strategy", func(c *Config) { c.NumericStrategy = "mode" }, "numeric_strategy"},
		{"median on categorical", func(c *Config) { c.CategoricalStrategy = "median" }, "categorical_strategy"},
		{"bad plot format", func(c *Config) { c.PlotFormat = "gif" }, "plot_format"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"bad scaler", func(c *Config) { c.Scaler = "robust" }, "scaler"},
		{"bad schema kind", func(c *Config) { c.Schema = map[string]string{"idade": "date"} }, "schema"},
		{"plot dir required", func(c *Config) { c.PlotDir = "" }, "plot_dir"},
		{"long delimiter", func(c *Config) { c.Delimiter = ";;" }, "delimiter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := Validate(c)
			var ve *errors.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if !strings.HasPrefix(ve.ParamName, tt.wantField) {
				t.Errorf("ParamName = %q, want %q", ve.ParamName, tt.wantField)
			}
		})
	}

	c := Default()
	c.EncodingMethod = "binary"
	if err := Validate(c); err != nil {
		t.Errorf("encoding method should be left to the encoder, got %v", err)
	}
	c.PlotsEnabled, c.PlotDir = false, ""
	if err := Validate(c); err != nil {
		t.Errorf("plot_dir should be optional when plots are disabled: %v", err)
	}
}

func TestLoadOptions(t *testing.T) {
	c := Default()
	c.Delimiter = ";"
	c.Encoding = "latin1"
	c.Schema = map[string]string{"id": "categorical", "idade": "numeric"}

	opts := c.LoadOptions()
	if opts.Delimiter != ';' || opts.Encoding != "latin1" {
		t.Errorf("LoadOptions() = %+v", opts)
	}
	want := map[string]dataframe.Kind{"id": dataframe.Categorical, "idade": dataframe.Numeric}
	if !reflect.DeepEqual(opts.Schema, want) {
		t.Errorf("Schema = %v, want %v", opts.Schema, want)
	}
}

func TestSchemaFromFileMatchesMixedCaseHeader(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "compras.csv")
	if err := os.WriteFile(data, []byte("Valor,target\n10,1\n20,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(cfgPath, []byte("schema:\n  Valor: categorical\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	f, err := dataframe.Load(data, c.LoadOptions())
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.Column("Valor")
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind != dataframe.Categorical {
		t.Errorf("Valor kind = %v, want categorical", s.Kind)
	}
}
