package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/YuminosukeSato/tabreg/pkg/errors"
)

// WeightsVersion is written into every saved ModelWeights.
const WeightsVersion = "1"

// ModelWeights は学習済み線形モデルの要約です（保存と表示用）。
type ModelWeights struct {
	ModelType       string                 `json:"model_type"`
	Version         string                 `json:"version"`
	Coefficients    []float64              `json:"coefficients"`
	Intercept       float64                `json:"intercept"`
	Features        []string               `json:"features,omitempty"`
	Hyperparameters map[string]interface{} `json:"hyperparameters"`
	// Metadata は学習時の統計（サンプル数、ランク、run id など）
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	IsFitted bool                   `json:"is_fitted"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "decode model weights")
	}
	return mw.Validate()
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	switch {
	case mw.ModelType == "":
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	case mw.Version == "":
		return errors.NewValidationError("version", "is required", mw.Version)
	case mw.IsFitted && len(mw.Coefficients) == 0:
		return errors.NewValidationError("coefficients", "fitted model must have coefficients", len(mw.Coefficients))
	case len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients):
		return errors.NewDimensionError("ModelWeights.Validate", len(mw.Coefficients), len(mw.Features), 1)
	}
	return nil
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		Intercept:       mw.Intercept,
		IsFitted:        mw.IsFitted,
		Coefficients:    append([]float64(nil), mw.Coefficients...),
		Features:        append([]string(nil), mw.Features...),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// String renders the fitted equation, e.g. "target = 1.5 + 0.3*idade - 2*sexo_M".
func (mw *ModelWeights) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.6g", mw.Intercept)
	for i, c := range mw.Coefficients {
		name := fmt.Sprintf("x%d", i)
		if i < len(mw.Features) {
			name = mw.Features[i]
		}
		sign := "+"
		if c < 0 {
			sign, c = "-", -c
		}
		fmt.Fprintf(&b, " %s %.6g*%s", sign, c, name)
	}
	return b.String()
}

// SaveWeights writes weights as indented JSON to path.
func SaveWeights(mw *ModelWeights, path string) error {
	if err := mw.Validate(); err != nil {
		return err
	}
	data, err := mw.ToJSON()
	if err != nil {
		return errors.Wrap(err, "encode model weights")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// LoadWeights reads weights previously written by SaveWeights.
func LoadWeights(path string) (*ModelWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "read %s", path), errors.ErrFileNotFound)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	mw := &ModelWeights{}
	if err := mw.FromJSON(data); err != nil {
		return nil, err
	}
	return mw, nil
}
