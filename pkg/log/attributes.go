package log

// 実行とモデルの文脈
const (
	// ModelNameKey identifies the estimator or transformer type.
	ModelNameKey = "model.name"

	// EstimatorIDKey carries the run identifier (a UUID) for one pipeline execution.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed: "fit", "impute", "encode"...
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey indicates the pipeline stage.
	PhaseKey = "ml.phase"
)

// データの形状と列
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ColumnKey   = "data.column"
	ColumnsKey  = "data.columns"
	MissingKey  = "data.missing"
	PathKey     = "data.path"
	DataTypeKey = "data.type"
)

// 評価指標と性能
const (
	DurationMsKey = "perf.duration_ms"
	MAEKey        = "metrics.mae"
	R2ScoreKey    = "metrics.r2_score"
	RankKey       = "model.rank"
)

// エラーと設定
const (
	ErrorCodeKey   = "error.code"
	ErrorTypeKey   = "error.type"
	SuggestionKey  = "error.suggestion"
	RandomSeedKey  = "config.random_seed"
	HyperParamsKey = "model.hyperparams"
)

// 操作名の標準値
const (
	OperationLoad      = "load"
	OperationExplore   = "explore"
	OperationVisualize = "visualize"
	OperationImpute    = "impute"
	OperationEncode    = "encode"
	OperationSelect    = "select"
	OperationSplit     = "split"
	OperationScale     = "scale"
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
)

// パイプラインの段階
const (
	PhaseIngest        = "ingest"
	PhaseExploration   = "exploration"
	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseEvaluation    = "evaluation"
)

// エラーコード
const (
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
	ErrorColumnNotFound    = "COLUMN_NOT_FOUND"
	ErrorFileNotFound      = "FILE_NOT_FOUND"
)
