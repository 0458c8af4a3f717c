// Package log は構造化ロギングのインターフェースを提供します。
//
// Logger は log/slog と互換性のある最小限のインターフェースで、
// 実装（zerolog、slog、テスト用ロガー）を差し替えられるようにしています。
// パイプラインの各段階は次のように列名やサンプル数を構造化フィールドで記録します。
//
//	logger := log.GetLoggerWithName("preprocessing").With(log.OperationKey, log.OperationImpute)
//	logger.Info("imputed column",
//	    log.ColumnKey, "idade",
//	    log.SamplesKey, 10,
//	)
package log

import (
	"context"
	"fmt"
	"strings"
)

// Logger は slog 互換の構造化ロギングインターフェースです。
//
// fields はキーと値の組を交互に並べたものです。Error では最初の要素に
// error を渡すとスタックトレースなどが特別に扱われます。
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error logs at error level. A leading error value is attached as the
	// "error" field.
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level; values match slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel は "debug"、"info"、"warn"、"error" をLevelに変換します。大文字小文字は区別しません。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %q", s)
	}
}

// LoggerProvider はロガーを生成・設定するインターフェースです。
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
