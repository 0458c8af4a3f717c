package pipeline

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/YuminosukeSato/tabreg/pkg/errors"
	"github.com/YuminosukeSato/tabreg/pkg/log"
)

// narrator writes the human-readable progress of a run.
type narrator struct {
	w io.Writer

	header func(a ...any) string
	green  func(a ...any) string
	yellow func(a ...any) string
	red    func(a ...any) string
}

func newNarrator(w io.Writer, noColor bool) *narrator {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &narrator{
		w:      w,
		header: mk(color.FgCyan, color.Bold),
		green:  mk(color.FgGreen),
		yellow: mk(color.FgYellow),
		red:    mk(color.FgRed),
	}
}

func (n *narrator) section(title string) {
	fmt.Fprintf(n.w, "\n%s\n", n.header("--- "+title+" ---"))
}

func (n *narrator) printf(format string, args ...any) {
	fmt.Fprintf(n.w, format+"\n", args...)
}

func (n *narrator) ok(format string, args ...any) {
	fmt.Fprintln(n.w, n.green("✓"), fmt.Sprintf(format, args...))
}

func (n *narrator) warn(format string, args ...any) {
	fmt.Fprintln(n.w, n.yellow("!"), fmt.Sprintf(format, args...))
}

func (n *narrator) fail(format string, args ...any) {
	fmt.Fprintln(n.w, n.red("✗"), fmt.Sprintf(format, args...))
}

func (n *narrator) skipped(stage string) {
	fmt.Fprintf(n.w, "%s %s: skipped, an earlier stage failed\n", n.yellow("-"), stage)
}

// errorCode maps an error to the code logged under log.ErrorCodeKey.
func errorCode(err error) string {
	var (
		notFitted *errors.NotFittedError
		dim       *errors.DimensionError
		notFound  *errors.ColumnNotFoundError
		invalid   *errors.ValidationError
		colType   *errors.ColumnTypeError
		parse     *errors.ParseError
	)
	switch {
	case errors.Is(err, errors.ErrFileNotFound):
		return log.ErrorFileNotFound
	case errors.Is(err, errors.ErrEmptyData), errors.Is(err, errors.ErrNoData):
		return log.ErrorEmptyData
	case errors.Is(err, errors.ErrSingularMatrix):
		return log.ErrorSingularMatrix
	case errors.As(err, &notFitted):
		return log.ErrorNotFitted
	case errors.As(err, &dim):
		return log.ErrorDimensionMismatch
	case errors.As(err, &notFound):
		return log.ErrorColumnNotFound
	case errors.As(err, &invalid), errors.As(err, &colType), errors.As(err, &parse):
		return log.ErrorInvalidInput
	default:
		return ""
	}
}
