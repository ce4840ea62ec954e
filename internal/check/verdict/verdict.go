// Package verdict turns the outcome of a check into the status and message
// returned to the submitter.
package verdict

import (
	"fmt"
	"time"

	"structcheck/internal/check/kind"
	"structcheck/internal/check/loader"
	"structcheck/internal/check/oracle"
	appErr "structcheck/pkg/errors"
)

// Status is the lifecycle state of a check.
type Status string

const (
	StatusPreparing        Status = "Preparing"
	StatusCompiling        Status = "Compiling"
	StatusCompilationError Status = "CompilationError"
	StatusRunning          Status = "Running"
	StatusFinished         Status = "Finished"
	StatusWithWarning      Status = "WithWarning"
)

// Terminal reports whether no further status follows s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompilationError, StatusFinished, StatusWithWarning:
		return true
	}
	return false
}

// Canned messages.
const (
	MismatchFormat      = "Структура %s не прошла проверку на соответствие с поведением стандартной библиотеки на реальных данных"
	UnimplementedText   = "В структуре все еще остались методы, которые требуют реализации. Обратите внимание на комментарии в коде с текстом //Нужна реализация."
	TimeLimitFormat     = "Структура %s не уложилась в отведённое время. Проверьте методы на бесконечные циклы"
	RuntimeErrorFormat  = "Произошла ошибка при запуске структуры %s: %v"
	InstantiationFormat = "Не удалось создать структуру %s: %v"
)

// Verdict is the user-facing result of a check.
type Verdict struct {
	CheckID         string           `json:"checkId"`
	Kind            kind.Kind        `json:"kind"`
	Status          Status           `json:"status"`
	Output          string           `json:"output"`
	AddTime         int64            `json:"addTime"`
	FindTime        int64            `json:"findTime"`
	DeleteTime      int64            `json:"deleteTime"`
	ErrorLineNumber int              `json:"errorLineNumber"`
	Hints           []string         `json:"hints"`
	FailedCheck     string           `json:"failedCheck,omitempty"`
	ErrorCode       appErr.ErrorCode `json:"errorCode,omitempty"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Input collects everything a check produced.
type Input struct {
	CheckID string
	Kind    kind.Kind
	// Err is the first error raised by compiling, instantiating or driving
	// the candidate.
	Err    error
	Result *oracle.Result
	Timing oracle.Timing
	Hints  []string
}

// Pending returns a non-terminal verdict for status.
func Pending(checkID string, k kind.Kind, status Status) Verdict {
	return Verdict{
		CheckID:   checkID,
		Kind:      k,
		Status:    status,
		Hints:     []string{},
		UpdatedAt: time.Now(),
	}
}

// Assemble applies the status precedence to in. Hints are attached unless the
// check stopped before the candidate could run: a compile or instantiation
// failure, or a method left unimplemented.
func Assemble(in Input) Verdict {
	v := Pending(in.CheckID, in.Kind, StatusFinished)
	if len(in.Hints) > 0 && !stopsHints(appErr.GetCode(in.Err)) {
		v.Hints = append(v.Hints, in.Hints...)
	}
	if in.Result != nil {
		v.FailedCheck = in.Result.FailedCheck
	}

	if in.Err != nil {
		v.Status = StatusCompilationError
		v.ErrorCode = appErr.GetCode(in.Err)
		v.Output = errorOutput(in.Kind, in.Err)
		v.ErrorLineNumber = loader.ErrorLine(in.Err)
		return v
	}

	v.AddTime = in.Timing.Add.Nanoseconds()
	v.FindTime = in.Timing.Find.Nanoseconds()
	v.DeleteTime = in.Timing.Delete.Nanoseconds()

	switch {
	case in.Result != nil && !in.Result.Passed:
		v.Status = StatusWithWarning
		v.Output = fmt.Sprintf(MismatchFormat, in.Kind)
	case len(v.Hints) > 0:
		v.Status = StatusWithWarning
	}
	return v
}

func stopsHints(code appErr.ErrorCode) bool {
	switch code {
	case appErr.CompilationError, appErr.ForbiddenImport, appErr.CodeTooLarge, appErr.StructureNotSupported,
		appErr.InstantiationFailed, appErr.UnimplementedMethod:
		return true
	}
	return false
}

func errorOutput(k kind.Kind, err error) string {
	switch appErr.GetCode(err) {
	case appErr.CompilationError, appErr.ForbiddenImport, appErr.CodeTooLarge, appErr.StructureNotSupported:
		return err.Error()
	case appErr.InstantiationFailed:
		return fmt.Sprintf(InstantiationFormat, k, err)
	case appErr.UnimplementedMethod:
		return UnimplementedText
	case appErr.TimeLimitExceeded:
		return fmt.Sprintf(TimeLimitFormat, k)
	default:
		return fmt.Sprintf(RuntimeErrorFormat, k, err)
	}
}
