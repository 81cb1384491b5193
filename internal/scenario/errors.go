package scenario

import (
	"errors"
	"fmt"

	"github.com/banshee-data/scenario.report/internal/geometry"
	"github.com/banshee-data/scenario.report/internal/routes"
	"github.com/banshee-data/scenario.report/internal/toolexec"
)

// Failure taxonomy. A *StageError matches exactly one of these through
// errors.Is, plus whatever its cause wraps.
var (
	ErrAcquisition    = errors.New("map acquisition failed")
	ErrConversion     = errors.New("mandatory conversion failed")
	ErrConfig         = errors.New("invalid scenario configuration")
	ErrGeometry       = geometry.ErrGeometry
	ErrAnalysis       = routes.ErrAnalysis
	ErrToolInvocation = errors.New("external tool invocation failed")
	ErrOutput         = errors.New("writing scenario output failed")
)

// ErrorKind names a failure class in results, logs and metrics labels.
type ErrorKind string

const (
	KindAcquisition    ErrorKind = "AcquisitionError"
	KindConversion     ErrorKind = "ConversionError"
	KindConfig         ErrorKind = "ConfigError"
	KindGeometry       ErrorKind = "GeometryError"
	KindAnalysis       ErrorKind = "AnalysisError"
	KindToolInvocation ErrorKind = "ToolInvocationError"
	KindOutput         ErrorKind = "OutputError"
	KindCanceled       ErrorKind = "Canceled"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindAcquisition:
		return ErrAcquisition
	case KindConversion:
		return ErrConversion
	case KindConfig:
		return ErrConfig
	case KindGeometry:
		return ErrGeometry
	case KindAnalysis:
		return ErrAnalysis
	case KindToolInvocation:
		return ErrToolInvocation
	case KindOutput:
		return ErrOutput
	}
	return nil
}

// StageError is the failure cause of a pipeline run.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s at stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind. A stage that failed because an
// external tool failed also matches ErrToolInvocation.
func (e *StageError) Is(target error) bool {
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	if target == ErrToolInvocation {
		var te *toolexec.ToolError
		return errors.As(e.Err, &te)
	}
	return false
}

// classify picks the error kind for a failed stage. Explicit configuration
// and tool-root errors override the stage default wherever they surface.
func classify(err error, fallback ErrorKind) ErrorKind {
	switch {
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrToolInvocation):
		return KindToolInvocation
	}
	return fallback
}
