package xiaohongshu

import "fmt"

// Stage identifies a step of the publish pipeline.
type Stage string

const (
	StageValidate    Stage = "validate"
	StageNavigate    Stage = "navigate"
	StageUpload      Stage = "upload"
	StageFillTitle   Stage = "fill_title"
	StageFillContent Stage = "fill_content"
	StageSubmit      Stage = "submit"
)

// StageError wraps a failure with the pipeline stage it occurred in, so
// callers and logs can tell which step aborted the flow.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("publish stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

func stageErrf(stage Stage, format string, args ...any) error {
	return &StageError{Stage: stage, Err: fmt.Errorf(format, args...)}
}
