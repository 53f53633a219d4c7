// Package sidecar persists the JSON record written next to each screenshot
package sidecar

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator/verdict"
	"github.com/GriffinCanCode/focuswatch/internal/screen"
)

// Extension of sidecar files
const Extension = ".json"

// Record is the on-disk sidecar layout.
type Record struct {
	Timestamp   string `json:"timestamp"`
	Filepath    string `json:"filepath"`
	ModelOutput string `json:"model_output"`
	Verdict     bool   `json:"verdict"`
}

// Path returns the sidecar path for an artifact: same stem, .json extension.
func Path(artifact string) string {
	return strings.TrimSuffix(artifact, filepath.Ext(artifact)) + Extension
}

// Write stores result for artifact, stamped with the write time at. Existing files are overwritten.
func Write(artifact string, result verdict.Result, at time.Time) error {
	data, err := json.Marshal(Record{
		Timestamp:   at.Local().Format(screen.TimestampLayout),
		Filepath:    artifact,
		ModelOutput: result.ModelOutput,
		Verdict:     result.Verdict,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodePersist, "encode sidecar")
	}

	path := Path(artifact)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.CodePersist, "write sidecar").WithMetadata("path", path)
	}
	return nil
}

// Read loads the sidecar of artifact.
func Read(artifact string) (Record, error) {
	var rec Record
	data, err := os.ReadFile(Path(artifact))
	if err != nil {
		return rec, apperrors.Wrap(err, apperrors.CodePersist, "read sidecar")
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, apperrors.Wrap(err, apperrors.CodePersist, "decode sidecar")
	}
	return rec, nil
}

// Remove deletes artifact and its sidecar. Both deletions are attempted even
// if the first fails; failures are joined. An orphan left behind is not retried.
func Remove(artifact string) error {
	var errs []error
	for _, p := range []string{artifact, Path(artifact)} {
		if err := os.Remove(p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := stderrors.Join(errs...); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCleanup, "clean up screenshot").WithMetadata("path", artifact)
	}
	return nil
}
