package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/okian/jobplan/internal/domain/model"
	"github.com/okian/jobplan/pkg/logger"
)

// Defaults for the generated batch scripts.
const (
	DefaultJobName          = "phase_4"
	DefaultTrainScript      = "progressive_docking.py"
	DefaultActivationScript = "activation_script.sh"

	jobDirName   = "simple_job"
	scriptPrefix = "simple_job_"
)

// FSSink writes one executable batch script (and optionally a YAML copy of
// the descriptor) per job under
//
//	<root>/iteration_<n>/simple_job/simple_job_<k>.sh
//
// It assumes it is the only writer for an iteration while a plan runs.
type FSSink struct {
	root     string
	script   ScriptSettings
	sidecars bool
	logger   logger.Logger
}

var _ Sink = (*FSSink)(nil)

// NewFSSink creates a sink rooted at root. The working directory written into
// scripts defaults to the process working directory.
func NewFSSink(root string, opts ...Option) (*FSSink, error) {
	if root == "" {
		return nil, fmt.Errorf("sink root cannot be empty")
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	s := &FSSink{
		root: root,
		script: ScriptSettings{
			JobName:          DefaultJobName,
			TrainScript:      DefaultTrainScript,
			ActivationScript: DefaultActivationScript,
			WorkDir:          wd,
		},
		sidecars: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := ValidateJobName(s.script.JobName); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = logger.Named("sink")
	}
	return s, nil
}

// JobDir returns the directory holding the artifacts of iteration.
func (s *FSSink) JobDir(iteration int) string {
	return filepath.Join(s.root, "iteration_"+strconv.Itoa(iteration), jobDirName)
}

// ScriptPath returns the script path of model k in iteration.
func (s *FSSink) ScriptPath(iteration, k int) string {
	return filepath.Join(s.JobDir(iteration), scriptPrefix+strconv.Itoa(k)+".sh")
}

// Clear implements Sink. The job directory is created when missing.
func (s *FSSink) Clear(ctx context.Context, iteration int) (int, error) {
	dir := s.JobDir(iteration)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create job directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read job directory: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}

	s.logger.Debug(ctx, "cleared job directory", logger.String("dir", dir), logger.Int("removed", removed))
	return removed, nil
}

// Write implements Sink.
func (s *FSSink) Write(ctx context.Context, d model.JobDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.ModelNumber < 1 {
		return fmt.Errorf("%w: model number must be >= 1, got %d", ErrWriteDescriptor, d.ModelNumber)
	}

	var script bytes.Buffer
	if err := RenderScript(&script, d, s.script); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDescriptor, err)
	}
	path := s.ScriptPath(d.Metadata.Iteration, d.ModelNumber)
	if err := writeAtomic(path, script.Bytes(), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDescriptor, err)
	}

	if s.sidecars {
		data, err := yaml.Marshal(d)
		if err != nil {
			return fmt.Errorf("%w: encode model %d: %v", ErrWriteDescriptor, d.ModelNumber, err)
		}
		yamlPath := path[:len(path)-len(".sh")] + ".yaml"
		if err := writeAtomic(yamlPath, data, 0o644); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteDescriptor, err)
		}
	}

	s.logger.Debug(ctx, "wrote job script", logger.Int("model", d.ModelNumber), logger.String("path", path))
	return nil
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
