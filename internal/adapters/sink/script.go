package sink

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/okian/jobplan/internal/domain/model"
)

// ScriptSettings are the per-run constants of a SLURM batch script.
type ScriptSettings struct {
	JobName          string
	TrainScript      string
	ActivationScript string
	WorkDir          string
}

// paramFlags maps dimension names to the training script's flags.
var paramFlags = map[string]string{
	"oss":        "-os",
	"bs":         "-bs",
	"num_units":  "-num_units",
	"dropout":    "-dropout",
	"learn_rate": "-learn_rate",
	"bin_array":  "-bin_array",
	"wt":         "-wt",
}

var scriptTemplate = template.Must(template.New("job").Parse(`#!/bin/bash
#SBATCH --ntasks=1
#SBATCH --gres=gpu:1
#SBATCH --cpus-per-task=1
#SBATCH --job-name={{.JobName}}
#SBATCH --mem=0               # memory per node
#SBATCH --output=slurm-{{.JobName}}-%x.%j.out
#SBATCH --error=slurm-{{.JobName}}-%x.%j.err

echo Partition: $SLURM_JOB_PARTITION
cd {{.WorkDir}}
source ~/.bashrc
source {{.ActivationScript}}
python -u {{.TrainScript}} {{.Args}}
echo complete
`))

// Arguments returns the training command line for d, without the program:
// hyperparameters, threshold, pass-through args, run metadata, model number.
func Arguments(d model.JobDescriptor) []string {
	args := make([]string, 0, 2*len(d.Point.Params)+16)
	for _, p := range d.Point.Params {
		flag, ok := paramFlags[p.Name]
		if !ok {
			flag = "-" + p.Name
		}
		args = append(args, flag, p.String())
	}
	args = append(args, "-cf", strconv.FormatFloat(d.Point.Threshold, 'g', -1, 64))
	args = append(args, d.Metadata.ExtraArgs...)

	m := d.Metadata
	args = append(args,
		"-n_it", strconv.Itoa(m.Iteration),
		"-t_mol", strconv.Itoa(m.TotalMolecules),
		"--data_path", m.DataPath,
		"--save_path", m.SavePath,
		"-n_mol", strconv.Itoa(m.MoleculeCap),
		"--model_number", strconv.Itoa(d.ModelNumber),
	)
	return args
}

// RenderScript writes the batch script for d.
func RenderScript(w io.Writer, d model.JobDescriptor, s ScriptSettings) error {
	args := Arguments(d)
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	data := struct {
		ScriptSettings
		Args string
	}{
		ScriptSettings: ScriptSettings{
			JobName:          s.JobName,
			TrainScript:      shellQuote(s.TrainScript),
			ActivationScript: shellQuote(s.ActivationScript),
			WorkDir:          shellQuote(s.WorkDir),
		},
		Args: strings.Join(quoted, " "),
	}
	if err := scriptTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render script for model %d: %w", d.ModelNumber, err)
	}
	return nil
}

// ValidateJobName rejects names that are empty or hold whitespace or control
// characters, since the name is written unquoted into #SBATCH directives.
func ValidateJobName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidJobName)
	}
	if i := strings.IndexFunc(name, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }); i >= 0 {
		return fmt.Errorf("%w: %q has whitespace or control character at byte %d", ErrInvalidJobName, name, i)
	}
	return nil
}

// shellQuote single-quotes s unless it only holds shell-safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=+,@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
