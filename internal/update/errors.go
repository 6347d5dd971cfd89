package update

import "fmt"

const repositoryErrorTemplateConstant = "%s: %s failed: %v"

// RepositoryError reports a step that failed for one repository and aborted the run.
type RepositoryError struct {
	Repository string
	Step       Step
	Cause      error
}

// Error describes the failed step.
func (repositoryError RepositoryError) Error() string {
	return fmt.Sprintf(repositoryErrorTemplateConstant, repositoryError.Repository, repositoryError.Step, repositoryError.Cause)
}

// Unwrap exposes the underlying cause.
func (repositoryError RepositoryError) Unwrap() error {
	return repositoryError.Cause
}

// Step names the orchestration step a RepositoryError occurred in.
type Step string

// Orchestration steps.
const (
	StepRestore Step = Step("restore")
	StepInspect Step = Step("inspect")
	StepRead    Step = Step("read version")
	StepWrite   Step = Step("write version")
	StepBranch  Step = Step("create branch")
	StepRewrite Step = Step("rewrite dependencies")
)
