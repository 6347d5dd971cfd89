package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant           = "Running %s"
	genericSuccessTemplateConstant         = "Completed %s"
	genericActionTemplateConstant          = "run %s"
	failureTemplateConstant                = "Failed to %s (exit code %d%s)"
	executionFailureTemplateConstant       = "Unable to %s: %s"
	workingDirectorySuffixTemplateConstant = " (in %s)"
	standardErrorSuffixTemplateConstant    = ": %s"
	unknownFailureMessageConstant          = "unknown error"
	defaultWorkingDirectoryLabelConstant   = "current directory"
	fallbackUnknownValueLabelConstant      = "unknown"
	fileListSeparatorConstant              = ", "
	argumentTerminatorConstant             = "--"
)

const (
	gitListFilesSubcommandNameConstant = "ls-files"
	gitDiffSubcommandNameConstant      = "diff"
	gitRestoreSubcommandNameConstant   = "restore"
	gitSwitchSubcommandNameConstant    = "switch"
	gitBranchSubcommandNameConstant    = "branch"
	gitShowRefSubcommandNameConstant   = "show-ref"
	gitRevParseSubcommandNameConstant  = "rev-parse"
	gitRemoteSubcommandNameConstant    = "remote"
	gitAddSubcommandNameConstant       = "add"
	gitCommitSubcommandNameConstant    = "commit"
	gitCachedFlagConstant              = "--cached"
	gitStagedFlagConstant              = "--staged"
	gitCreateFlagConstant              = "-c"
	gitForceDeleteFlagConstant         = "-D"
	gitMessageFlagConstant             = "-m"
	gitAbbrevRefFlagConstant           = "--abbrev-ref"
	gitHeadReferenceConstant           = "HEAD"
	gitBranchReferencePrefixConstant   = "refs/heads/"
)

const (
	githubAPISubcommandNameConstant            = "api"
	githubMethodFlagConstant                   = "-X"
	githubCreateMethodConstant                 = "POST"
	githubRepositoryEndpointPrefixConstant     = "repos/"
	githubReleasesEndpointMarkerConstant       = "/releases"
	githubReleaseListStartTemplateConstant     = "Listing releases of %s"
	githubReleaseListSuccessTemplateConstant   = "Listed releases of %s"
	githubReleaseListActionTemplateConstant    = "list releases of %s"
	githubReleaseCreateStartTemplateConstant   = "Creating release for %s"
	githubReleaseCreateSuccessTemplateConstant = "Created release for %s"
	githubReleaseCreateActionTemplateConstant  = "create release for %s"
)

const (
	gitUntrackedStartTemplateConstant       = "Listing untracked files in %s"
	gitUntrackedSuccessTemplateConstant     = "Listed untracked files in %s"
	gitUntrackedActionTemplateConstant      = "list untracked files in %s"
	gitStagedStartTemplateConstant          = "Listing staged files in %s"
	gitStagedSuccessTemplateConstant        = "Listed staged files in %s"
	gitStagedActionTemplateConstant         = "list staged files in %s"
	gitModifiedStartTemplateConstant        = "Listing modified files in %s"
	gitModifiedSuccessTemplateConstant      = "Listed modified files in %s"
	gitModifiedActionTemplateConstant       = "list modified files in %s"
	gitUnstageStartTemplateConstant         = "Unstaging %s in %s"
	gitUnstageSuccessTemplateConstant       = "Unstaged %s in %s"
	gitUnstageActionTemplateConstant        = "unstage %s in %s"
	gitDiscardStartTemplateConstant         = "Discarding changes to %s in %s"
	gitDiscardSuccessTemplateConstant       = "Discarded changes to %s in %s"
	gitDiscardActionTemplateConstant        = "discard changes to %s in %s"
	gitSwitchStartTemplateConstant          = "Switching %s to branch %s"
	gitSwitchSuccessTemplateConstant        = "%s now on branch %s"
	gitSwitchActionTemplateConstant         = "switch %s to branch %s"
	gitCreateBranchStartTemplateConstant    = "Creating branch %s in %s"
	gitCreateBranchSuccessTemplateConstant  = "Created branch %s in %s"
	gitCreateBranchActionTemplateConstant   = "create branch %s in %s"
	gitDeleteBranchStartTemplateConstant    = "Force removing local branch %s in %s"
	gitDeleteBranchSuccessTemplateConstant  = "Removed local branch %s in %s"
	gitDeleteBranchActionTemplateConstant   = "remove local branch %s in %s"
	gitBranchExistsStartTemplateConstant    = "Checking whether branch %s exists in %s"
	gitBranchExistsSuccessTemplateConstant  = "Branch %s exists in %s"
	gitBranchExistsActionTemplateConstant   = "find branch %s in %s"
	gitCurrentBranchStartTemplateConstant   = "Identifying current branch in %s"
	gitCurrentBranchSuccessTemplateConstant = "Identified current branch in %s"
	gitCurrentBranchActionTemplateConstant  = "identify current branch in %s"
	gitRemoteLookupStartTemplateConstant    = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant  = "Read %s remote for %s"
	gitRemoteLookupActionTemplateConstant   = "read %s remote for %s"
	gitAddStartTemplateConstant             = "Staging %s in %s"
	gitAddSuccessTemplateConstant           = "Staged %s in %s"
	gitAddActionTemplateConstant            = "stage %s in %s"
	gitCommitStartTemplateConstant          = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant        = "Created commit in %s with message %q"
	gitCommitActionTemplateConstant         = "create commit in %s with message %q"
)

// commandDescription holds the three phrasings of one invocation.
type commandDescription struct {
	startMessage   string
	successMessage string
	action         string
}

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	description := formatter.describe(command)
	switch stage {
	case messageStageStart:
		return description.startMessage
	case messageStageSuccess:
		return description.successMessage
	case messageStageFailure:
		return fmt.Sprintf(failureTemplateConstant, description.action, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(executionFailureTemplateConstant, description.action, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describe(command ShellCommand) commandDescription {
	arguments := command.Details.Arguments
	if command.Name == CommandGitHub && len(arguments) > 1 {
		return formatter.describeGitHub(command)
	}
	if command.Name != CommandGit || len(arguments) == 0 {
		return formatter.describeGeneric(command)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch strings.TrimSpace(arguments[0]) {
	case gitListFilesSubcommandNameConstant:
		return describeWith(gitUntrackedStartTemplateConstant, gitUntrackedSuccessTemplateConstant, gitUntrackedActionTemplateConstant, workingDirectory)
	case gitDiffSubcommandNameConstant:
		if containsArgument(arguments, gitCachedFlagConstant) {
			return describeWith(gitStagedStartTemplateConstant, gitStagedSuccessTemplateConstant, gitStagedActionTemplateConstant, workingDirectory)
		}
		return describeWith(gitModifiedStartTemplateConstant, gitModifiedSuccessTemplateConstant, gitModifiedActionTemplateConstant, workingDirectory)
	case gitRestoreSubcommandNameConstant:
		files := formatter.describeFiles(arguments[1:])
		if containsArgument(arguments, gitStagedFlagConstant) {
			return describeWith(gitUnstageStartTemplateConstant, gitUnstageSuccessTemplateConstant, gitUnstageActionTemplateConstant, files, workingDirectory)
		}
		return describeWith(gitDiscardStartTemplateConstant, gitDiscardSuccessTemplateConstant, gitDiscardActionTemplateConstant, files, workingDirectory)
	case gitSwitchSubcommandNameConstant:
		branchName := formatter.ensureValue(lastArgument(arguments[1:]))
		if containsArgument(arguments, gitCreateFlagConstant) {
			return describeWith(gitCreateBranchStartTemplateConstant, gitCreateBranchSuccessTemplateConstant, gitCreateBranchActionTemplateConstant, branchName, workingDirectory)
		}
		return describeWith(gitSwitchStartTemplateConstant, gitSwitchSuccessTemplateConstant, gitSwitchActionTemplateConstant, workingDirectory, branchName)
	case gitBranchSubcommandNameConstant:
		if containsArgument(arguments, gitForceDeleteFlagConstant) {
			branchName := formatter.ensureValue(lastArgument(arguments[1:]))
			return describeWith(gitDeleteBranchStartTemplateConstant, gitDeleteBranchSuccessTemplateConstant, gitDeleteBranchActionTemplateConstant, branchName, workingDirectory)
		}
	case gitShowRefSubcommandNameConstant:
		branchName := formatter.ensureValue(strings.TrimPrefix(lastArgument(arguments[1:]), gitBranchReferencePrefixConstant))
		return describeWith(gitBranchExistsStartTemplateConstant, gitBranchExistsSuccessTemplateConstant, gitBranchExistsActionTemplateConstant, branchName, workingDirectory)
	case gitRevParseSubcommandNameConstant:
		if containsArgument(arguments, gitAbbrevRefFlagConstant) && containsArgument(arguments, gitHeadReferenceConstant) {
			return describeWith(gitCurrentBranchStartTemplateConstant, gitCurrentBranchSuccessTemplateConstant, gitCurrentBranchActionTemplateConstant, workingDirectory)
		}
	case gitRemoteSubcommandNameConstant:
		remoteName := formatter.ensureValue(lastArgument(arguments[1:]))
		return describeWith(gitRemoteLookupStartTemplateConstant, gitRemoteLookupSuccessTemplateConstant, gitRemoteLookupActionTemplateConstant, remoteName, workingDirectory)
	case gitAddSubcommandNameConstant:
		files := formatter.describeFiles(arguments[1:])
		return describeWith(gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, gitAddActionTemplateConstant, files, workingDirectory)
	case gitCommitSubcommandNameConstant:
		message := extractCommitMessage(arguments)
		return describeWith(gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, gitCommitActionTemplateConstant, workingDirectory, message)
	}
	return formatter.describeGeneric(command)
}

func (formatter CommandMessageFormatter) describeGitHub(command ShellCommand) commandDescription {
	arguments := command.Details.Arguments
	endpoint := strings.TrimSpace(arguments[1])
	markerIndex := strings.Index(endpoint, githubReleasesEndpointMarkerConstant)
	if arguments[0] != githubAPISubcommandNameConstant || !strings.HasPrefix(endpoint, githubRepositoryEndpointPrefixConstant) || markerIndex < 0 {
		return formatter.describeGeneric(command)
	}

	repository := formatter.ensureValue(endpoint[len(githubRepositoryEndpointPrefixConstant):markerIndex])
	if argumentFollowing(arguments, githubMethodFlagConstant) == githubCreateMethodConstant {
		return describeWith(githubReleaseCreateStartTemplateConstant, githubReleaseCreateSuccessTemplateConstant, githubReleaseCreateActionTemplateConstant, repository)
	}
	return describeWith(githubReleaseListStartTemplateConstant, githubReleaseListSuccessTemplateConstant, githubReleaseListActionTemplateConstant, repository)
}

func describeWith(startTemplate string, successTemplate string, actionTemplate string, values ...any) commandDescription {
	return commandDescription{
		startMessage:   fmt.Sprintf(startTemplate, values...),
		successMessage: fmt.Sprintf(successTemplate, values...),
		action:         fmt.Sprintf(actionTemplate, values...),
	}
}

func (formatter CommandMessageFormatter) describeGeneric(command ShellCommand) commandDescription {
	label := describeCommand(command)
	if len(strings.TrimSpace(command.Details.WorkingDirectory)) > 0 {
		label += fmt.Sprintf(workingDirectorySuffixTemplateConstant, command.Details.WorkingDirectory)
	}
	return describeWith(genericStartTemplateConstant, genericSuccessTemplateConstant, genericActionTemplateConstant, label)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmed := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmed) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) describeFiles(arguments []string) string {
	files := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if argument == argumentTerminatorConstant || strings.HasPrefix(argument, "-") {
			continue
		}
		files = append(files, argument)
	}
	return formatter.ensureValue(strings.Join(files, fileListSeparatorConstant))
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmed := strings.TrimSpace(standardError)
	if len(trimmed) == 0 {
		return ""
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmed)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func lastArgument(arguments []string) string {
	for index := len(arguments) - 1; index >= 0; index-- {
		if strings.HasPrefix(arguments[index], "-") {
			continue
		}
		return arguments[index]
	}
	return ""
}

func extractCommitMessage(arguments []string) string {
	return argumentFollowing(arguments, gitMessageFlagConstant)
}

func argumentFollowing(arguments []string, flag string) string {
	for index := 0; index < len(arguments)-1; index++ {
		if arguments[index] == flag {
			return arguments[index+1]
		}
	}
	return ""
}

func containsArgument(arguments []string, target string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == target {
			return true
		}
	}
	return false
}
