package manifest

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

const (
	lineSeparatorConstant         = "\n"
	carriageReturnConstant        = "\r"
	defaultFilePermissionConstant = fs.FileMode(0o644)
)

type lineFile struct {
	path        string
	lines       []string
	permissions fs.FileMode
}

func readLineFile(fileSystem afero.Fs, path string) (lineFile, error) {
	fileInfo, statError := fileSystem.Stat(path)
	if statError != nil {
		return lineFile{}, statError
	}

	content, readError := afero.ReadFile(fileSystem, path)
	if readError != nil {
		return lineFile{}, readError
	}

	return lineFile{path: path, lines: splitLines(string(content)), permissions: fileInfo.Mode().Perm()}, nil
}

func (file lineFile) render() []byte {
	var builder strings.Builder
	for _, line := range file.lines {
		builder.WriteString(line)
		builder.WriteString(lineSeparatorConstant)
	}
	return []byte(builder.String())
}

func (file lineFile) write(fileSystem afero.Fs) error {
	permissions := file.permissions
	if permissions == 0 {
		permissions = defaultFilePermissionConstant
	}
	return afero.WriteFile(fileSystem, file.path, file.render(), permissions)
}

// splitLines drops line terminators, accepting both LF and CRLF input.
func splitLines(content string) []string {
	if len(content) == 0 {
		return nil
	}
	rawLines := strings.Split(strings.TrimSuffix(content, lineSeparatorConstant), lineSeparatorConstant)
	lines := make([]string, 0, len(rawLines))
	for _, rawLine := range rawLines {
		lines = append(lines, strings.TrimSuffix(rawLine, carriageReturnConstant))
	}
	return lines
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
