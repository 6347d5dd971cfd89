package utils_test

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/fleet/internal/utils"
)

func TestFlushingWriterFlushesBufferedWriters(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriter(destination)

	flushingWriter := utils.NewFlushingWriter(bufferedWriter)
	_, writeError := flushingWriter.Write([]byte("datoso updated\n"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "datoso updated\n", destination.String())
	require.Same(testInstance, flushingWriter, utils.NewFlushingWriter(flushingWriter))
	require.Equal(testInstance, io.Discard, utils.NewFlushingWriter(nil))
}

func TestFlushingWriterUnwrapsDestination(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	flushingWriter := utils.NewFlushingWriter(destination)

	unwrapper, wraps := flushingWriter.(interface{ Unwrap() io.Writer })
	require.True(testInstance, wraps)
	require.Same(testInstance, destination, unwrapper.Unwrap())
}
