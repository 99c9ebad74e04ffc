package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
)

func TestInterruptibleReader(t *testing.T) {
	cancel := make(chan struct{})
	r := NewInterruptibleReader(strings.NewReader("show vitals\n"), cancel)

	buf := make([]byte, 4)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "show", string(buf[:n]))

	close(cancel)
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, HandleExecutionError(nil))
	assert.NoError(t, HandleExecutionError(fmt.Errorf("input error: %w", ErrInterrupted)))
	assert.NoError(t, HandleExecutionError(context.Canceled))
	assert.NoError(t, HandleExecutionError(io.EOF))

	boom := errors.New("boom")
	assert.ErrorIs(t, HandleExecutionError(boom), boom)
}

func TestCreateLogger(t *testing.T) {
	l, err := CreateLogger("debug")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = CreateLogger("loud")
	assert.Error(t, err)
}

func TestRunRepl_PipedInputIsHeadless(t *testing.T) {
	eng, err := mdxvision.New(context.Background())
	require.NoError(t, err)
	defer eng.Close()

	var out bytes.Buffer
	err = RunRepl(context.Background(), eng, ReplOptions{
		Input:  strings.NewReader("show worklist\nexit\n"),
		Output: &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "showing worklist\n", out.String())
}
