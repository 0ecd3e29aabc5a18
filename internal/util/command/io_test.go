package command_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txenvelope/internal/util/command"
)

func TestReadHexArg(t *testing.T) {
	cmd := &cobra.Command{}

	b, err := command.ReadHexArg(cmd, []string{"0x76c0"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x76, 0xc0}, b)

	cmd.SetIn(strings.NewReader("0x77c0\n"))
	b, err = command.ReadHexArg(cmd, []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x77, 0xc0}, b)

	_, err = command.ReadHexArg(cmd, []string{"76c0"})
	require.Error(t, err)
	_, err = command.ReadHexArg(cmd, nil)
	require.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, command.PrintJSON(cmd, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, out.String())
}
