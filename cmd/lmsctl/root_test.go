package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCmd(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find([]string{name})
	require.NoError(t, err)
	require.Equal(t, name, cmd.Name())
	return cmd
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "recompute", "gpa", "validate-offering"} {
		findCmd(t, root, name)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestValidateOfferingCmd_Flags(t *testing.T) {
	cmd := findCmd(t, newRootCmd(), "validate-offering")

	require.NoError(t, cmd.ParseFlags([]string{
		"--subject", "CS", "--number", "5530", "--season", "Fall", "--year", "2024",
		"--start", "09:00", "--end", "10:15", "--location", "WEB L104", "--instructor", "u0000001",
	}))
	assert.NoError(t, cmd.ValidateRequiredFlags())

	number, err := cmd.Flags().GetInt("number")
	require.NoError(t, err)
	assert.Equal(t, 5530, number)

	create, err := cmd.Flags().GetBool("create")
	require.NoError(t, err)
	assert.False(t, create)
}

func TestRecomputeCmd_RequiresClass(t *testing.T) {
	cmd := findCmd(t, newRootCmd(), "recompute")
	require.NoError(t, cmd.ParseFlags([]string{"--student", "u0000002"}))
	assert.Error(t, cmd.ValidateRequiredFlags(), "缺少 --class 时应报错")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]float64{"gpa": 3.5}))
	assert.JSONEq(t, `{"gpa":3.5}`, buf.String())
}
