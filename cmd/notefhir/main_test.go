package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

func TestToolsCmd_Table(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"tools"})

	require.NoError(t, cmd.Execute())
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, out.String(), "extract_fhir_condition")
	assert.Contains(t, out.String(), "extract_fhir_medication_statement")
	assert.Contains(t, out.String(), "extract_fhir_procedure")
}

func TestToolsCmd_JSON(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"tools", "--json"})

	require.NoError(t, cmd.Execute())
	var descriptors []entities.ToolDescriptor
	require.NoError(t, json.Unmarshal(out.Bytes(), &descriptors))
	assert.Len(t, descriptors, 3)
	assert.Equal(t, "function", descriptors[0].Type)
}

func TestToolsCmd_MissingFile(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"tools", "--file", filepath.Join(t.TempDir(), "missing.yaml")})

	assert.Error(t, cmd.Execute())
}

func TestReadNote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Patient has chest pain.\n"), 0o600))

	note, err := readNote(strings.NewReader(""), []string{path})
	require.NoError(t, err)
	assert.Equal(t, "Patient has chest pain.", note)

	note, err = readNote(strings.NewReader("Takes metformin."), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "Takes metformin.", note)

	note, err = readNote(strings.NewReader("Appendectomy in 2010."), nil)
	require.NoError(t, err)
	assert.Equal(t, "Appendectomy in 2010.", note)

	_, err = readNote(strings.NewReader("   \n"), nil)
	assert.Error(t, err)

	_, err = readNote(strings.NewReader(""), []string{filepath.Join(t.TempDir(), "absent.txt")})
	assert.Error(t, err)
}

func TestEvaluateCmd_InvalidGoldenSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"n1","note":"","difficulty":"easy"}]`), 0o600))

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"evaluate", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing note text")
}
