package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	csvHeader = "ph,hardness,solids,chloramines,sulfate,conductivity,organic_carbon,trihalomethanes,turbidity"
	goodRow   = "7.2,204.89,450.5,3.1,210,420.25,8.9,56.3,3.9"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScoreFile(t *testing.T) {
	in := writeTemp(t, "lake.csv", csvHeader+"\n"+goodRow+"\n"+goodRow+"\n")
	dir := t.TempDir()
	csvOut := filepath.Join(dir, "out", "scored.csv")
	pdfOut := filepath.Join(dir, "report.pdf")

	out, err := execute(t, "score", in, "--records", "--csv", csvOut, "--pdf", pdfOut)
	require.NoError(t, err)

	assert.Contains(t, out, "lake.csv")
	assert.Contains(t, out, "100.00 / 100")
	assert.Contains(t, out, "Good")
	assert.Contains(t, out, "Organic Carbon")

	scored, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(scored)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, goodRow+",100,Good", lines[1])

	pdf, err := os.ReadFile(pdfOut)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestScoreDefaultDataset(t *testing.T) {
	out, err := execute(t, "score")
	require.NoError(t, err)
	assert.Contains(t, out, "water_potability_sample.csv")
	assert.Contains(t, out, "Records:")
	assert.Contains(t, out, "48")
}

func TestScore_FormatAndDelimiter(t *testing.T) {
	content := strings.ReplaceAll(csvHeader+"\n"+goodRow+"\n", ",", "\t")
	in := writeTemp(t, "lake.tsv", content)

	out, err := execute(t, "score", in, "--format", "csv", "--delimiter", `\t`)
	require.NoError(t, err)
	assert.Contains(t, out, "Good")
}

func TestScore_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(t *testing.T) []string
		wantErr string
	}{
		{
			name:    "missing file",
			args:    func(t *testing.T) []string { return []string{"score", filepath.Join(t.TempDir(), "nope.csv")} },
			wantErr: "read input",
		},
		{
			name: "unsupported extension",
			args: func(t *testing.T) []string {
				return []string{"score", writeTemp(t, "notes.txt", "ph\n7\n")}
			},
			wantErr: "unsupported format",
		},
		{
			name: "bad delimiter",
			args: func(t *testing.T) []string {
				return []string{"score", writeTemp(t, "a.csv", "ph\n7\n"), "--delimiter", ";;"}
			},
			wantErr: "delimiter",
		},
		{
			name: "missing columns",
			args: func(t *testing.T) []string {
				return []string{"score", writeTemp(t, "a.csv", "ph\n7\n")}
			},
			wantErr: "missing or invalid required fields",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args(t)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestForm(t *testing.T) {
	args := []string{"form"}
	for i, v := range strings.Split(goodRow, ",") {
		args = append(args, fieldNames()[i]+"="+v)
	}
	// Labels are accepted as keys too.
	args[1] = "pH=7.2"

	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Good")
	assert.Contains(t, out, "safe for consumption")
}

func TestForm_Errors(t *testing.T) {
	_, err := execute(t, "form", "ph")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field=value")

	_, err = execute(t, "form", "ph=7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbidity (missing)")
}

func TestPreview(t *testing.T) {
	in := writeTemp(t, "partial.json", `[{"ph": 7, "turbidity": 2}, {"ph": 6.5, "turbidity": 4}]`)

	out, err := execute(t, "preview", in)
	require.NoError(t, err)
	assert.Contains(t, out, "json")
	assert.Contains(t, out, "Missing fields:")
	assert.Contains(t, out, "hardness")
	assert.Contains(t, out, "6.5")
	assert.NotContains(t, out, "more")
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"Organic Carbon=3.5", "ph=", "turbidity=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"organic_carbon": "3.5",
		"ph":             "",
		"turbidity":      "a=b",
	}, got)
}
