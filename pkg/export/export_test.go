package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcriptDataset() Dataset {
	return Dataset{
		Title:   "Academic Transcript",
		Headers: []string{"Course", "Grade"},
		Rows: []map[string]string{
			{"Course": "CS-101", "Grade": "A"},
			{"Course": "MATH-201", "Grade": "B+"},
		},
		Summary: []string{"Student: Alice Chen", "GPA: 3.65"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(transcriptDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Course,Grade", lines[0])
	assert.Equal(t, "CS-101,A", lines[1])
	assert.Equal(t, "MATH-201,B+", lines[2])
	assert.Equal(t, "Student: Alice Chen", lines[3])
	assert.Equal(t, "GPA: 3.65", lines[4])
}

func TestCSVExporterMissingCellLeftEmpty(t *testing.T) {
	data := Dataset{
		Headers: []string{"Course", "Grade"},
		Rows:    []map[string]string{{"Course": "CS-101"}},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), "CS-101,\n")
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(transcriptDataset())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{Title: "Academic Transcript"})
	require.Error(t, err)
}
