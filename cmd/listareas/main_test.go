package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
)

func TestPrintAreas(t *testing.T) {
	b, err := domain.ParseBulletin(strings.NewReader(`<product>
		<area description="Tasmania"/>
		<area description="Western"/>
		<area description="Western"/>
	</product>`))
	require.NoError(t, err)

	var out bytes.Buffer
	printAreas(&out, b)

	assert.Equal(t, "Root tag is: product\n"+
		"Available areas and their descriptions:\n"+
		" - Tasmania\n"+
		" - Western\n"+
		" - Western\n", out.String())
}

func TestPrintAreas_NoAreas(t *testing.T) {
	b, err := domain.ParseBulletin(strings.NewReader(`<amoc/>`))
	require.NoError(t, err)

	var out bytes.Buffer
	printAreas(&out, b)

	assert.Equal(t, "Root tag is: amoc\nAvailable areas and their descriptions:\n", out.String())
}

func TestRun_File(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-file", "../../internal/domain/testdata/IDT16000.xml"}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "Root tag is: product\n"+
		"Available areas and their descriptions:\n"+
		" - Tasmania\n"+
		" - Western\n"+
		" - North West Coast\n", stdout.String())
}

func TestRun_MissingFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(nil, &stdout, &stderr)

	require.EqualError(t, err, "missing required flag: -file or -fetch")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "-file")
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-verbose"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Empty(t, stdout.String())
}

func TestRun_MalformedBulletin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xml")
	require.NoError(t, os.WriteFile(path, []byte("<product><area>"), 0o644))

	var stdout, stderr bytes.Buffer
	err := run([]string{"-file", path}, &stdout, &stderr)

	var perr *domain.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Empty(t, stdout.String())
}
