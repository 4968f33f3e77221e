package ingest

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadJSON_RoundTripsMinimalDocument(t *testing.T) {
	doc := minimalDoc()
	buf, err := json.Marshal(doc)
	require.NoError(t, err)

	g, err := LoadJSON(bytes.NewReader(buf))
	require.NoError(t, err)
	require.True(t, g.Frozen())
}

func TestLoadYAML_RoundTripsMinimalDocument(t *testing.T) {
	doc := minimalDoc()
	buf, err := yaml.Marshal(doc)
	require.NoError(t, err)

	g, err := LoadYAML(bytes.NewReader(buf))
	require.NoError(t, err)
	require.True(t, g.Frozen())
}

func TestLoadJSON_MalformedInputFails(t *testing.T) {
	_, err := LoadJSON(bytes.NewReader([]byte(`{not json`)))
	require.Error(t, err)
}
