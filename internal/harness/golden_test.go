package harness

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestRunWithGolden(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "customer_search.yaml"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}
