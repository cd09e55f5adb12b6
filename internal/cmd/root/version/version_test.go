package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/dealerctl/internal/build"
	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/iostreams"
	"github.com/dealerops/dealerctl/test/cmd"
	testConfig "github.com/dealerops/dealerctl/test/config"
)

func newHelper(streams *iostreams.IOStreams, outType common.OutputFormat, showCommit bool) *cmd.MockHelper {
	return &cmd.MockHelper{
		GetOutputFormatMock: func() (common.OutputFormat, error) {
			return outType, nil
		},
		GetConfigMock: func() (config.Hook, error) {
			return &testConfig.MockConfigHook{
				GetBoolMock: func(key string) bool {
					return key == ShowCommitConfigPath && showCommit
				},
			}, nil
		},
		GetStreamsMock: func() *iostreams.IOStreams {
			return streams
		},
		GetBuildInfoMock: func() (*build.Info, error) {
			return &build.Info{
				Version: "dev",
				Commit:  "abc1234",
				Date:    "2026-01-02",
			}, nil
		},
	}
}

func Test_VersionCmd(t *testing.T) {
	all, _, out, _ := iostreams.NewTestIOStreams()

	require.NoError(t, run(newHelper(&all, common.TEXT, false)))
	assert.Equal(t, "dev\n", out.String())
}

func Test_VersionCmdShowCommit(t *testing.T) {
	all, _, out, _ := iostreams.NewTestIOStreams()

	require.NoError(t, run(newHelper(&all, common.TEXT, true)))
	assert.Equal(t, "dev (abc1234, built 2026-01-02)\n", out.String())
}

func Test_VersionCmdJSONOutput(t *testing.T) {
	all, _, out, _ := iostreams.NewTestIOStreams()

	require.NoError(t, run(newHelper(&all, common.JSON, false)))

	var actual map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &actual))
	assert.Equal(t, map[string]any{"version": "dev"}, actual)
}
