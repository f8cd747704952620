package jetson

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenryPDT/edgeprov/internal/check"
	"github.com/HenryPDT/edgeprov/internal/runner"
)

const helperOutput = `{
  "board": {
    "model": "NVIDIA Jetson Orin NX Engineering Reference Developer Kit",
    "serial": "1422919082257",
    "l4t": "35.4.1",
    "jetpack": "5.1.2",
    "module": "NVIDIA Jetson Orin NX (16GB ram)"
  },
  "libraries": {"CUDA": "11.4.315", "cuDNN": "8.6.0.166", "TensorRT": "8.5.2.2"},
  "nvpmodel": {"name": "15W", "id": 2, "models": ["MAXN", "10W", "15W", "25W"]},
  "jetson_clocks": {"active": false, "status": "inactive", "boot": false},
  "ram": {"total": 16777216, "used": 4194304, "free": 8388608},
  "swap": {"total": 8388608, "used": 0},
  "temperature": {"cpu": 45.2, "gpu": 43.1},
  "fan": {"speed": 0, "profile": "quiet"},
  "disk": {"total": 500.1, "used": 120.4, "available": 379.7}
}`

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo([]byte(helperOutput))
	require.NoError(t, err)
	assert.Equal(t, "1422919082257", info.Board.Serial)
	assert.Equal(t, "35.4.1", info.Board.L4T)
	assert.Equal(t, "15W", info.NVPModel.Name)
	assert.Equal(t, 2, info.NVPModel.ID)
	assert.Equal(t, "11.4.315", info.Libraries["CUDA"])
	assert.InDelta(t, 45.2, info.Temperature["cpu"], 0.01)
}

func TestParseInfoHelperError(t *testing.T) {
	_, err := ParseInfo([]byte(`{"error": "jtop is not ok (service might not be running)"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service might not be running")
}

func TestParseInfoToleratesMissingSections(t *testing.T) {
	info, err := ParseInfo([]byte(`{"board": {"model": "Jetson Nano"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Jetson Nano", info.Board.Model)
	assert.Empty(t, info.NVPModel.Name)
	assert.Nil(t, info.Temperature)
}

func TestPowerModeCheckDefersSwitch(t *testing.T) {
	info, err := ParseInfo([]byte(helperOutput))
	require.NoError(t, err)

	fake := runner.NewFake().On("python3", `{"nvpmodel_action": "Set nvpmodel to MAXN"}`, nil)
	rep := check.NewReporter()
	var out bytes.Buffer

	res := PowerModeCheck(context.Background(), fake, rep, info, &out)
	assert.Equal(t, check.StatusWarn, res.Status)
	assert.Contains(t, res.Message, "15W")
	assert.Equal(t, 1, rep.PendingCount())
	assert.Empty(t, fake.Calls, "the switch must not run during the check")

	rep.RunPending(&out)
	assert.True(t, fake.CalledWith("python3"))
	assert.Contains(t, out.String(), "reboot is recommended")
}

func TestPowerModeCheckPassesOnMaxn(t *testing.T) {
	var info Info
	info.NVPModel.Name = "MAXN"

	rep := check.NewReporter()
	res := PowerModeCheck(context.Background(), runner.NewFake(), rep, info, &bytes.Buffer{})
	assert.Equal(t, check.StatusPass, res.Status)
	assert.Zero(t, rep.PendingCount())
}

func TestPrintInventory(t *testing.T) {
	info, err := ParseInfo([]byte(helperOutput))
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintInventory(&buf, info)
	out := buf.String()
	assert.Contains(t, out, "Orin NX")
	assert.Contains(t, out, "L4T:      35.4.1")
	assert.Contains(t, out, "CUDA=11.4.315")
}
