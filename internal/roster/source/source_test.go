package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStubSources_DelegatesToConfiguredFuncs(t *testing.T) {
	now := time.Now()
	stub := &StubSources{
		ShiftDurationFunc: func(ctx context.Context, date time.Time, shift string) (*ShiftDuration, error) {
			return &ShiftDuration{Start: now, End: now.Add(time.Hour)}, nil
		},
		InitialScheduleFunc: func(ctx context.Context, from, to time.Time) ([]ShiftRow, error) {
			return []ShiftRow{{ControllerID: "C1"}}, nil
		},
		ConfigurationTimelineFunc: func(ctx context.Context, from, to time.Time) ([]ConfigRow, error) {
			return []ConfigRow{{Code: "CFG1"}}, nil
		},
		LicensedControllersFunc: func(ctx context.Context) (map[string]bool, error) {
			return map[string]bool{"C1": true}, nil
		},
	}

	sources := stub.AsSources()

	sd, err := sources.Shift.ShiftDuration(context.Background(), now, "J")
	require.NoError(t, err)
	require.Equal(t, now, sd.Start)

	rows, err := sources.Shift.InitialSchedule(context.Background(), now, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "C1", rows[0].ControllerID)

	configRows, err := sources.Config.ConfigurationTimeline(context.Background(), now, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "CFG1", configRows[0].Code)

	licensed, err := sources.License.LicensedControllers(context.Background())
	require.NoError(t, err)
	require.True(t, licensed["C1"])
}
