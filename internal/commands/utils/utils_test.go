package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/XLZRBotGo/internal/engine"
	"github.com/PancyStudios/XLZRBotGo/internal/store"
	"github.com/PancyStudios/XLZRBotGo/pkg/models"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{time.Hour + 2*time.Second, "1h, 2s"},
		{26*time.Hour + 3*time.Minute, "1d, 2h, 3m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "▱▱▱▱▱▱▱▱▱▱", progressBar(0, 100))
	assert.Equal(t, "▰▰▰▰▰▱▱▱▱▱", progressBar(100, 200))
	assert.Equal(t, "▰▰▰▰▰▰▰▰▰▰", progressBar(500, 200))
	assert.Equal(t, "▱▱▱▱▱▱▱▱▱▱", progressBar(10, 0))
}

func TestLevelEmbedShowsRequiredXP(t *testing.T) {
	st := models.LevelState{XP: 40, Level: 3}
	e := levelEmbed("alice", "", st)

	require.Len(t, e.Fields, 3)
	assert.Equal(t, "3", e.Fields[0].Value)
	assert.Equal(t, "40 / 300", e.Fields[1].Value)
	assert.Nil(t, e.Thumbnail)
}

func TestStatusEmbed(t *testing.T) {
	e := statusEmbed(statusInfo{Guilds: 2, Backend: "🔴 | Offline", Online: false})
	assert.Equal(t, 0xfee75c, e.Color)
	assert.Equal(t, "never", e.Fields[3].Value)
	assert.Equal(t, "no sweep yet", e.Fields[4].Value)

	finished := time.Unix(1700000000, 0)
	e = statusEmbed(statusInfo{
		Online:    true,
		Sweeping:  true,
		LastFlush: finished,
		LastSweep: &engine.SweepReport{FinishedAt: finished, Total: 4, Updated: 1, Failed: 1},
	})
	assert.Equal(t, 0x57f287, e.Color)
	assert.Contains(t, e.Fields[4].Value, "running")
	assert.Contains(t, e.Fields[4].Value, "4 records, 1 updated, 0 skipped, 1 failed")
}

func TestStatsEmbedCountsRecords(t *testing.T) {
	e := statsEmbed(store.Stats{LevelStates: 7, Warnings: 2, Verifications: 3}, time.Minute, 1024*1024)
	values := map[string]string{}
	for _, f := range e.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "7", values["📈 Level records"])
	assert.Equal(t, "2", values["⚠️ Warned members"])
	assert.Equal(t, "3", values["✅ Verified members"])
	assert.Equal(t, "1.00 MB", values["🖥 Memory"])
}

func TestHelpListsEveryGroup(t *testing.T) {
	text := helpText()
	for _, group := range []string{"/utils", "/verify", "/mod", "/config"} {
		assert.Contains(t, text, group)
	}
}
