package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDateRangePresets(t *testing.T) {
	// 2026-08-31 是周一
	today := day(2026, time.August, 31)

	tests := []struct {
		name     string
		preset   string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{"今天", PresetToday, today, today},
		{"空预设按今天处理", "", today, today},
		{"昨天", PresetYesterday, day(2026, time.August, 30), day(2026, time.August, 30)},
		{"本周从周一开始", PresetThisWeek, today, today},
		{"近七天", PresetLast7Days, day(2026, time.August, 25), today},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolveDateRange(tt.preset, time.Time{}, time.Time{}, today)
			require.NoError(t, err)
			assert.True(t, r.From.Equal(tt.wantFrom), "from: got %v want %v", r.From, tt.wantFrom)
			assert.True(t, r.To.Equal(tt.wantTo), "to: got %v want %v", r.To, tt.wantTo)
		})
	}
}

func TestResolveDateRangeThisWeekMidWeek(t *testing.T) {
	// 周日属于从上周一开始的一周
	sunday := day(2026, time.September, 6)
	r, err := ResolveDateRange(PresetThisWeek, time.Time{}, time.Time{}, sunday)
	require.NoError(t, err)
	assert.True(t, r.From.Equal(day(2026, time.August, 31)))
	assert.True(t, r.To.Equal(sunday))
}

func TestResolveDateRangeCustom(t *testing.T) {
	today := day(2026, time.August, 31)

	t.Run("正常区间", func(t *testing.T) {
		r, err := ResolveDateRange(PresetCustom, day(2026, time.August, 1), day(2026, time.August, 15), today)
		require.NoError(t, err)
		assert.Equal(t, PresetCustom, r.Preset)
		assert.False(t, r.IsSingleDay())
	})

	t.Run("带时分秒的输入归一化到日期", func(t *testing.T) {
		from := time.Date(2026, time.August, 1, 18, 30, 0, 0, time.UTC)
		r, err := ResolveDateRange(PresetCustom, from, from, today)
		require.NoError(t, err)
		assert.True(t, r.From.Equal(day(2026, time.August, 1)))
		assert.True(t, r.IsSingleDay())
	})

	t.Run("缺少起止日期", func(t *testing.T) {
		_, err := ResolveDateRange(PresetCustom, time.Time{}, time.Time{}, today)
		appErr := errors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, errors.ErrInvalidDateRange.Code, appErr.Code)
	})

	t.Run("起始晚于结束", func(t *testing.T) {
		_, err := ResolveDateRange(PresetCustom, day(2026, time.August, 20), day(2026, time.August, 10), today)
		assert.Error(t, err)
	})
}

func TestResolveDateRangeUnknownPreset(t *testing.T) {
	_, err := ResolveDateRange("last_year", time.Time{}, time.Time{}, day(2026, time.August, 31))
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidDateRangePreset.Code, appErr.Code)
}

func TestIsCurrentDay(t *testing.T) {
	today := day(2026, time.August, 31)

	r, err := ResolveDateRange(PresetToday, time.Time{}, time.Time{}, today)
	require.NoError(t, err)
	assert.True(t, r.IsCurrentDay(today))

	r, err = ResolveDateRange(PresetYesterday, time.Time{}, time.Time{}, today)
	require.NoError(t, err)
	assert.False(t, r.IsCurrentDay(today))

	// 包含今天的多日范围不算当前营业日
	r, err = ResolveDateRange(PresetLast7Days, time.Time{}, time.Time{}, today)
	require.NoError(t, err)
	assert.False(t, r.IsCurrentDay(today))
}
