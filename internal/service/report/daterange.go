package report

import (
	"time"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/errors"
)

// DateRangePreset 日期范围预设
const (
	PresetToday     = "today"
	PresetYesterday = "yesterday"
	PresetThisWeek  = "this_week"
	PresetLast7Days = "last_7_days"
	PresetCustom    = "custom"
)

// DateRange 已解析的日期范围
// From/To 均为营业日（UTC 午夜），满足 From <= To
type DateRange struct {
	Preset string    `json:"preset"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

// ResolveDateRange 根据预设与当前营业日解析日期范围
// custom 之外的预设由营业日确定性推导，custom 需要显式提供 from/to
func ResolveDateRange(preset string, from, to time.Time, businessDate time.Time) (DateRange, error) {
	switch preset {
	case PresetToday, "":
		return DateRange{Preset: PresetToday, From: businessDate, To: businessDate}, nil
	case PresetYesterday:
		yesterday := businessDate.AddDate(0, 0, -1)
		return DateRange{Preset: PresetYesterday, From: yesterday, To: yesterday}, nil
	case PresetThisWeek:
		// 周一为一周起点
		weekday := int(businessDate.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := businessDate.AddDate(0, 0, -(weekday - 1))
		return DateRange{Preset: PresetThisWeek, From: monday, To: businessDate}, nil
	case PresetLast7Days:
		return DateRange{Preset: PresetLast7Days, From: businessDate.AddDate(0, 0, -6), To: businessDate}, nil
	case PresetCustom:
		if from.IsZero() || to.IsZero() {
			return DateRange{}, errors.ErrInvalidDateRange.WithMessage("自定义范围需要提供起止日期")
		}
		from = truncateToDate(from)
		to = truncateToDate(to)
		if from.After(to) {
			return DateRange{}, errors.ErrInvalidDateRange
		}
		return DateRange{Preset: PresetCustom, From: from, To: to}, nil
	default:
		return DateRange{}, errors.ErrInvalidDateRangePreset
	}
}

// IsSingleDay 是否为单日范围
func (r DateRange) IsSingleDay() bool {
	return r.From.Equal(r.To)
}

// IsCurrentDay 是否为当前营业日（唯一可变的范围）
func (r DateRange) IsCurrentDay(businessDate time.Time) bool {
	return r.IsSingleDay() && r.From.Equal(businessDate)
}

// truncateToDate 归一化为 UTC 午夜日期
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
