package report

import (
	"time"
)

// BusinessCalendar 营业日历
// 餐厅的记账日在配置的切换时刻（而非午夜）翻转：
// 凌晨打烊门店午夜后的交易仍记入前一营业日
type BusinessCalendar struct {
	loc        *time.Location
	cutoffHour int
}

// NewBusinessCalendar 创建营业日历
func NewBusinessCalendar(timezone string, cutoffHour int) (*BusinessCalendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	if cutoffHour < 0 || cutoffHour > 23 {
		cutoffHour = 0
	}
	return &BusinessCalendar{loc: loc, cutoffHour: cutoffHour}, nil
}

// DateAt 计算给定时刻所属的营业日（UTC 午夜日期值）
func (c *BusinessCalendar) DateAt(t time.Time) time.Time {
	local := t.In(c.loc)
	if local.Hour() < c.cutoffHour {
		local = local.AddDate(0, 0, -1)
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Today 当前营业日
func (c *BusinessCalendar) Today() time.Time {
	return c.DateAt(time.Now())
}

// Location 返回门店时区
func (c *BusinessCalendar) Location() *time.Location {
	return c.loc
}
