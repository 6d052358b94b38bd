package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Bodzaman/cottage-pos-backend/internal/common/config"
	"github.com/Bodzaman/cottage-pos-backend/internal/models"
	"github.com/Bodzaman/cottage-pos-backend/internal/repository"
	"github.com/Bodzaman/cottage-pos-backend/internal/service/report"
)

func setupTaskHandler(t *testing.T, redisClient *redis.Client) (*TaskHandler, *repository.ReportRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Staff{},
		&models.Order{},
		&models.OrderItem{},
		&models.Refund{},
		&models.DailyReport{},
		&models.DrawerOperation{},
		&models.DenominationCount{},
	))

	calendar, err := report.NewBusinessCalendar("UTC", 0)
	require.NoError(t, err)

	reportRepo := repository.NewReportRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	drawerRepo := repository.NewDrawerRepository(db)
	business := &config.BusinessConfig{
		Restaurant: config.RestaurantConfig{Name: "Cottage Tandoori", Timezone: "UTC"},
		CashDrawer: config.CashDrawerConfig{DefaultFloat: 100, CarryOverFloat: true},
	}

	reports := report.NewReportService(db, reportRepo, orderRepo, drawerRepo, calendar, business, redisClient, nil)
	return NewTaskHandler(reports, reportRepo, redisClient), reportRepo
}

func TestRolloverBusinessDay(t *testing.T) {
	handler, reportRepo := setupTaskHandler(t, nil)
	ctx := context.Background()

	require.NoError(t, handler.RolloverBusinessDay(ctx))

	today := handler.reports.CurrentBusinessDate()
	rpt, err := reportRepo.GetByDate(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rpt.OpeningFloat)

	// 重复执行无副作用
	require.NoError(t, handler.RolloverBusinessDay(ctx))
	again, err := reportRepo.GetByDate(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, rpt.ID, again.ID)
}

func TestRolloverBusinessDayWithLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	handler, reportRepo := setupTaskHandler(t, client)
	ctx := context.Background()

	// 另一实例持有锁时本轮跳过
	require.NoError(t, mr.Set("lock:rollover", "2026-08-31"))
	require.NoError(t, handler.RolloverBusinessDay(ctx))

	today := handler.reports.CurrentBusinessDate()
	_, err := reportRepo.GetByDate(ctx, today)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 锁释放后正常开启
	mr.Del("lock:rollover")
	require.NoError(t, handler.RolloverBusinessDay(ctx))
	_, err = reportRepo.GetByDate(ctx, today)
	require.NoError(t, err)
}

func TestRemindUnfinalizedReport(t *testing.T) {
	handler, reportRepo := setupTaskHandler(t, nil)
	ctx := context.Background()

	// 无上一营业日报表时不报错
	require.NoError(t, handler.RemindUnfinalizedReport(ctx))

	today := handler.reports.CurrentBusinessDate()
	yesterday := today.AddDate(0, 0, -1)
	rpt, err := reportRepo.GetOrCreate(ctx, yesterday, "ZR20260830000001", 100)
	require.NoError(t, err)

	// 未日结只告警不报错
	require.NoError(t, handler.RemindUnfinalizedReport(ctx))

	affected, err := reportRepo.Finalize(ctx, rpt.ID, "Raj", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)
	require.NoError(t, handler.RemindUnfinalizedReport(ctx))
}

func TestSchedulerRunsTask(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 1)
	s.AddTask("probe", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	s.Stop()
}
