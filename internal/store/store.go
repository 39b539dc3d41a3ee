// Package store persists signals, order attempts and daily aggregates in a
// local SQLite database.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"perpscan/internal/gateway/exchange"
	"perpscan/internal/logger"
	"perpscan/internal/store/model"
	"perpscan/internal/strategy"
)

type Store struct {
	db    *gorm.DB
	nowFn func() time.Time
}

// New opens (creating if needed) the SQLite database at path and migrates
// the schema.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return NewFromDB(db)
}

// NewFromDB wraps an already opened gorm handle, used by tests.
func NewFromDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(
		&model.SignalModel{},
		&model.OrderModel{},
		&model.DailyStatModel{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, nowFn: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSignals persists one scan's signal batch. Duplicate signal IDs are
// ignored so a retried save stays idempotent.
func (s *Store) SaveSignals(signals []strategy.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	rows := make([]model.SignalModel, 0, len(signals))
	for _, sig := range signals {
		payload, err := json.Marshal(sig)
		if err != nil {
			return fmt.Errorf("marshal signal %s: %w", sig.ID, err)
		}
		rows = append(rows, model.SignalModel{
			SignalID:  sig.ID,
			Symbol:    sig.Symbol,
			Direction: string(sig.Direction),
			Regime:    string(sig.Regime),
			Strength:  sig.Strength,
			TPROI:     sig.TPROI,
			SLROI:     sig.SLROI,
			Payload:   datatypes.JSON(payload),
			CreatedAt: s.nowFn(),
		})
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return err
	}
	s.bumpStat(func(st *model.DailyStatModel) { st.Signals += len(signals) })
	return nil
}

// RecentSignals returns the newest persisted signals, newest first.
func (s *Store) RecentSignals(limit int) ([]model.SignalModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []model.SignalModel
	err := s.db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// RecentOrders returns the newest order attempts, newest first.
func (s *Store) RecentOrders(limit int) ([]model.OrderModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []model.OrderModel
	err := s.db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// DailyStats returns per-day aggregates for the last n days, newest first.
func (s *Store) DailyStats(days int) ([]model.DailyStatModel, error) {
	if days <= 0 {
		days = 7
	}
	var rows []model.DailyStatModel
	err := s.db.Order("day DESC").Limit(days).Find(&rows).Error
	return rows, err
}

// OrderPlaced records a successful order sequence.
func (s *Store) OrderPlaced(sig strategy.Signal, res exchange.OrderResult, qty, tp, sl float64) {
	row := model.OrderModel{
		SignalID:   sig.ID,
		Symbol:     sig.Symbol,
		Direction:  string(sig.Direction),
		Status:     "placed",
		OrderID:    res.OrderID,
		Quantity:   qty,
		EntryPrice: res.AvgPrice,
		TakeProfit: tp,
		StopLoss:   sl,
		CreatedAt:  s.nowFn(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		logger.Errorf("persist placed order for %s failed: %v", sig.Symbol, err)
		return
	}
	s.bumpStat(func(st *model.DailyStatModel) { st.OrdersPlaced++ })
}

// OrderFailed records a failed order sequence.
func (s *Store) OrderFailed(sig strategy.Signal, reason string) {
	row := model.OrderModel{
		SignalID:  sig.ID,
		Symbol:    sig.Symbol,
		Direction: string(sig.Direction),
		Status:    "failed",
		Error:     reason,
		CreatedAt: s.nowFn(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		logger.Errorf("persist failed order for %s failed: %v", sig.Symbol, err)
		return
	}
	s.bumpStat(func(st *model.DailyStatModel) { st.OrdersFailed++ })
}

func (s *Store) bumpStat(apply func(*model.DailyStatModel)) {
	day := s.nowFn().Format("2006-01-02")
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var st model.DailyStatModel
		if err := tx.Where("day = ?", day).First(&st).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			st = model.DailyStatModel{Day: day}
		}
		apply(&st)
		st.UpdatedAt = s.nowFn()
		return tx.Save(&st).Error
	})
	if err != nil {
		logger.Errorf("update daily stats failed: %v", err)
	}
}
