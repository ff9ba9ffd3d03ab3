package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils"
	"gorm.io/gorm"
)

// OrderBatch maps a row id to the position the client asked for. Values are
// kept raw so one bad entry only skips itself.
type OrderBatch map[string]json.RawMessage

// ReorderResult counts what a reorder batch did. It is logged, never
// returned to the client.
type ReorderResult struct {
	Applied int
	Skipped int
}

// OrderingService maintains sort positions of modules within a course and
// contents within a module
type OrderingService struct {
	db    *gorm.DB
	gate  *OwnershipGate
	audit *utils.Logger
}

// NewOrderingService creates a new ordering service. Skipped entries are
// written to audit, or to the standard logger when audit is nil.
func NewOrderingService(db *gorm.DB, audit *utils.Logger) *OrderingService {
	if audit == nil {
		audit = utils.NewLoggerTo(log.Writer())
	}
	return &OrderingService{
		db:    db,
		gate:  NewOwnershipGate(db),
		audit: audit,
	}
}

// ReorderModules applies id -> order pairs to modules owned by ownerID.
// Every entry is its own UPDATE; entries that do not parse or are not owned
// are skipped.
func (s *OrderingService) ReorderModules(ctx context.Context, ownerID uint, orders OrderBatch) ReorderResult {
	scope := s.gate.ownedCourseIDs(ownerID)
	result := s.reorder(ctx, orders, func(tx *gorm.DB, id uint, order int) *gorm.DB {
		return tx.Model(&model.Module{}).
			Where("id = ? AND course_id IN (?)", id, scope).
			Update("sort_order", order)
	})
	s.log("modules", ownerID, result)
	return result
}

// ReorderContents applies id -> order pairs to contents owned by ownerID
func (s *OrderingService) ReorderContents(ctx context.Context, ownerID uint, orders OrderBatch) ReorderResult {
	scope := s.gate.ownedModuleIDs(ownerID)
	result := s.reorder(ctx, orders, func(tx *gorm.DB, id uint, order int) *gorm.DB {
		return tx.Model(&model.Content{}).
			Where("id = ? AND module_id IN (?)", id, scope).
			Update("sort_order", order)
	})
	s.log("contents", ownerID, result)
	return result
}

type reorderFunc func(tx *gorm.DB, id uint, order int) *gorm.DB

func (s *OrderingService) reorder(ctx context.Context, orders OrderBatch, apply reorderFunc) ReorderResult {
	keys := make([]string, 0, len(orders))
	for key := range orders {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result ReorderResult
	db := s.db.WithContext(ctx)
	for _, key := range keys {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			result.Skipped++
			continue
		}
		order, ok := parseOrder(orders[key])
		if !ok {
			result.Skipped++
			continue
		}

		res := apply(db, uint(id), order)
		if res.Error != nil {
			s.audit.Logf("reorder of %s failed: %v", key, res.Error)
			result.Skipped++
			continue
		}
		if res.RowsAffected == 0 {
			result.Skipped++
			continue
		}
		result.Applied++
	}
	return result
}

// parseOrder accepts a JSON number or numeric string. Fractions are
// truncated; negatives and anything else are rejected.
func parseOrder(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), i >= 0 && i <= math.MaxInt32
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func (s *OrderingService) log(what string, ownerID uint, result ReorderResult) {
	if result.Skipped == 0 {
		return
	}
	s.audit.Logf("reorder %s by user %d: applied %d, skipped %d", what, ownerID, result.Applied, result.Skipped)
}

// NextModuleOrder returns the position after the last module of a course
func (s *OrderingService) NextModuleOrder(ctx context.Context, courseID uint) (int, error) {
	return nextOrder(s.db.WithContext(ctx), &model.Module{}, "course_id", courseID)
}

// NextContentOrder returns the position after the last content of a module
func (s *OrderingService) NextContentOrder(ctx context.Context, moduleID uint) (int, error) {
	return nextOrder(s.db.WithContext(ctx), &model.Content{}, "module_id", moduleID)
}

// nextOrder is 0 for an empty parent, else the highest sibling order + 1
func nextOrder(tx *gorm.DB, value interface{}, parentColumn string, parentID uint) (int, error) {
	var highest sql.NullInt64
	row := tx.Model(value).
		Select("MAX(sort_order)").
		Where(parentColumn+" = ?", parentID).
		Row()
	if err := row.Scan(&highest); err != nil {
		return 0, fmt.Errorf("failed to compute next order: %w", err)
	}
	if !highest.Valid {
		return 0, nil
	}
	return int(highest.Int64) + 1, nil
}
