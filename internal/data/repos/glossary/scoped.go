package glossary

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shared helpers for tables that are owned by a single project and cleared
// wholesale when a run regenerates them.

func createRows[T any](transaction *gorm.DB, rows []*T) ([]*T, error) {
	if len(rows) == 0 {
		return []*T{}, nil
	}
	if err := transaction.Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func listByProject[T any](transaction *gorm.DB, projectID uuid.UUID, order string) ([]*T, error) {
	var out []*T
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := transaction.
		Where("project_id = ?", projectID).
		Order(order).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func countByProject[T any](transaction *gorm.DB, projectID uuid.UUID) (int64, error) {
	var n int64
	if projectID == uuid.Nil {
		return 0, nil
	}
	var model T
	if err := transaction.
		Model(&model).
		Where("project_id = ?", projectID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// deleteByProject hard-deletes so a rerun can insert the same unique keys again.
func deleteByProject[T any](transaction *gorm.DB, projectID uuid.UUID) (int64, error) {
	if projectID == uuid.Nil {
		return 0, nil
	}
	var model T
	res := transaction.
		Where("project_id = ?", projectID).
		Delete(&model)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
