// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/model"
)

// SwapRepository 换班请求仓储，连同班次条件更新一起实现换班服务的存储接口
type SwapRepository struct {
	db     DB
	shifts *ShiftRepository
}

// NewSwapRepository 创建换班仓储
func NewSwapRepository(db DB) *SwapRepository {
	return &SwapRepository{db: db, shifts: NewShiftRepository(db)}
}

const swapColumns = `id, hospital, shift_id, from_staff_id, to_staff_id, reason,
	status, reviewed_by, reviewed_at, review_note, created_at, updated_at`

func scanSwap(s Scanner) (*model.SwapRequest, error) {
	sw := &model.SwapRequest{}
	var toStaff, reviewedBy sql.NullString
	var reviewedAt sql.NullTime
	var reason, note sql.NullString
	err := s.Scan(
		&sw.ID, &sw.Hospital, &sw.ShiftID, &sw.FromStaffID, &toStaff, &reason,
		&sw.Status, &reviewedBy, &reviewedAt, &note, &sw.CreatedAt, &sw.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if toStaff.Valid {
		id, err := uuid.Parse(toStaff.String)
		if err != nil {
			return nil, fmt.Errorf("解析接班人ID失败: %w", err)
		}
		sw.ToStaffID = &id
	}
	if reviewedBy.Valid {
		id, err := uuid.Parse(reviewedBy.String)
		if err != nil {
			return nil, fmt.Errorf("解析审批人ID失败: %w", err)
		}
		sw.ReviewedBy = &id
	}
	if reviewedAt.Valid {
		sw.ReviewedAt = &reviewedAt.Time
	}
	sw.Reason = reason.String
	sw.ReviewNote = note.String
	return sw, nil
}

// CreateSwap 写入换班请求
func (r *SwapRepository) CreateSwap(ctx context.Context, sw *model.SwapRequest) error {
	if sw.ID == uuid.Nil {
		sw.ID = uuid.New()
	}
	now := time.Now()
	sw.CreatedAt = now
	sw.UpdatedAt = now

	query := `
		INSERT INTO swap_requests (
			id, hospital, shift_id, from_staff_id, to_staff_id, reason,
			status, review_note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		sw.ID, sw.Hospital, sw.ShiftID, sw.FromStaffID, sw.ToStaffID,
		nullString(sw.Reason), sw.Status, nullString(sw.ReviewNote), sw.CreatedAt, sw.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建换班请求失败: %w", err)
	}

	return nil
}

// GetSwap 根据ID获取换班请求
func (r *SwapRepository) GetSwap(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM swap_requests WHERE id = $1`, swapColumns)

	sw, err := scanSwap(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询换班请求失败: %w", err)
	}

	return sw, nil
}

// GetShift 获取换班涉及的班次
func (r *SwapRepository) GetShift(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	return r.shifts.GetByID(ctx, id)
}

// UpdateStatusIfPending 条件状态迁移
//
// 仅当请求仍为 pending 时写入终态，并发审批只有一个能命中。
func (r *SwapRepository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, to model.SwapStatus, reviewedBy *uuid.UUID, note string) (bool, error) {
	query := `
		UPDATE swap_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4, review_note = $5, updated_at = $6
		WHERE id = $1 AND status = $7
	`

	now := time.Now()
	// 申请人撤回时没有审批人，审批时间留空
	reviewedAt := sql.NullTime{Time: now, Valid: reviewedBy != nil}
	result, err := r.db.ExecContext(ctx, query,
		id, to, reviewedBy, reviewedAt, nullString(note), now, model.SwapPending,
	)
	if err != nil {
		return false, fmt.Errorf("更新换班状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// GetStaffName 查接班人姓名，查不到返回空串
func (r *SwapRepository) GetStaffName(ctx context.Context, id uuid.UUID) (string, error) {
	query := `SELECT name FROM staff WHERE id = $1 AND deleted_at IS NULL`

	var name string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("查询人员姓名失败: %w", err)
	}
	return name, nil
}

// ReassignShift 批准后的班次改派，委托班次仓储的条件更新
func (r *SwapRepository) ReassignShift(ctx context.Context, shiftID, from, to uuid.UUID, toName string) (bool, error) {
	return r.shifts.ReassignShift(ctx, shiftID, from, to, toName)
}

// ListPending 获取医院待审批的换班请求
func (r *SwapRepository) ListPending(ctx context.Context, hospital string) ([]*model.SwapRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM swap_requests
		WHERE hospital = $1 AND status = $2
		ORDER BY created_at ASC
	`, swapColumns)

	rows, err := r.db.QueryContext(ctx, query, hospital, model.SwapPending)
	if err != nil {
		return nil, fmt.Errorf("查询换班请求失败: %w", err)
	}
	defer rows.Close()

	var out []*model.SwapRequest
	for rows.Next() {
		sw, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		out = append(out, sw)
	}

	return out, nil
}
