// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

// ReservationRepository 预约仓储
//
// reservations 表带部分唯一索引：
//
//	(hospital, department, shift_type, date) WHERE status = 'active'
//	(staff_id, date) WHERE status = 'active'
//
// ClaimSlot 依赖前者把并发抢占裁决交给数据库，无需显式加锁。
type ReservationRepository struct {
	db DB
}

// NewReservationRepository 创建预约仓储
func NewReservationRepository(db DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, hospital, staff_id, date, department, shift_type, status, created_at, updated_at`

func scanReservation(s Scanner) (*model.Reservation, error) {
	r := &model.Reservation{}
	err := s.Scan(
		&r.ID, &r.Hospital, &r.StaffID, &r.Date, &r.Department,
		&r.ShiftType, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ClaimSlot 原子抢占预约槽位
//
// 唯一索引冲突（23505）转换为 ALREADY_TAKEN，调用方据此
// 区分可预期的并发竞争与真正的数据库故障。
func (r *ReservationRepository) ClaimSlot(ctx context.Context, res *model.Reservation) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now

	query := `
		INSERT INTO reservations (
			id, hospital, staff_id, date, department, shift_type, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.Hospital, res.StaffID, res.Date, res.Department,
		res.ShiftType, res.Status, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.AlreadyTaken(res.Date, string(res.Department)).WithCause(err)
		}
		return fmt.Errorf("写入预约失败: %w", err)
	}

	return nil
}

// GetReservation 根据ID获取预约
func (r *ReservationRepository) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1`, reservationColumns)

	res, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询预约失败: %w", err)
	}

	return res, nil
}

// CountActive 统计人员的有效预约数
func (r *ReservationRepository) CountActive(ctx context.Context, hospital string, staffID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM reservations
		WHERE hospital = $1 AND staff_id = $2 AND status = $3
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, hospital, staffID, model.ReservationActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("统计预约失败: %w", err)
	}

	return count, nil
}

// ReleaseIfActive 条件取消：仅当预约仍为 active 时置为 cancelled
func (r *ReservationRepository) ReleaseIfActive(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		id, model.ReservationCancelled, time.Now(), model.ReservationActive,
	)
	if err != nil {
		return false, fmt.Errorf("取消预约失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// MarkFulfilled 预约并入确认班次后置为 fulfilled
func (r *ReservationRepository) MarkFulfilled(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		id, model.ReservationFulfilled, time.Now(), model.ReservationActive,
	)
	if err != nil {
		return false, fmt.Errorf("更新预约状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListActiveByMonth 获取某医院某科室某月的全部有效预约
func (r *ReservationRepository) ListActiveByMonth(ctx context.Context, hospital, department, startDate, endDate string) ([]*model.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reservations
		WHERE hospital = $1 AND department = $2
			AND date >= $3 AND date <= $4 AND status = $5
		ORDER BY date ASC
	`, reservationColumns)

	rows, err := r.db.QueryContext(ctx, query, hospital, department, startDate, endDate, model.ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("查询预约列表失败: %w", err)
	}
	defer rows.Close()

	var out []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		out = append(out, res)
	}

	return out, nil
}

// ListByStaff 获取人员的预约列表
func (r *ReservationRepository) ListByStaff(ctx context.Context, hospital string, staffID uuid.UUID) ([]*model.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reservations
		WHERE hospital = $1 AND staff_id = $2
		ORDER BY date ASC
	`, reservationColumns)

	rows, err := r.db.QueryContext(ctx, query, hospital, staffID)
	if err != nil {
		return nil, fmt.Errorf("查询预约列表失败: %w", err)
	}
	defer rows.Close()

	var out []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		out = append(out, res)
	}

	return out, nil
}
