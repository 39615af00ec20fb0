// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/calendar"
	"github.com/zhiban/zhiban/pkg/model"
)

// ShiftRepository 班次仓储
//
// shifts 表带唯一索引 (hospital, department, shift_type, date)
// WHERE deleted_at IS NULL，保证同一槽位不会重复建班。
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `id, hospital, department, date, shift_type, staff_id, staff_name, status, created_at, updated_at`

func scanShift(s Scanner) (*model.Shift, error) {
	shift := &model.Shift{}
	var staffID sql.NullString
	var staffName sql.NullString
	err := s.Scan(
		&shift.ID, &shift.Hospital, &shift.Department, &shift.Date, &shift.ShiftType,
		&staffID, &staffName, &shift.Status, &shift.CreatedAt, &shift.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if staffID.Valid {
		id, err := uuid.Parse(staffID.String)
		if err != nil {
			return nil, fmt.Errorf("解析人员ID失败: %w", err)
		}
		shift.StaffID = &id
	}
	if staffName.Valid {
		shift.StaffName = staffName.String
	}
	return shift, nil
}

// Create 创建班次
func (r *ShiftRepository) Create(ctx context.Context, shift *model.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	now := time.Now()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	query := `
		INSERT INTO shifts (
			id, hospital, department, date, shift_type,
			staff_id, staff_name, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.Hospital, shift.Department, shift.Date, shift.ShiftType,
		shift.StaffID, nullString(shift.StaffName), shift.Status, shift.CreatedAt, shift.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建班次失败: %w", err)
	}

	return nil
}

// CreateBatch 批量写入生成的值班表
func (r *ShiftRepository) CreateBatch(ctx context.Context, shifts []*model.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	var values []string
	var args []interface{}
	argIndex := 1

	now := time.Now()
	for _, s := range shifts {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.CreatedAt = now
		s.UpdatedAt = now

		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			argIndex, argIndex+1, argIndex+2, argIndex+3, argIndex+4,
			argIndex+5, argIndex+6, argIndex+7, argIndex+8, argIndex+9,
		))
		args = append(args,
			s.ID, s.Hospital, s.Department, s.Date, s.ShiftType,
			s.StaffID, nullString(s.StaffName), s.Status, s.CreatedAt, s.UpdatedAt,
		)
		argIndex += 10
	}

	query := fmt.Sprintf(`
		INSERT INTO shifts (
			id, hospital, department, date, shift_type,
			staff_id, staff_name, status, created_at, updated_at
		) VALUES %s
	`, strings.Join(values, ", "))

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("批量创建班次失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取班次
func (r *ShiftRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1 AND deleted_at IS NULL`, shiftColumns)

	shift, err := scanShift(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询班次失败: %w", err)
	}

	return shift, nil
}

// ListByMonth 获取某医院某科室某月的全部班次，按日期升序
func (r *ShiftRepository) ListByMonth(ctx context.Context, hospital, department string, year, month int) ([]*model.Shift, error) {
	first := calendar.DateOf(year, month, 1)
	last := calendar.DateOf(year, month, calendar.DaysInMonth(year, month))

	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE hospital = $1 AND department = $2
			AND date >= $3 AND date <= $4 AND deleted_at IS NULL
		ORDER BY date ASC
	`, shiftColumns)

	rows, err := r.db.QueryContext(ctx, query, hospital, department, first, last)
	if err != nil {
		return nil, fmt.Errorf("查询月度班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		shifts = append(shifts, shift)
	}

	return shifts, nil
}

// ListByStaff 获取人员在日期范围内的班次
func (r *ShiftRepository) ListByStaff(ctx context.Context, staffID uuid.UUID, startDate, endDate string) ([]*model.Shift, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE staff_id = $1 AND date >= $2 AND date <= $3 AND deleted_at IS NULL
		ORDER BY date ASC
	`, shiftColumns)

	rows, err := r.db.QueryContext(ctx, query, staffID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询人员班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		shifts = append(shifts, shift)
	}

	return shifts, nil
}

// List 按过滤器查询班次列表
func (r *ShiftRepository) List(ctx context.Context, filter ListFilter) ([]*model.Shift, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Hospital != "" {
		conditions = append(conditions, fmt.Sprintf("hospital = $%d", argIndex))
		args = append(args, filter.Hospital)
		argIndex++
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argIndex))
		args = append(args, filter.Department)
		argIndex++
	}
	if filter.StaffID != nil {
		conditions = append(conditions, fmt.Sprintf("staff_id = $%d", argIndex))
		args = append(args, *filter.StaffID)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argIndex))
		args = append(args, filter.StartDate)
		argIndex++
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argIndex))
		args = append(args, filter.EndDate)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shifts WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM shifts
		WHERE %s
		ORDER BY date ASC
		LIMIT $%d OFFSET $%d
	`, shiftColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("扫描行失败: %w", err)
		}
		shifts = append(shifts, shift)
	}

	return shifts, total, nil
}

// ClaimOpenShift 认领空缺班次
//
// 条件更新：仅当班次仍为 open 时写入人员并置为 reserved。
// 返回 false 表示条件未命中（班次已被他人认领或不存在）。
func (r *ShiftRepository) ClaimOpenShift(ctx context.Context, shiftID, staffID uuid.UUID, staffName string) (bool, error) {
	query := `
		UPDATE shifts
		SET staff_id = $2, staff_name = $3, status = $4, updated_at = $5
		WHERE id = $1 AND status = $6 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		shiftID, staffID, staffName, model.ShiftReserved, time.Now(), model.ShiftOpen,
	)
	if err != nil {
		return false, fmt.Errorf("认领班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ReassignShift 改派班次
//
// 条件更新：仅当班次仍由 from 持有时改派给 to。
func (r *ShiftRepository) ReassignShift(ctx context.Context, shiftID, from, to uuid.UUID, toName string) (bool, error) {
	query := `
		UPDATE shifts
		SET staff_id = $3, staff_name = $4, updated_at = $5
		WHERE id = $1 AND staff_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, shiftID, from, to, nullString(toName), time.Now())
	if err != nil {
		return false, fmt.Errorf("改派班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ReleaseShift 释放班次回空缺状态，仅当前持有人可释放
func (r *ShiftRepository) ReleaseShift(ctx context.Context, shiftID, holder uuid.UUID) (bool, error) {
	query := `
		UPDATE shifts
		SET staff_id = NULL, staff_name = NULL, status = $3, updated_at = $4
		WHERE id = $1 AND staff_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, shiftID, holder, model.ShiftOpen, time.Now())
	if err != nil {
		return false, fmt.Errorf("释放班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// Delete 软删除班次
func (r *ShiftRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shifts SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("班次不存在")
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
