// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/zhiban/zhiban/pkg/model"
)

// StaffRepository 医护人员仓储
type StaffRepository struct {
	db DB
}

// NewStaffRepository 创建人员仓储
func NewStaffRepository(db DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffColumns = `id, name, hospital, department, role, status,
	shifts_this_month, weekend_shifts, last_shift_date, max_shifts_per_month,
	unavailable_dates, reserved_dates, created_at, updated_at`

func scanStaff(s Scanner) (*model.StaffMember, error) {
	member := &model.StaffMember{}
	var lastShift sql.NullString
	var unavailable, reserved pq.StringArray
	err := s.Scan(
		&member.ID, &member.Name, &member.Hospital, &member.Department,
		&member.Role, &member.Status,
		&member.ShiftsThisMonth, &member.WeekendShifts, &lastShift, &member.MaxShiftsPerMonth,
		&unavailable, &reserved, &member.CreatedAt, &member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastShift.Valid {
		member.LastShiftDate = lastShift.String
	}
	member.UnavailableDates = []string(unavailable)
	member.ReservedDates = []string(reserved)
	return member, nil
}

// Create 创建人员
func (r *StaffRepository) Create(ctx context.Context, member *model.StaffMember) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	query := `
		INSERT INTO staff (
			id, name, hospital, department, role, status,
			shifts_this_month, weekend_shifts, last_shift_date, max_shifts_per_month,
			unavailable_dates, reserved_dates, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		member.ID, member.Name, member.Hospital, member.Department, member.Role, member.Status,
		member.ShiftsThisMonth, member.WeekendShifts, nullString(member.LastShiftDate), member.MaxShiftsPerMonth,
		pq.Array(member.UnavailableDates), pq.Array(member.ReservedDates),
		member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建人员失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取人员
func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff WHERE id = $1 AND deleted_at IS NULL`, staffColumns)

	member, err := scanStaff(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询人员失败: %w", err)
	}

	return member, nil
}

// GetStaff 实现预约模块的人员目录接口
func (r *StaffRepository) GetStaff(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	return r.GetByID(ctx, id)
}

// ListByHospital 获取医院的全部在岗人员
func (r *StaffRepository) ListByHospital(ctx context.Context, hospital string) ([]*model.StaffMember, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM staff
		WHERE hospital = $1 AND deleted_at IS NULL
		ORDER BY department, name
	`, staffColumns)

	rows, err := r.db.QueryContext(ctx, query, hospital)
	if err != nil {
		return nil, fmt.Errorf("查询人员列表失败: %w", err)
	}
	defer rows.Close()

	var members []*model.StaffMember
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("扫描行失败: %w", err)
		}
		members = append(members, member)
	}

	return members, nil
}

// Update 更新人员
func (r *StaffRepository) Update(ctx context.Context, member *model.StaffMember) error {
	member.UpdatedAt = time.Now()

	query := `
		UPDATE staff SET
			name = $2, hospital = $3, department = $4, role = $5, status = $6,
			shifts_this_month = $7, weekend_shifts = $8, last_shift_date = $9,
			max_shifts_per_month = $10, unavailable_dates = $11, reserved_dates = $12,
			updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		member.ID, member.Name, member.Hospital, member.Department, member.Role, member.Status,
		member.ShiftsThisMonth, member.WeekendShifts, nullString(member.LastShiftDate),
		member.MaxShiftsPerMonth, pq.Array(member.UnavailableDates), pq.Array(member.ReservedDates),
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新人员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}

	return nil
}

// Delete 软删除人员
func (r *StaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE staff SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除人员失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("人员不存在")
	}

	return nil
}

// List 按过滤器查询人员列表
func (r *StaffRepository) List(ctx context.Context, filter ListFilter) ([]*model.StaffMember, int, error) {
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
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM staff WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM staff
		WHERE %s
		ORDER BY department, name
		LIMIT $%d OFFSET $%d
	`, staffColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var members []*model.StaffMember
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("扫描行失败: %w", err)
		}
		members = append(members, member)
	}

	return members, total, nil
}
