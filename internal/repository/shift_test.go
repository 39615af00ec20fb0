package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestClaimOpenShift(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("创建 sqlmock 失败: %v", err)
	}
	defer db.Close()

	repo := NewShiftRepository(db)
	shiftID := uuid.New()
	staffID := uuid.New()

	// 条件命中：班次仍为 open
	mock.ExpectExec("UPDATE shifts").
		WithArgs(shiftID, staffID, "张三", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ClaimOpenShift(context.Background(), shiftID, staffID, "张三")
	if err != nil {
		t.Fatalf("认领失败: %v", err)
	}
	if !ok {
		t.Error("条件命中时应返回 true")
	}

	// 条件未命中：班次已被他人认领
	mock.ExpectExec("UPDATE shifts").
		WithArgs(shiftID, staffID, "张三", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.ClaimOpenShift(context.Background(), shiftID, staffID, "张三")
	if err != nil {
		t.Fatalf("条件未命中不应报错: %v", err)
	}
	if ok {
		t.Error("零行更新应返回 false")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("预期的SQL未全部执行: %v", err)
	}
}

func TestReassignShift(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("创建 sqlmock 失败: %v", err)
	}
	defer db.Close()

	repo := NewShiftRepository(db)
	shiftID := uuid.New()
	from := uuid.New()
	to := uuid.New()

	mock.ExpectExec("UPDATE shifts").
		WithArgs(shiftID, from, to, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ReassignShift(context.Background(), shiftID, from, to, "李四")
	if err != nil {
		t.Fatalf("改派失败: %v", err)
	}
	if !ok {
		t.Error("持有人匹配时应返回 true")
	}

	// 班次已易主
	mock.ExpectExec("UPDATE shifts").
		WithArgs(shiftID, from, to, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.ReassignShift(context.Background(), shiftID, from, to, "李四")
	if err != nil {
		t.Fatalf("条件未命中不应报错: %v", err)
	}
	if ok {
		t.Error("持有人不匹配时应返回 false")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("预期的SQL未全部执行: %v", err)
	}
}

func TestListByMonth(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("创建 sqlmock 失败: %v", err)
	}
	defer db.Close()

	repo := NewShiftRepository(db)
	staffID := uuid.New()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "hospital", "department", "date", "shift_type",
		"staff_id", "staff_name", "status", "created_at", "updated_at",
	}).
		AddRow(uuid.New(), "spital-a", "icu", "2025-08-01", "24h", staffID.String(), "张三", "assigned", now, now).
		AddRow(uuid.New(), "spital-a", "icu", "2025-08-02", "24h", nil, nil, "open", now, now)

	mock.ExpectQuery("SELECT (.+) FROM shifts").
		WithArgs("spital-a", "icu", "2025-08-01", "2025-08-31").
		WillReturnRows(rows)

	shifts, err := repo.ListByMonth(context.Background(), "spital-a", "icu", 2025, 8)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(shifts) != 2 {
		t.Fatalf("应返回 2 条班次，实际 %d", len(shifts))
	}
	if shifts[0].StaffID == nil || *shifts[0].StaffID != staffID {
		t.Error("已分配班次应带人员ID")
	}
	if shifts[1].StaffID != nil {
		t.Error("空缺班次的人员ID应为 nil")
	}
}
