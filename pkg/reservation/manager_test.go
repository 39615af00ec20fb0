package reservation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

// memStore 内存预约存储，按槽位键模拟存储层的原子抢占语义
type memStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Reservation
	slot map[string]uuid.UUID // hospital|department|shift_type|date -> 持有者预约ID
}

func newMemStore() *memStore {
	return &memStore{
		byID: make(map[uuid.UUID]*model.Reservation),
		slot: make(map[string]uuid.UUID),
	}
}

func slotKey(r *model.Reservation) string {
	return fmt.Sprintf("%s|%s|%s|%s", r.Hospital, r.Department, r.ShiftType, r.Date)
}

func (s *memStore) ClaimSlot(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := slotKey(r)
	if holder, ok := s.slot[key]; ok {
		if held := s.byID[holder]; held != nil && held.IsActive() {
			return errors.AlreadyTaken(r.Date, string(r.Department))
		}
	}
	cp := *r
	s.byID[r.ID] = &cp
	s.slot[key] = r.ID
	return nil
}

func (s *memStore) CountActive(ctx context.Context, hospital string, staffID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.byID {
		if r.StaffID == staffID && r.IsActive() {
			n++
		}
	}
	return n, nil
}

func (s *memStore) GetReservation(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) ReleaseIfActive(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok || !r.IsActive() {
		return false, nil
	}
	r.Status = model.ReservationCancelled
	return true, nil
}

func (s *memStore) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.byID {
		if r.IsActive() {
			n++
		}
	}
	return n
}

// memDirectory 内存人员目录
type memDirectory struct {
	staff map[uuid.UUID]*model.StaffMember
}

func (d *memDirectory) GetStaff(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	return d.staff[id], nil
}

// countNotifier 统计事件次数的通知器
type countNotifier struct {
	claimed   int
	cancelled int
}

func (n *countNotifier) ReservationClaimed(ctx context.Context, r *model.Reservation)   { n.claimed++ }
func (n *countNotifier) ReservationCancelled(ctx context.Context, r *model.Reservation) { n.cancelled++ }

func newTestStaff(name, dept string) *model.StaffMember {
	return &model.StaffMember{
		BaseModel:  model.NewBaseModel(),
		Name:       name,
		Hospital:   "spital-a",
		Department: dept,
		Status:     "active",
	}
}

// fixedClock 固定"今天"为 2025-08-01，保证测试不随运行时间漂移
func fixedClock() time.Time {
	return time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
}

func newTestManager(store *memStore, dir *memDirectory, notifier Notifier) *Manager {
	m := NewManager(store, dir, nil, notifier, nil)
	m.now = fixedClock
	return m
}

func TestReserve_Success(t *testing.T) {
	store := newMemStore()
	staff := newTestStaff("张三", "ATI")
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{staff.ID: staff}}
	notifier := &countNotifier{}
	m := newTestManager(store, dir, notifier)

	r, err := m.Reserve(context.Background(), "spital-a", staff.ID, "2025-08-14", "ATI", "")
	if err != nil {
		t.Fatalf("预约失败: %v", err)
	}
	if r.Department != model.DeptICU {
		t.Errorf("科室应归一化为 icu，实际 %s", r.Department)
	}
	if r.ShiftType != model.DefaultShiftType {
		t.Errorf("未指定班型时应使用默认值，实际 %s", r.ShiftType)
	}
	if !r.IsActive() {
		t.Error("新预约应为 active 状态")
	}
	if notifier.claimed != 1 {
		t.Errorf("应发出 1 次认领通知，实际 %d", notifier.claimed)
	}
}

func TestReserve_ContentionOnlyOneWins(t *testing.T) {
	store := newMemStore()
	staffA := newTestStaff("张三", "ATI")
	staffB := newTestStaff("李四", "ATI")
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{
		staffA.ID: staffA,
		staffB.ID: staffB,
	}}
	m := newTestManager(store, dir, nil)

	if _, err := m.Reserve(context.Background(), "spital-a", staffA.ID, "2025-08-14", "ATI", ""); err != nil {
		t.Fatalf("首次认领应成功: %v", err)
	}

	_, err := m.Reserve(context.Background(), "spital-a", staffB.ID, "2025-08-14", "ATI", "")
	if !errors.Is(err, errors.CodeAlreadyTaken) {
		t.Fatalf("同槽位二次认领应返回 ALREADY_TAKEN，实际 %v", err)
	}

	if got := store.activeCount(); got != 1 {
		t.Errorf("竞争后应只有 1 条有效预约，实际 %d", got)
	}
}

func TestReserve_DateWindow(t *testing.T) {
	store := newMemStore()
	staff := newTestStaff("张三", "ATI")
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{staff.ID: staff}}
	m := newTestManager(store, dir, nil)

	cases := []struct {
		name string
		date string
	}{
		{"过去日期", "2025-07-20"},
		{"当天", "2025-08-01"},
		{"超出窗口", "2025-10-15"}, // 距 2025-08-01 已超 60 天
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Reserve(context.Background(), "spital-a", staff.ID, tc.date, "ATI", "")
			if !errors.Is(err, errors.CodeDeadlineLocked) {
				t.Errorf("应返回 DEADLINE_LOCKED，实际 %v", err)
			}
		})
	}

	_, err := m.Reserve(context.Background(), "spital-a", staff.ID, "08/14/2025", "ATI", "")
	if !errors.Is(err, errors.CodeInvalidInput) {
		t.Errorf("非法日期格式应返回 INVALID_INPUT，实际 %v", err)
	}
}

func TestReserve_UnknownDepartment(t *testing.T) {
	store := newMemStore()
	staff := newTestStaff("张三", "ATI")
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{staff.ID: staff}}
	m := newTestManager(store, dir, nil)

	_, err := m.Reserve(context.Background(), "spital-a", staff.ID, "2025-08-14", "Cardiologie", "")
	if !errors.Is(err, errors.CodeUnknownDepartment) {
		t.Errorf("无法识别的科室应返回 UNKNOWN_DEPARTMENT，实际 %v", err)
	}
}

func TestReserve_WrongDepartment(t *testing.T) {
	store := newMemStore()
	staff := newTestStaff("张三", "Laborator")
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{staff.ID: staff}}
	m := newTestManager(store, dir, nil)

	_, err := m.Reserve(context.Background(), "spital-a", staff.ID, "2025-08-14", "ATI", "")
	if !errors.Is(err, errors.CodeWrongDepartment) {
		t.Errorf("跨科室预约应返回 WRONG_DEPARTMENT，实际 %v", err)
	}
}

func TestReserve_LimitExceeded(t *testing.T) {
	store := newMemStore()
	staff := newTestStaff("张三", "ATI")
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{staff.ID: staff}}
	m := newTestManager(store, dir, nil)

	for _, date := range []string{"2025-08-10", "2025-08-12", "2025-08-14"} {
		if _, err := m.Reserve(context.Background(), "spital-a", staff.ID, date, "ATI", ""); err != nil {
			t.Fatalf("前 3 次预约应成功: %v", err)
		}
	}

	_, err := m.Reserve(context.Background(), "spital-a", staff.ID, "2025-08-16", "ATI", "")
	if !errors.Is(err, errors.CodeLimitExceeded) {
		t.Fatalf("第 4 次预约应返回 LIMIT_EXCEEDED，实际 %v", err)
	}

	// 取消一条后应恢复可预约
	var anyID uuid.UUID
	for id := range store.byID {
		anyID = id
		break
	}
	if err := m.Cancel(context.Background(), "spital-a", staff.ID, anyID); err != nil {
		t.Fatalf("取消失败: %v", err)
	}
	if _, err := m.Reserve(context.Background(), "spital-a", staff.ID, "2025-08-16", "ATI", ""); err != nil {
		t.Errorf("取消后应可继续预约: %v", err)
	}
}

func TestReserve_UnavailableDate(t *testing.T) {
	store := newMemStore()
	staff := newTestStaff("张三", "ATI")
	staff.UnavailableDates = []string{"2025-08-14"}
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{staff.ID: staff}}
	m := newTestManager(store, dir, nil)

	_, err := m.Reserve(context.Background(), "spital-a", staff.ID, "2025-08-14", "ATI", "")
	if !errors.Is(err, errors.CodeDeadlineLocked) {
		t.Errorf("已登记不可用的日期应拒绝预约，实际 %v", err)
	}
}

func TestReserve_StaffNotFound(t *testing.T) {
	store := newMemStore()
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{}}
	m := newTestManager(store, dir, nil)

	_, err := m.Reserve(context.Background(), "spital-a", uuid.New(), "2025-08-14", "ATI", "")
	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("未知人员应返回 NOT_FOUND，实际 %v", err)
	}
}

func TestCancel(t *testing.T) {
	store := newMemStore()
	staffA := newTestStaff("张三", "ATI")
	staffB := newTestStaff("李四", "ATI")
	dir := &memDirectory{staff: map[uuid.UUID]*model.StaffMember{
		staffA.ID: staffA,
		staffB.ID: staffB,
	}}
	notifier := &countNotifier{}
	m := newTestManager(store, dir, notifier)

	r, err := m.Reserve(context.Background(), "spital-a", staffA.ID, "2025-08-14", "ATI", "")
	if err != nil {
		t.Fatalf("预约失败: %v", err)
	}

	// 非本人取消
	if err := m.Cancel(context.Background(), "spital-a", staffB.ID, r.ID); !errors.Is(err, errors.CodeNotOwner) {
		t.Errorf("他人取消应返回 NOT_OWNER，实际 %v", err)
	}

	// 本人取消
	if err := m.Cancel(context.Background(), "spital-a", staffA.ID, r.ID); err != nil {
		t.Fatalf("本人取消应成功: %v", err)
	}
	if notifier.cancelled != 1 {
		t.Errorf("应发出 1 次取消通知，实际 %d", notifier.cancelled)
	}

	// 重复取消
	if err := m.Cancel(context.Background(), "spital-a", staffA.ID, r.ID); !errors.Is(err, errors.CodeInvalidInput) {
		t.Errorf("重复取消应返回 INVALID_INPUT，实际 %v", err)
	}

	// 不存在的预约
	if err := m.Cancel(context.Background(), "spital-a", staffA.ID, uuid.New()); !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("不存在的预约应返回 NOT_FOUND，实际 %v", err)
	}

	// 取消后槽位可被他人认领
	if _, err := m.Reserve(context.Background(), "spital-a", staffB.ID, "2025-08-14", "ATI", ""); err != nil {
		t.Errorf("槽位释放后应可重新认领: %v", err)
	}
}
