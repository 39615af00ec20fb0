// Package swap 提供换班申请与审批流程
//
// 状态机：pending → approved/rejected（仅管理者）、pending → cancelled
// （仅申请人），终态不可再变。并发审批由存储层条件更新裁决，本包保证
// 同一请求至多产生一次状态迁移。
package swap

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
)

// Store 换班存储接口
//
// UpdateStatusIfPending 与 ReassignShift 必须是条件更新：
// 前者仅当请求仍为 pending 时迁移状态，后者仅当班次仍由 from 持有时改派。
// 两者均以返回值报告条件是否命中，而不是报错。
type Store interface {
	CreateSwap(ctx context.Context, sw *model.SwapRequest) error
	GetSwap(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	GetShift(ctx context.Context, id uuid.UUID) (*model.Shift, error)
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, to model.SwapStatus, reviewedBy *uuid.UUID, note string) (bool, error)
	ReassignShift(ctx context.Context, shiftID, from, to uuid.UUID, toName string) (bool, error)
	// GetStaffName 查询人员姓名，查不到时返回空串而不是报错
	GetStaffName(ctx context.Context, id uuid.UUID) (string, error)
}

// Notifier 换班事件通知接口
type Notifier interface {
	SwapRequested(ctx context.Context, sw *model.SwapRequest)
	SwapDecided(ctx context.Context, sw *model.SwapRequest)
}

// NopNotifier 空通知器
type NopNotifier struct{}

func (NopNotifier) SwapRequested(ctx context.Context, sw *model.SwapRequest) {}
func (NopNotifier) SwapDecided(ctx context.Context, sw *model.SwapRequest)  {}

// Service 换班服务
type Service struct {
	store    Store
	notifier Notifier
	log      *logger.RosterLogger
	now      func() time.Time
}

// NewService 创建换班服务
func NewService(store Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:    store,
		notifier: notifier,
		log:      logger.NewRosterLogger(),
		now:      time.Now,
	}
}

// Create 发起换班请求
//
// 申请人必须是班次当前持有人；toStaff 为空表示开放式换班，
// 由审批人在批准时指定接班人。
func (s *Service) Create(ctx context.Context, hospital string, requester uuid.UUID, shiftID uuid.UUID, toStaff *uuid.UUID, reason string) (*model.SwapRequest, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil || (hospital != "" && shift.Hospital != "" && shift.Hospital != hospital) {
		return nil, errors.NotFound("班次", shiftID.String())
	}
	if !shift.IsTaken() || !shift.BelongsTo(requester) {
		return nil, errors.NotShiftHolder(requester.String(), shiftID.String())
	}
	if toStaff != nil && *toStaff == requester {
		return nil, errors.InvalidInput("to_staff_id", "接班人不能是申请人本人")
	}

	sw := &model.SwapRequest{
		BaseModel:   model.NewBaseModel(),
		Hospital:    hospital,
		ShiftID:     shiftID,
		FromStaffID: requester,
		ToStaffID:   toStaff,
		Reason:      reason,
		Status:      model.SwapPending,
	}
	if err := s.store.CreateSwap(ctx, sw); err != nil {
		return nil, err
	}

	s.notifier.SwapRequested(ctx, sw)
	return sw, nil
}

// Decide 审批换班请求（批准或拒绝）
//
// 同一请求的并发审批只有一个能命中 pending 条件，其余返回 NOT_PENDING。
// 批准且已指定接班人时，随后执行班次改派。审批结论一旦落库即发出通知，
// 改派失败不撤销结论，也不吞掉通知。
func (s *Service) Decide(ctx context.Context, hospital string, reviewer model.Actor, swapID uuid.UUID, approve bool, note string) (*model.SwapRequest, error) {
	if !reviewer.Role.CanReviewSwap() {
		return nil, errors.NotAuthorized("审批换班请求")
	}

	sw, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if sw == nil || (hospital != "" && sw.Hospital != "" && sw.Hospital != hospital) {
		return nil, errors.NotFound("换班请求", swapID.String())
	}

	target := model.SwapRejected
	if approve {
		target = model.SwapApproved
	}
	moved, err := s.store.UpdateStatusIfPending(ctx, swapID, target, &reviewer.ID, note)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, errors.NotPending(swapID.String())
	}

	now := s.now()
	sw.Status = target
	sw.ReviewedBy = &reviewer.ID
	sw.ReviewedAt = &now
	sw.ReviewNote = note
	s.log.SwapDecided(swapID.String(), reviewer.ID.String(), string(target))
	s.notifier.SwapDecided(ctx, sw)

	if approve {
		if err := s.applyDecision(ctx, sw); err != nil {
			return nil, err
		}
	}
	return sw, nil
}

// applyDecision 将批准结果落到班次上
//
// 开放式换班（未指定接班人）批准后不改派，等待后续人工指派。
// 班次在审批间隙已易主时返回排班冲突而不是覆盖。
func (s *Service) applyDecision(ctx context.Context, sw *model.SwapRequest) error {
	if sw.IsOpenOffer() {
		return nil
	}
	shift, err := s.store.GetShift(ctx, sw.ShiftID)
	if err != nil {
		return err
	}
	if shift == nil {
		return errors.NotFound("班次", sw.ShiftID.String())
	}

	toName, err := s.store.GetStaffName(ctx, *sw.ToStaffID)
	if err != nil {
		return err
	}

	reassigned, err := s.store.ReassignShift(ctx, sw.ShiftID, sw.FromStaffID, *sw.ToStaffID, toName)
	if err != nil {
		return err
	}
	if !reassigned {
		return errors.ScheduleConflict(sw.FromStaffID.String(), shift.Date, "班次已不再由申请人持有")
	}
	return nil
}

// Cancel 申请人撤回换班请求
func (s *Service) Cancel(ctx context.Context, hospital string, requester uuid.UUID, swapID uuid.UUID) error {
	sw, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return err
	}
	if sw == nil || (hospital != "" && sw.Hospital != "" && sw.Hospital != hospital) {
		return errors.NotFound("换班请求", swapID.String())
	}
	if sw.FromStaffID != requester {
		return errors.NotOwner("换班请求")
	}

	moved, err := s.store.UpdateStatusIfPending(ctx, swapID, model.SwapCancelled, nil, "")
	if err != nil {
		return err
	}
	if !moved {
		return errors.NotPending(swapID.String())
	}
	return nil
}
