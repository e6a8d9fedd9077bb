package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"biometrico-data/internal/store"
)

// SyncLastRunKey 最近一次对账结果在 KV 里的键
const SyncLastRunKey = "sync:last_run"

// SyncReport 一次对账的结果汇总
type SyncReport struct {
	RunID            string    `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	BranchesSynced   int       `json:"branches_synced"`
	BranchesFailed   int       `json:"branches_failed"`
	EmployeesSynced  int       `json:"employees_synced"`
	EmployeesFailed  int       `json:"employees_failed"`
	EmployeesSkipped int       `json:"employees_skipped"` // 分支名映射不上，显式失败而不是乱派
	Errors           []string  `json:"errors,omitempty"`
}

// SyncService 云端→本地 对账（Reconciler）
// 两个实例各有独立的主键空间，跨实例身份只能靠自然键：
// 分支按名字、员工按工号。每轮无状态，建立在 upsert 上所以重跑收敛。
// 远端慢或不可达只影响本轮对账，不影响本地打卡（独立调度，不在请求路径上）
type SyncService struct {
	remote    *RegistryClient
	branches  *BranchService
	employees *EmployeeService
	kv        store.KV // 可为 nil（未配置 Redis 时只打日志）
	logger    *zap.Logger
}

// NewSyncService 创建对账服务
func NewSyncService(
	remote *RegistryClient,
	branches *BranchService,
	employees *EmployeeService,
	kv store.KV,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{remote: remote, branches: branches, employees: employees, kv: kv, logger: logger}
}

// Run 执行一轮对账：先分支后员工
// 单个实体失败记入报告并继续，不中断批次
func (s *SyncService) Run(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	s.logger.Info("Starting registry sync", zap.String("run_id", report.RunID))

	remoteBranches, err := s.remote.FetchBranches()
	if err != nil {
		// 连分支列表都拿不到就没法继续；这是整轮唯一的致命错误
		return nil, err
	}

	// 分支轮：远端 id 丢弃，本地按名字 upsert
	// 顺手建 远端id→名字 映射，员工轮重映射分支要用
	remoteIDToName := make(map[int64]string, len(remoteBranches))
	for _, rb := range remoteBranches {
		remoteIDToName[rb.ID] = rb.Name
		_, _, err := s.branches.UpsertBranch(ctx, BranchInput{
			Name:      rb.Name,
			Address:   rb.Address,
			Latitude:  rb.Latitude,
			Longitude: rb.Longitude,
			Radius:    rb.Radius,
			Phone:     rb.Phone,
			City:      rb.City,
			Code:      rb.Code,
		})
		if err != nil {
			report.BranchesFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("branch %q: %v", rb.Name, err))
			s.logger.Error("Failed to sync branch", zap.String("name", rb.Name), zap.Error(err))
			continue
		}
		report.BranchesSynced++
	}

	// 分支轮之后列一遍本地，建 名字→本地id 映射
	localBranches, err := s.branches.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local branches after branch pass: %w", err)
	}
	nameToLocalID := make(map[string]int64, len(localBranches))
	for _, lb := range localBranches {
		nameToLocalID[lb.BranchName] = lb.BranchID
	}

	remoteEmployees, err := s.remote.FetchEmployees()
	if err != nil {
		// 员工轮整个没跑：错误也要落进报告，不然 KV 里只看到 0
		report.Errors = append(report.Errors, fmt.Sprintf("employee fetch: %v", err))
		s.finish(ctx, report)
		return report, err
	}

	// 员工轮：远端 branch_id → 名字 → 本地 id
	// 映射不上就跳过并记错，绝不退回"随便派个分支"
	for _, re := range remoteEmployees {
		localBranchID, ok := s.resolveLocalBranch(re, remoteIDToName, nameToLocalID)
		if !ok {
			report.EmployeesSkipped++
			report.Errors = append(report.Errors,
				fmt.Sprintf("employee %q: no reliable local branch mapping", re.EmployeeNumber))
			s.logger.Error("Cannot resolve local branch for employee, skipping",
				zap.String("employee_number", re.EmployeeNumber),
			)
			continue
		}

		_, _, err := s.employees.UpsertEmployee(ctx, EmployeeInput{
			EmployeeNumber: re.EmployeeNumber,
			FirstName:      &re.FirstName,
			LastName:       &re.LastName,
			Email:          re.Email,
			Phone:          re.Phone,
			Position:       re.Position,
			Department:     re.Department,
			WorkSchedule:   re.WorkSchedule,
			IsActive:       &re.IsActive,
			FaceEmbedding:  re.FaceEmbedding,
			BranchID:       &localBranchID,
		})
		if err != nil {
			report.EmployeesFailed++
			report.Errors = append(report.Errors, fmt.Sprintf("employee %q: %v", re.EmployeeNumber, err))
			s.logger.Error("Failed to sync employee",
				zap.String("employee_number", re.EmployeeNumber),
				zap.Error(err),
			)
			continue
		}
		report.EmployeesSynced++
	}

	s.finish(ctx, report)
	return report, nil
}

// resolveLocalBranch 远端员工 → 本地分支 id（经名字重映射）
func (s *SyncService) resolveLocalBranch(re RemoteEmployee, remoteIDToName map[int64]string, nameToLocalID map[string]int64) (int64, bool) {
	if re.BranchID == nil {
		return 0, false
	}
	name, ok := remoteIDToName[*re.BranchID]
	if !ok {
		return 0, false
	}
	localID, ok := nameToLocalID[name]
	return localID, ok
}

func (s *SyncService) finish(ctx context.Context, report *SyncReport) {
	report.FinishedAt = time.Now()
	s.logger.Info("Registry sync finished",
		zap.String("run_id", report.RunID),
		zap.Int("branches_synced", report.BranchesSynced),
		zap.Int("branches_failed", report.BranchesFailed),
		zap.Int("employees_synced", report.EmployeesSynced),
		zap.Int("employees_failed", report.EmployeesFailed),
		zap.Int("employees_skipped", report.EmployeesSkipped),
	)

	if s.kv == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, SyncLastRunKey, string(payload), 0); err != nil {
		s.logger.Warn("Failed to store sync report in KV", zap.Error(err))
	}
}
