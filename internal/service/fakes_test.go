package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"biometrico-data/internal/domain"
	"biometrico-data/internal/repository"
)

// 内存版 repository 假实现，service 层测试共用

type fakeBranchesRepo struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]domain.Branch
	// createHook 非 nil 时在 CreateBranch 前调用一次（模拟并发撞名等）
	createHook func(*domain.Branch) error
}

func newFakeBranchesRepo() *fakeBranchesRepo {
	return &fakeBranchesRepo{rows: make(map[int64]domain.Branch)}
}

var _ repository.BranchesRepository = (*fakeBranchesRepo)(nil)

func (f *fakeBranchesRepo) GetBranch(_ context.Context, branchID int64) (*domain.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[branchID]
	if !ok {
		return nil, fmt.Errorf("branch %d: %w", branchID, domain.ErrBranchNotFound)
	}
	return &b, nil
}

func (f *fakeBranchesRepo) GetBranchByName(_ context.Context, name string) (*domain.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.rows {
		if b.BranchName == name {
			b := b
			return &b, nil
		}
	}
	return nil, fmt.Errorf("branch %q: %w", name, domain.ErrBranchNotFound)
}

func (f *fakeBranchesRepo) ListBranches(_ context.Context) ([]*domain.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Branch, 0, len(f.rows))
	for id := range f.rows {
		b := f.rows[id]
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BranchName < out[j].BranchName })
	return out, nil
}

func (f *fakeBranchesRepo) CreateBranch(_ context.Context, branch *domain.Branch) (int64, error) {
	if f.createHook != nil {
		hook := f.createHook
		f.createHook = nil
		if err := hook(branch); err != nil {
			return 0, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.rows {
		if b.BranchName == branch.BranchName {
			return 0, fmt.Errorf("branch %q already exists: %w", branch.BranchName, domain.ErrConflict)
		}
	}
	f.seq++
	branch.BranchID = f.seq
	f.rows[f.seq] = *branch
	return f.seq, nil
}

func (f *fakeBranchesRepo) UpdateBranch(_ context.Context, branch *domain.Branch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[branch.BranchID]; !ok {
		return fmt.Errorf("branch %d: %w", branch.BranchID, domain.ErrBranchNotFound)
	}
	f.rows[branch.BranchID] = *branch
	return nil
}

func (f *fakeBranchesRepo) DeleteBranch(_ context.Context, branchID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[branchID]; !ok {
		return fmt.Errorf("branch %d: %w", branchID, domain.ErrBranchNotFound)
	}
	delete(f.rows, branchID)
	return nil
}

type fakeEmployeesRepo struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]domain.Employee
}

func newFakeEmployeesRepo() *fakeEmployeesRepo {
	return &fakeEmployeesRepo{rows: make(map[int64]domain.Employee)}
}

var _ repository.EmployeesRepository = (*fakeEmployeesRepo)(nil)

func (f *fakeEmployeesRepo) GetEmployee(_ context.Context, employeeID int64) (*domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[employeeID]
	if !ok {
		return nil, fmt.Errorf("employee %d: %w", employeeID, domain.ErrEmployeeNotFound)
	}
	return &e, nil
}

func (f *fakeEmployeesRepo) GetEmployeeByNumber(_ context.Context, employeeNumber string) (*domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.EmployeeNumber == employeeNumber {
			e := e
			return &e, nil
		}
	}
	return nil, fmt.Errorf("employee %q: %w", employeeNumber, domain.ErrEmployeeNotFound)
}

func (f *fakeEmployeesRepo) ListEmployees(_ context.Context, branchID *int64) ([]*domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Employee, 0, len(f.rows))
	for id := range f.rows {
		e := f.rows[id]
		if branchID != nil && (!e.BranchID.Valid || e.BranchID.Int64 != *branchID) {
			continue
		}
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeNumber < out[j].EmployeeNumber })
	return out, nil
}

func (f *fakeEmployeesRepo) CreateEmployee(_ context.Context, emp *domain.Employee) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.EmployeeNumber == emp.EmployeeNumber {
			return 0, fmt.Errorf("employee_number %q already exists: %w", emp.EmployeeNumber, domain.ErrConflict)
		}
	}
	f.seq++
	emp.EmployeeID = f.seq
	f.rows[f.seq] = *emp
	return f.seq, nil
}

func (f *fakeEmployeesRepo) UpdateEmployee(_ context.Context, emp *domain.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[emp.EmployeeID]; !ok {
		return fmt.Errorf("employee %d: %w", emp.EmployeeID, domain.ErrEmployeeNotFound)
	}
	f.rows[emp.EmployeeID] = *emp
	return nil
}

func (f *fakeEmployeesRepo) DeleteEmployee(_ context.Context, employeeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[employeeID]; !ok {
		return fmt.Errorf("employee %d: %w", employeeID, domain.ErrEmployeeNotFound)
	}
	delete(f.rows, employeeID)
	return nil
}

func (f *fakeEmployeesRepo) CountByBranch(_ context.Context, branchID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.rows {
		if e.BranchID.Valid && e.BranchID.Int64 == branchID {
			count++
		}
	}
	return count, nil
}

type fakeAttendanceRepo struct {
	mu   sync.Mutex
	seq  int64
	rows []domain.Attendance
	// createHook 非 nil 时在 CreateAttendance 的去重检查前调用一次
	createHook func(*domain.Attendance) error
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{}
}

var _ repository.AttendanceRepository = (*fakeAttendanceRepo)(nil)

func (f *fakeAttendanceRepo) FindByDedupKey(_ context.Context, employeeID int64, ts time.Time, typ string) (*domain.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		r := f.rows[i]
		if r.EmployeeID == employeeID && r.Timestamp.Equal(ts) && r.Type == typ {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("attendance (%d, %s, %s): %w",
		employeeID, ts.Format(domain.TimestampLayout), typ, domain.ErrAttendanceNotFound)
}

func (f *fakeAttendanceRepo) CreateAttendance(_ context.Context, att *domain.Attendance) (int64, error) {
	if f.createHook != nil {
		hook := f.createHook
		f.createHook = nil
		if err := hook(att); err != nil {
			return 0, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.EmployeeID == att.EmployeeID && r.Timestamp.Equal(att.Timestamp) && r.Type == att.Type {
			return 0, fmt.Errorf("duplicate attendance for employee %d: %w", att.EmployeeID, domain.ErrConflict)
		}
	}
	f.seq++
	att.AttendanceID = f.seq
	f.rows = append(f.rows, *att)
	return f.seq, nil
}

func (f *fakeAttendanceRepo) ListAttendance(_ context.Context, filter repository.AttendanceFilter) ([]*domain.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Attendance, 0, len(f.rows))
	for i := range f.rows {
		r := f.rows[i]
		if filter.BranchID != nil && r.BranchID != *filter.BranchID {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Date != nil {
			y1, m1, d1 := r.Timestamp.Date()
			y2, m2, d2 := filter.Date.Date()
			if y1 != y2 || m1 != m2 || d1 != d2 {
				continue
			}
		}
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (f *fakeAttendanceRepo) CountByEmployee(_ context.Context, employeeID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.rows {
		if r.EmployeeID == employeeID {
			count++
		}
	}
	return count, nil
}

func (f *fakeAttendanceRepo) DeleteAll(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.rows))
	f.rows = nil
	return n, nil
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string]string)} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", fmt.Errorf("cache miss")
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}
