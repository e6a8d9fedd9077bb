package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RemoteBranch 云端 registry 返回的分支
// 远端 id 只用来做 id→name 映射，落库前一律丢弃
type RemoteBranch struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius"`
	Phone     *string  `json:"phone"`
	City      *string  `json:"city"`
	Code      *string  `json:"code"`
}

// RemoteEmployee 云端 registry 返回的员工
type RemoteEmployee struct {
	ID             int64           `json:"id"`
	EmployeeNumber string          `json:"employee_number"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	Position       *string         `json:"position"`
	Department     *string         `json:"department"`
	WorkSchedule   json.RawMessage `json:"work_schedule"`
	IsActive       bool            `json:"is_active"`
	FaceEmbedding  []float64       `json:"face_embedding"`
	BranchID       *int64          `json:"branch_id"` // 远端 id 空间，必须经 name 重映射
}

// RegistryClient 云端 registry API 客户端
type RegistryClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewRegistryClient 创建云端 registry 客户端
func NewRegistryClient(baseURL string, timeout time.Duration, retryCount int, logger *zap.Logger) *RegistryClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &RegistryClient{httpClient: client, logger: logger}
}

// FetchBranches 拉取云端全部分支
func (c *RegistryClient) FetchBranches() ([]RemoteBranch, error) {
	var branches []RemoteBranch
	resp, err := c.httpClient.R().
		SetResult(&branches).
		Get("/api/v1/branches")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote branches: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("remote branches returned status %d", resp.StatusCode())
	}

	c.logger.Info("Fetched branches from remote registry", zap.Int("count", len(branches)))
	return branches, nil
}

// FetchEmployees 拉取云端全部员工
func (c *RegistryClient) FetchEmployees() ([]RemoteEmployee, error) {
	var employees []RemoteEmployee
	resp, err := c.httpClient.R().
		SetResult(&employees).
		Get("/api/v1/employees")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote employees: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("remote employees returned status %d", resp.StatusCode())
	}

	c.logger.Info("Fetched employees from remote registry", zap.Int("count", len(employees)))
	return employees, nil
}
