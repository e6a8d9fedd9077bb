package domain

import (
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

// Employee 员工领域模型（对应 employees 表）
// employee_number 是自然键，全局唯一；branch_id 指向 branches
type Employee struct {
	EmployeeID     int64           `db:"employee_id"`
	EmployeeNumber string          `db:"employee_number"` // NOT NULL, UNIQUE
	FirstName      string          `db:"first_name"`      // NOT NULL
	LastName       string          `db:"last_name"`       // NOT NULL
	Email          sql.NullString  `db:"email"`           // nullable
	Phone          sql.NullString  `db:"phone"`           // nullable
	Position       sql.NullString  `db:"position"`        // nullable
	Department     sql.NullString  `db:"department"`      // nullable
	WorkSchedule   sql.NullString  `db:"work_schedule"`   // nullable, JSONB（如 {"start":"09:00","end":"18:00"}）
	IsActive       bool            `db:"is_active"`       // NOT NULL, default true
	FaceEmbedding  pq.Float64Array `db:"face_embedding"`  // nullable, DOUBLE PRECISION[]（由采集端提供，这里只存储）
	BranchID       sql.NullInt64   `db:"branch_id"`       // FK -> branches
	CreatedAt      sql.NullTime    `db:"created_at"`
	UpdatedAt      sql.NullTime    `db:"updated_at"`
}

func (e Employee) ToJSON() map[string]any {
	m := map[string]any{
		"id":              e.EmployeeID,
		"employee_number": e.EmployeeNumber,
		"first_name":      e.FirstName,
		"last_name":       e.LastName,
		"is_active":       e.IsActive,
	}
	if e.Email.Valid {
		m["email"] = e.Email.String
	}
	if e.Phone.Valid {
		m["phone"] = e.Phone.String
	}
	if e.Position.Valid {
		m["position"] = e.Position.String
	}
	if e.Department.Valid {
		m["department"] = e.Department.String
	}
	if e.WorkSchedule.Valid {
		// work_schedule 是 JSONB，尽量透传结构化值
		var ws any
		if err := json.Unmarshal([]byte(e.WorkSchedule.String), &ws); err == nil {
			m["work_schedule"] = ws
		} else {
			m["work_schedule"] = e.WorkSchedule.String
		}
	}
	if e.FaceEmbedding != nil {
		m["face_embedding"] = []float64(e.FaceEmbedding)
	}
	if e.BranchID.Valid {
		m["branch_id"] = e.BranchID.Int64
	}
	if e.CreatedAt.Valid {
		m["created_at"] = e.CreatedAt.Time
	}
	if e.UpdatedAt.Valid {
		m["updated_at"] = e.UpdatedAt.Time
	}
	return m
}
