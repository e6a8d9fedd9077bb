package domain

import (
	"database/sql"
)

// Branch 分支（门店/办公点）领域模型（对应 branches 表）
// branch_name 是自然键：跨实例对账时用名字匹配，不用主键
type Branch struct {
	BranchID   int64           `db:"branch_id"`
	BranchName string          `db:"branch_name"` // NOT NULL, UNIQUE
	Address    sql.NullString  `db:"address"`     // nullable
	Latitude   sql.NullFloat64 `db:"latitude"`    // nullable
	Longitude  sql.NullFloat64 `db:"longitude"`   // nullable
	Radius     float64         `db:"radius"`      // geofence 半径（米），default 100
	Phone      sql.NullString  `db:"phone"`       // nullable
	City       sql.NullString  `db:"city"`        // nullable
	Code       sql.NullString  `db:"code"`        // nullable, short code
}

// DefaultGeofenceRadius 默认打卡地理围栏半径（米）
const DefaultGeofenceRadius = 100.0

func (b Branch) ToJSON() map[string]any {
	m := map[string]any{
		"id":     b.BranchID,
		"name":   b.BranchName,
		"radius": b.Radius,
	}
	if b.Address.Valid {
		m["address"] = b.Address.String
	}
	if b.Latitude.Valid {
		m["latitude"] = b.Latitude.Float64
	}
	if b.Longitude.Valid {
		m["longitude"] = b.Longitude.Float64
	}
	if b.Phone.Valid {
		m["phone"] = b.Phone.String
	}
	if b.City.Valid {
		m["city"] = b.City.String
	}
	if b.Code.Valid {
		m["code"] = b.Code.String
	}
	return m
}
