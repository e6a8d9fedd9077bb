package migrate

// DefaultDirectives 当前全部 schema 指令，按依赖顺序排列：
// 建表 → 补列 → 索引 → 数据修复 → 类型收敛
// 全部可重放；历史上手写 SQL 迁移脚本攒了五个互不兼容的版本，
// 这里收敛成一份声明式列表，新列只能往后追加
func DefaultDirectives() []Directive {
	return []Directive{
		{
			Name: "create table branches",
			Statement: `CREATE TABLE IF NOT EXISTS branches (
				branch_id   BIGSERIAL PRIMARY KEY,
				branch_name TEXT NOT NULL UNIQUE,
				address     TEXT,
				latitude    DOUBLE PRECISION,
				longitude   DOUBLE PRECISION,
				radius      DOUBLE PRECISION NOT NULL DEFAULT 100,
				phone       TEXT,
				city        TEXT
			)`,
		},
		{
			Name: "create table employees",
			Statement: `CREATE TABLE IF NOT EXISTS employees (
				employee_id     BIGSERIAL PRIMARY KEY,
				employee_number TEXT NOT NULL UNIQUE,
				first_name      TEXT NOT NULL,
				last_name       TEXT NOT NULL,
				email           TEXT,
				phone           TEXT,
				position        TEXT,
				department      TEXT,
				is_active       BOOLEAN NOT NULL DEFAULT TRUE,
				branch_id       BIGINT REFERENCES branches(branch_id)
			)`,
		},
		{
			Name: "create table attendances",
			Statement: `CREATE TABLE IF NOT EXISTS attendances (
				attendance_id BIGSERIAL PRIMARY KEY,
				employee_id   BIGINT NOT NULL REFERENCES employees(employee_id),
				branch_id     BIGINT NOT NULL REFERENCES branches(branch_id),
				ts            TIMESTAMP NOT NULL,
				type          TEXT NOT NULL,
				status        TEXT
			)`,
		},

		// -- 补列（老库升级路径；新库也走一遍，结果一致） --
		{
			Name:      "add branches.code",
			Statement: `ALTER TABLE branches ADD COLUMN IF NOT EXISTS code TEXT`,
		},
		{
			// 历史上 work_schedule 是自由文本（"09:00 - 18:00"），先按 TEXT 补列，
			// 由下面的 cleanup + coercion 收敛成 JSONB
			Name:      "add employees.work_schedule",
			Statement: `ALTER TABLE employees ADD COLUMN IF NOT EXISTS work_schedule TEXT`,
		},
		{
			Name:      "add employees.face_embedding",
			Statement: `ALTER TABLE employees ADD COLUMN IF NOT EXISTS face_embedding DOUBLE PRECISION[]`,
		},
		{
			Name:      "add employees.created_at",
			Statement: `ALTER TABLE employees ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ DEFAULT now()`,
		},
		{
			Name:      "add employees.updated_at",
			Statement: `ALTER TABLE employees ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ DEFAULT now()`,
		},
		{
			Name:      "add attendances.confidence_score",
			Statement: `ALTER TABLE attendances ADD COLUMN IF NOT EXISTS confidence_score DOUBLE PRECISION`,
		},
		{
			Name:      "add attendances.biometric_verified",
			Statement: `ALTER TABLE attendances ADD COLUMN IF NOT EXISTS biometric_verified BOOLEAN NOT NULL DEFAULT FALSE`,
		},

		// -- 去重键唯一索引：并发重复提交的最终兜底 --
		{
			Name: "create attendance dedup index",
			Statement: `CREATE UNIQUE INDEX IF NOT EXISTS uq_attendances_dedup
				ON attendances (employee_id, ts, type)`,
		},

		// -- work_schedule TEXT → JSONB --
		// cleanup 是有损的数据修复：把结构上不可能是 JSON 对象/数组的值清空，
		// 让后面的类型转换能成功。清掉多少行只在日志里体现
		{
			Name: "null out malformed work_schedule values",
			Statement: `UPDATE employees SET work_schedule = NULL
				WHERE work_schedule IS NOT NULL
				  AND left(ltrim(work_schedule), 1) NOT IN ('{', '[')`,
			When: workScheduleNeedsCoercion,
		},
		{
			Name: "coerce employees.work_schedule to jsonb",
			Statement: `ALTER TABLE employees
				ALTER COLUMN work_schedule TYPE JSONB USING work_schedule::jsonb`,
			When: workScheduleNeedsCoercion,
		},
	}
}
