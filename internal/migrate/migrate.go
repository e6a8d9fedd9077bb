package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Directive 一条幂等的 schema 变更指令
// 每条独立执行、独立提交：失败只记 warning，不影响后续指令，也不向调用方抛错
type Directive struct {
	Name      string
	Statement string
	// When 非 nil 时先求值；返回 false 则跳过该指令（如列已是目标类型）
	When func(ctx context.Context, db *sql.DB) (bool, string)
}

// Runner 按序执行指令列表，把所有结果累积成日志返回
// 重复执行任意次都收敛到同一个最终 schema
type Runner struct {
	db         *sql.DB
	logger     *zap.Logger
	directives []Directive
}

// NewRunner 创建使用默认指令列表的 Runner
func NewRunner(db *sql.DB, logger *zap.Logger) *Runner {
	return &Runner{db: db, logger: logger, directives: DefaultDirectives()}
}

// NewRunnerWithDirectives 自定义指令列表（测试用）
func NewRunnerWithDirectives(db *sql.DB, logger *zap.Logger, directives []Directive) *Runner {
	return &Runner{db: db, logger: logger, directives: directives}
}

// Run 执行全部指令，返回按序的结果日志
// 永不向调用方返回 error：部分失败只能从日志里看出来，
// 调用方不能因为没抛错就认为全部成功
func (r *Runner) Run(ctx context.Context) []string {
	results := make([]string, 0, len(r.directives))
	for _, d := range r.directives {
		if d.When != nil {
			ok, reason := d.When(ctx, r.db)
			if !ok {
				msg := fmt.Sprintf("skipped: %s: %s", d.Name, reason)
				r.logger.Info("Migration directive skipped",
					zap.String("directive", d.Name),
					zap.String("reason", reason),
				)
				results = append(results, msg)
				continue
			}
		}

		if _, err := r.db.ExecContext(ctx, d.Statement); err != nil {
			msg := fmt.Sprintf("warning: %s: %v", d.Name, err)
			r.logger.Warn("Migration directive failed",
				zap.String("directive", d.Name),
				zap.Error(err),
			)
			results = append(results, msg)
			continue
		}

		r.logger.Info("Migration directive applied", zap.String("directive", d.Name))
		results = append(results, fmt.Sprintf("applied: %s", d.Name))
	}
	return results
}

// columnType 查询列当前类型；列不存在返回 ""
func columnType(ctx context.Context, db *sql.DB, table, column string) (string, error) {
	var dataType string
	err := db.QueryRowContext(ctx,
		`SELECT data_type FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`,
		table, column,
	).Scan(&dataType)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return dataType, nil
}

// workScheduleNeedsCoercion work_schedule 还不是 jsonb 时才执行 cleanup/coercion
// （表还不存在或查询失败也跳过，让前面的 createTable 指令负责报告原因）
func workScheduleNeedsCoercion(ctx context.Context, db *sql.DB) (bool, string) {
	dataType, err := columnType(ctx, db, "employees", "work_schedule")
	if err != nil {
		return false, fmt.Sprintf("cannot inspect column type: %v", err)
	}
	if dataType == "" {
		return false, "column does not exist"
	}
	if dataType == "jsonb" {
		return false, "already jsonb"
	}
	return true, ""
}
