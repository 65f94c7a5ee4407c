package logic

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockForUpdate 对查询加行级排他锁，串行化同一话题上的并发变更
// sqlite 是单写者引擎且不支持 FOR UPDATE 语法，测试环境下跳过
func LockForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
