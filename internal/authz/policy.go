package authz

import (
	"github.com/jaylenmareko/topic-funding-sub000/internal/model"
)

// Policy 话题管理操作的授权策略
// 核心逻辑不持有任何特权用户清单，授权判断全部由注入的策略决定
type Policy interface {
	CanManageTopic(actorId int64, topic *model.Topic) bool
}

// CreatorPolicy 仅话题创作者可操作
type CreatorPolicy struct{}

func (CreatorPolicy) CanManageTopic(actorId int64, topic *model.Topic) bool {
	return actorId != 0 && actorId == topic.CreatorId
}

// RolePolicy 基于角色查询的策略，例如运营后台的管理员
type RolePolicy struct {
	// HasRole 由接入方提供，查询操作者是否具备指定角色
	HasRole func(actorId int64, role string) bool
	Role    string
}

func (p RolePolicy) CanManageTopic(actorId int64, _ *model.Topic) bool {
	if p.HasRole == nil {
		return false
	}
	return p.HasRole(actorId, p.Role)
}

// AnyOf 任一策略放行即放行
func AnyOf(policies ...Policy) Policy {
	return anyOfPolicy(policies)
}

type anyOfPolicy []Policy

func (ps anyOfPolicy) CanManageTopic(actorId int64, topic *model.Topic) bool {
	for _, p := range ps {
		if p.CanManageTopic(actorId, topic) {
			return true
		}
	}
	return false
}
