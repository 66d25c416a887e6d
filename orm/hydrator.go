package orm

import (
	"context"

	"github.com/startdusk/midgard/orm/internal/errs"
	"github.com/startdusk/midgard/orm/model"
)

// Hydrator 把查询结果转成实体, 并按预加载指令批量加载关联
// 每个关联每次调用只查一次, 和实体数量无关
type Hydrator struct {
	sess Session
}

func NewHydrator(sess Session) *Hydrator {
	return &Hydrator{sess: sess}
}

func (h *Hydrator) Hydrate(ctx context.Context, m *model.Model, rows []Result, includes Includes) (*Collection, error) {
	if err := validateIncludes(m, includes); err != nil {
		return nil, err
	}
	entities := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, newEntityFromRow(m, row))
	}
	if err := h.load(ctx, m, entities, includes); err != nil {
		return nil, err
	}
	return NewResultSet(entities...), nil
}

// Load 给已经有的实体补充加载关联, 实体必须属于同一个模型
func (h *Hydrator) Load(ctx context.Context, c *Collection, includes Includes) error {
	if c.Len() == 0 {
		return nil
	}
	m := c.At(0).model
	if err := validateIncludes(m, includes); err != nil {
		return err
	}
	return h.load(ctx, m, c.Items(), includes)
}

func (h *Hydrator) load(ctx context.Context, m *model.Model, entities []*Entity, includes Includes) error {
	// 空的批次不查关联
	if len(entities) == 0 || len(includes) == 0 {
		return nil
	}
	nodes, err := partition(includes)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		rel, err := m.Relation(node.name)
		if err != nil {
			return err
		}
		resolver, ok := resolvers[rel.Kind]
		if !ok {
			return errs.NewErrUnknownRelation(m.TableName, node.name)
		}
		if err := resolver.eagerLoad(ctx, h, entities, rel, node.constraints, node.forward); err != nil {
			return err
		}
	}
	return nil
}
