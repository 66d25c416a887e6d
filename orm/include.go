package orm

import (
	"strings"

	"github.com/startdusk/midgard/orm/internal/errs"
	"github.com/startdusk/midgard/orm/model"
)

// Directive 一个预加载指令
// Path 是关联名, 可以用 . 表示嵌套, 如 orders.items
// Constrain 可选, 用来缩小关联查询的范围, 作用在路径的最后一段上
type Directive struct {
	Path      string
	Constrain func(q *Builder)
}

// Includes 有序的预加载指令
type Includes []Directive

func Include(paths ...string) Includes {
	res := make(Includes, 0, len(paths))
	for _, p := range paths {
		res = append(res, Directive{Path: p})
	}
	return res
}

// IncludeWith IncludeWith("posts", func(q *Builder) { q.Where("published", "=", true) })
// 约束里不能用 Limit 和 Offset, 只选部分列时关联需要的键会自动补上
func IncludeWith(path string, fn func(q *Builder)) Includes {
	return Includes{{Path: path, Constrain: fn}}
}

// With 追加一个带条件的指令
func (in Includes) With(path string, fn func(q *Builder)) Includes {
	return append(in, Directive{Path: path, Constrain: fn})
}

// includeNode 当前层级的一个关联
// constraints 作用在当前关联上, forward 转发给下一层
type includeNode struct {
	name        string
	constraints []func(q *Builder)
	forward     Includes
}

// partition 一次遍历把指令分成当前层和转发给下一层的
// a.b 隐含了 a, 当前层的顺序是第一次出现的顺序
func partition(in Includes) ([]*includeNode, error) {
	nodes := make([]*includeNode, 0, len(in))
	index := make(map[string]*includeNode, len(in))
	for _, d := range in {
		segs, err := splitPath(d.Path)
		if err != nil {
			return nil, err
		}
		node, ok := index[segs[0]]
		if !ok {
			node = &includeNode{name: segs[0]}
			index[segs[0]] = node
			nodes = append(nodes, node)
		}
		if len(segs) == 1 {
			if d.Constrain != nil {
				node.constraints = append(node.constraints, d.Constrain)
			}
			continue
		}
		node.forward = append(node.forward, Directive{
			Path:      strings.Join(segs[1:], "."),
			Constrain: d.Constrain,
		})
	}
	return nodes, nil
}

func splitPath(path string) ([]string, error) {
	segs := strings.Split(strings.TrimSpace(path), ".")
	for i, seg := range segs {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil, errs.NewErrMalformedInclude(path)
		}
		segs[i] = seg
	}
	return segs, nil
}

// validateIncludes 在查询之前检查整棵关联树, 未定义的关联直接报错
func validateIncludes(m *model.Model, in Includes) error {
	nodes, err := partition(in)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		rel, err := m.Relation(node.name)
		if err != nil {
			return err
		}
		if len(node.forward) > 0 {
			if err := validateIncludes(rel.Related, node.forward); err != nil {
				return err
			}
		}
	}
	return nil
}
