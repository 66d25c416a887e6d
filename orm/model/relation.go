package model

type RelationKind uint8

const (
	OneToOne RelationKind = iota + 1
	OneToMany
	BelongsTo
	ManyToMany
)

func (k RelationKind) String() string {
	switch k {
	case OneToOne:
		return "OneToOne"
	case OneToMany:
		return "OneToMany"
	case BelongsTo:
		return "BelongsTo"
	case ManyToMany:
		return "ManyToMany"
	default:
		return "Unknown"
	}
}

// Relation 关联描述, 预加载的时候由对应 Kind 的解析器消费
type Relation struct {
	Name    string
	Kind    RelationKind
	Parent  *Model
	Related *Model

	// ForeignKey
	// OneToOne/OneToMany: 关联表上的列
	// BelongsTo: 自己表上的列
	ForeignKey string

	// LocalKey 自己表上被引用的列, 默认主键
	LocalKey string

	// OwnerKey BelongsTo/ManyToMany 关联表上被引用的列, 默认关联表主键
	OwnerKey string

	PivotTable      string
	PivotLocalKey   string
	PivotForeignKey string
}

type RelationOption func(r *Relation)

func RelationWithForeignKey(col string) RelationOption {
	return func(r *Relation) {
		r.ForeignKey = col
	}
}

func RelationWithLocalKey(col string) RelationOption {
	return func(r *Relation) {
		r.LocalKey = col
	}
}

func RelationWithOwnerKey(col string) RelationOption {
	return func(r *Relation) {
		r.OwnerKey = col
	}
}

// RelationWithPivot 指定多对多的中间表和两边的列
func RelationWithPivot(table, localKey, foreignKey string) RelationOption {
	return func(r *Relation) {
		r.PivotTable = table
		r.PivotLocalKey = localKey
		r.PivotForeignKey = foreignKey
	}
}
