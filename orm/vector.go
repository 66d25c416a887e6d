package orm

import (
	"strconv"
	"strings"
)

type VectorMetric string

const (
	VectorL2           VectorMetric = "L2"
	VectorCosine       VectorMetric = "COSINE"
	VectorInnerProduct VectorMetric = "INNER_PRODUCT"
)

// VectorDistance 向量距离, 不同方言的写法完全不同
// Postgres(pgvector): "embedding" <-> $1::vector
// MariaDB: VEC_DISTANCE_EUCLIDEAN(`embedding`, VEC_FromText(?))
// 其他方言编译时直接报错
type VectorDistance struct {
	column string
	vector []float32
	metric VectorMetric
	alias  string
}

func L2Distance(col string, vector []float32) VectorDistance {
	return VectorDistance{column: col, vector: vector, metric: VectorL2}
}

func CosineDistance(col string, vector []float32) VectorDistance {
	return VectorDistance{column: col, vector: vector, metric: VectorCosine}
}

func InnerProduct(col string, vector []float32) VectorDistance {
	return VectorDistance{column: col, vector: vector, metric: VectorInnerProduct}
}

func (v VectorDistance) selectable() {}
func (v VectorDistance) expr()       {}
func (v VectorDistance) orderable()  {}

func (v VectorDistance) As(alias string) VectorDistance {
	v.alias = alias
	return v
}

func (v VectorDistance) Lt(arg any) Predicate {
	return Predicate{left: v, op: opLt, right: valueOf(arg)}
}

func (v VectorDistance) Lte(arg any) Predicate {
	return Predicate{left: v, op: opLte, right: valueOf(arg)}
}

// [1,2.5,3]
func (v VectorDistance) literal() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v.vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
