package imr

import (
	"encoding/json"
	"testing"

	"github.com/coderi421/qorm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Category struct {
	Id   int64  `orm:"primary_key,auto_increment"`
	Name string `orm:"max_length=64,unique"`
}

type Post struct {
	Id           int64    `orm:"primary_key,auto_increment"`
	CategoryName string   `orm:"on=category.name"`
	Level        string   `orm:"choices=debug|info|error,default=info"`
	Summary      *string  `orm:"max_length=256"`
	Comments     []int64  `orm:"back_ref=comment.post_id"`
	Location     GeoPoint `orm:"composite"`
}

type GeoPoint struct {
	Lat float64
	Lng float64
}

func registryOf(t *testing.T) model.Registry {
	r := model.NewRegistry()
	_, err := r.Register(&Category{})
	require.NoError(t, err)
	_, err = r.Register(&Post{})
	require.NoError(t, err)
	return r
}

func TestExport(t *testing.T) {
	out, err := Export(registryOf(t))
	require.NoError(t, err)
	require.Len(t, out, 2)

	// 导出顺序就是注册顺序
	assert.Equal(t, "category", out[0].Name)
	post := out[1]
	assert.Equal(t, "post", post.Name)

	names := make([]string, 0, len(post.Fields))
	for _, fd := range post.Fields {
		names = append(names, fd.Name)
	}
	// 反向引用不导出，多列字段按子列展开
	assert.Equal(t, []string{
		"id", "category_name", "level", "summary",
		"location_lat", "location_lng",
	}, names)

	id := post.Fields[0]
	assert.Equal(t, Int64, id.DbType)
	assert.Equal(t, []Annotation{
		{Kind: AnnoAutoIncrement},
		{Kind: AnnoPrimaryKey},
		{Kind: AnnoNotNull},
	}, id.Annotations)

	fk := post.Fields[1]
	// 外键的类型和 max_length 继承自目标字段
	assert.Equal(t, VarChar, fk.DbType)
	assert.Equal(t, []Annotation{
		{Kind: AnnoMaxLength, Value: 64},
		{Kind: AnnoForeignKey, Value: ForeignKey{Table: "category", Column: "name"}},
		{Kind: AnnoNotNull},
	}, fk.Annotations)

	level := post.Fields[2]
	assert.Equal(t, Choices, level.DbType)
	assert.Equal(t, []Annotation{
		{Kind: AnnoChoices, Value: []string{"debug", "info", "error"}},
		{Kind: AnnoDefaultValue, Value: "info"},
		{Kind: AnnoNotNull},
	}, level.Annotations)

	// 可空字段没有 not_null
	summary := post.Fields[3]
	assert.Equal(t, []Annotation{
		{Kind: AnnoMaxLength, Value: 256},
	}, summary.Annotations)

	require.NotNil(t, post.SourceDefinedAt)
	assert.Contains(t, post.SourceDefinedAt.File, "_test.go")
}

func TestAnnotation_JSON(t *testing.T) {
	testCases := []struct {
		name string
		a    Annotation
		want string
	}{
		{
			// 无参注解是裸字符串
			name: "bare",
			a:    Annotation{Kind: AnnoPrimaryKey},
			want: `"primary_key"`,
		},
		{
			// 带参注解是单键对象
			name: "max length",
			a:    Annotation{Kind: AnnoMaxLength, Value: 64},
			want: `{"max_length":64}`,
		},
		{
			name: "choices",
			a:    Annotation{Kind: AnnoChoices, Value: []string{"a", "b"}},
			want: `{"choices":["a","b"]}`,
		},
		{
			name: "foreign key",
			a:    Annotation{Kind: AnnoForeignKey, Value: ForeignKey{Table: "category", Column: "name"}},
			want: `{"foreign_key":{"table":"category","column":"name"}}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.a)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))

			var back Annotation
			require.NoError(t, json.Unmarshal(got, &back))
			assert.Equal(t, tc.a.Kind, back.Kind)
		})
	}
}

func TestExport_JSONDocument(t *testing.T) {
	out, err := Export(registryOf(t))
	require.NoError(t, err)

	data, err := json.Marshal(out[0])
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "category", doc["name"])
	fields := doc["fields"].([]any)
	require.Len(t, fields, 2)
	name := fields[1].(map[string]any)
	assert.Equal(t, "name", name["name"])
	assert.Equal(t, "varchar", name["type"])
	assert.Contains(t, name["annotations"], "unique")
	assert.Contains(t, name["annotations"], map[string]any{"max_length": float64(64)})
}
