package imr

import (
	"github.com/coderi421/qorm/internal/errs"
	"github.com/coderi421/qorm/model"
	"github.com/gotomicro/ekit/slice"
)

// Export 把注册表的当前快照转成 IMR 文档。
// 顺序就是注册顺序，结果是纯派生数据，不会回写注册表。
// 注册表里出现了导出器不认识的注解时必须显式报错，
// 静默丢弃会造成迁移漂移。
func Export(r model.Registry) ([]Model, error) {
	models := r.Models()
	out := make([]Model, 0, len(models))
	for _, m := range models {
		im := Model{
			Name:            m.TableName,
			Fields:          make([]Field, 0, len(m.Fields)),
			SourceDefinedAt: sourceOf(m.Source),
		}
		for _, fd := range m.Fields {
			if fd.Kind == model.KindBackRef {
				// 反向引用不占列，迁移工具不需要知道它
				continue
			}
			if fd.Kind == model.KindComposite {
				for _, sub := range fd.Subs {
					f, err := exportField(sub)
					if err != nil {
						return nil, err
					}
					im.Fields = append(im.Fields, f)
				}
				continue
			}
			f, err := exportField(fd)
			if err != nil {
				return nil, err
			}
			im.Fields = append(im.Fields, f)
		}
		out = append(out, im)
	}
	return out, nil
}

func exportField(fd *model.Field) (Field, error) {
	annos, err := exportAnnotations(fd)
	if err != nil {
		return Field{}, err
	}
	dbType, ok := dbTypes[fd.DBType]
	if !ok {
		return Field{}, errs.NewErrUnrepresentableAnnotation(fd.GoName, fd.DBType)
	}
	return Field{
		Name:            fd.ColName,
		DbType:          dbType,
		Annotations:     annos,
		SourceDefinedAt: sourceOf(fd.Source),
	}, nil
}

// dbTypes 注册表类型到 IMR 类型的映射。
// 两边词汇表都是封闭的，缺项就是导出器落后了，必须报错
var dbTypes = map[model.DBType]DbType{
	model.DBTypeVarChar:   VarChar,
	model.DBTypeVarBinary: VarBinary,
	model.DBTypeInt8:      Int8,
	model.DBTypeInt16:     Int16,
	model.DBTypeInt32:     Int32,
	model.DBTypeInt64:     Int64,
	model.DBTypeUInt8:     UInt8,
	model.DBTypeUInt16:    UInt16,
	model.DBTypeUInt32:    UInt32,
	model.DBTypeFloat:     Float,
	model.DBTypeDouble:    Double,
	model.DBTypeBoolean:   Boolean,
	model.DBTypeDate:      Date,
	model.DBTypeDateTime:  DateTime,
	model.DBTypeTime:      Time,
	model.DBTypeChoices:   Choices,
}

func exportAnnotations(fd *model.Field) ([]Annotation, error) {
	a := fd.Annotations
	annos := make([]Annotation, 0, 4)
	if a.AutoCreateTime {
		annos = append(annos, Annotation{Kind: AnnoAutoCreateTime})
	}
	if a.AutoUpdateTime {
		annos = append(annos, Annotation{Kind: AnnoAutoUpdateTime})
	}
	if a.AutoIncrement {
		annos = append(annos, Annotation{Kind: AnnoAutoIncrement})
	}
	if a.PrimaryKey {
		annos = append(annos, Annotation{Kind: AnnoPrimaryKey})
	}
	if a.Unique {
		annos = append(annos, Annotation{Kind: AnnoUnique})
	}
	if a.Index {
		annos = append(annos, Annotation{Kind: AnnoIndex})
	}
	if a.MaxLength > 0 {
		annos = append(annos, Annotation{Kind: AnnoMaxLength, Value: a.MaxLength})
	}
	if len(a.Choices) > 0 {
		annos = append(annos, Annotation{
			Kind: AnnoChoices,
			// 拷贝一份，IMR 是快照，不能和注册表共享底层数组
			Value: slice.Map(a.Choices, func(_ int, c string) string { return c }),
		})
	}
	if a.Default != nil {
		v, err := defaultValue(fd, a.Default)
		if err != nil {
			return nil, err
		}
		annos = append(annos, Annotation{Kind: AnnoDefaultValue, Value: v})
	}
	if a.ForeignKey != nil {
		annos = append(annos, Annotation{
			Kind:  AnnoForeignKey,
			Value: ForeignKey{Table: a.ForeignKey.Table, Column: a.ForeignKey.Column},
		})
	}
	if !fd.Nullable {
		annos = append(annos, Annotation{Kind: AnnoNotNull})
	}
	return annos, nil
}

func defaultValue(fd *model.Field, dv *model.DefaultValue) (any, error) {
	switch dv.Kind {
	case model.DefaultString:
		return dv.String, nil
	case model.DefaultInteger:
		return dv.Integer, nil
	case model.DefaultFloat:
		return dv.Float, nil
	case model.DefaultBoolean:
		return dv.Boolean, nil
	default:
		return nil, errs.NewErrUnrepresentableAnnotation(fd.GoName, dv.Kind)
	}
}

func sourceOf(s *model.Source) *Source {
	if s == nil {
		return nil
	}
	return &Source{File: s.File, Line: s.Line}
}
