package specification

import "ai-tutor-be/pkg/store"

// ListFilter is the part of a specification list that can be evaluated outside SQL.
type ListFilter struct {
	Namespace string
	Limit     int
	Offset    int
}

func Filters(specs ...Specification) ListFilter {
	var f ListFilter
	for _, spec := range specs {
		switch s := spec.(type) {
		case ByNamespace:
			f.Namespace = s.Namespace
		case Pagination:
			f.Limit, f.Offset = s.Limit, s.Offset
		}
	}
	return f
}

func (f ListFilter) Page(docs []*store.Document) []*store.Document {
	if f.Offset > 0 {
		if f.Offset >= len(docs) {
			return nil
		}
		docs = docs[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(docs) {
		docs = docs[:f.Limit]
	}
	return docs
}
