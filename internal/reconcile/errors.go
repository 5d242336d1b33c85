package reconcile

import (
	"errors"
	"fmt"

	"docstack/internal/model"
)

var (
	ErrUnparseableIdentity  = errors.New("unparseable identity")
	ErrAmbiguousRevision    = errors.New("ambiguous revision")
	ErrStackOverflow        = errors.New("stack id space exhausted")
	ErrInvalidDate          = errors.New("invalid date")
	ErrConflictingDuplicate = errors.New("conflicting duplicate")
)

var kindErrors = map[model.ErrorKind]error{
	model.ErrorUnparseableIdentity:  ErrUnparseableIdentity,
	model.ErrorAmbiguousRevision:    ErrAmbiguousRevision,
	model.ErrorStackOverflow:        ErrStackOverflow,
	model.ErrorInvalidDate:          ErrInvalidDate,
	model.ErrorConflictingDuplicate: ErrConflictingDuplicate,
}

// KindOf 返回错误对应的分类；非本包错误返回空串
func KindOf(err error) model.ErrorKind {
	for kind, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// AsError 将行级错误还原为可 errors.Is 判断的 error
func AsError(re model.RecordError) error {
	sentinel, ok := kindErrors[re.Kind]
	if !ok {
		return errors.New(re.Message)
	}
	return fmt.Errorf("%s: %w", re.Message, sentinel)
}

func annotate(a *model.Annotation, field string, err error) {
	kind := KindOf(err)
	if kind == "" {
		return
	}
	a.AddError(kind, field, err.Error())
}
