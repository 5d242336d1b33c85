package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RevisionKind 版本号类型
type RevisionKind int

const (
	RevisionNumeric RevisionKind = iota + 1
	RevisionLetter
	RevisionLegacyDecimal
)

func (k RevisionKind) String() string {
	switch k {
	case RevisionNumeric:
		return "numeric"
	case RevisionLetter:
		return "letter"
	case RevisionLegacyDecimal:
		return "legacy"
	default:
		return "unknown"
	}
}

// Revision 解析后的版本号；比较只看 Kind/Major/Minor，不再回看原始字符串
type Revision struct {
	Kind  RevisionKind
	Major int // 数字版本值 / 字母序号(A=1) / 旧版本主号
	Minor int // 仅旧版本使用
	Raw   string
}

var (
	digitsRe       = regexp.MustCompile(`^\d+$`)
	integerFloatRe = regexp.MustCompile(`^(\d+)\.0+$`)
	legacyDotRe    = regexp.MustCompile(`^(\d+)\.(\d+)$`)
	legacyParenRe  = regexp.MustCompile(`^(\d+)\((\d+)\)$`)
)

// ParseRevision 解析版本号字符串
//
// 非旧版本口径：纯数字、"3.0" 这类整数小数、单个字母（小写转大写）。
// 旧版本口径：额外接受 "major(minor)" / "major.minor"，纯数字视为 major.0。
func ParseRevision(raw string, legacy bool) (Revision, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Revision{}, fmt.Errorf("blank revision: %w", ErrAmbiguousRevision)
	}

	if isSingleLetter(s) {
		c := strings.ToUpper(s)[0]
		return Revision{Kind: RevisionLetter, Major: int(c-'A') + 1, Raw: s}, nil
	}

	if legacy {
		if m := legacyParenRe.FindStringSubmatch(s); m != nil {
			return legacyRevision(s, m[1], m[2])
		}
		if m := legacyDotRe.FindStringSubmatch(s); m != nil {
			return legacyRevision(s, m[1], m[2])
		}
		if digitsRe.MatchString(s) {
			return legacyRevision(s, s, "0")
		}
		return Revision{}, fmt.Errorf("revision %q is not a legacy major(minor) value: %w", raw, ErrAmbiguousRevision)
	}

	digits := s
	if m := integerFloatRe.FindStringSubmatch(s); m != nil {
		digits = m[1]
	}
	if digitsRe.MatchString(digits) {
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Revision{}, fmt.Errorf("revision %q out of range: %w", raw, ErrAmbiguousRevision)
		}
		return Revision{Kind: RevisionNumeric, Major: n, Raw: s}, nil
	}

	return Revision{}, fmt.Errorf("revision %q is neither numeric nor a single letter: %w", raw, ErrAmbiguousRevision)
}

func legacyRevision(raw, major, minor string) (Revision, error) {
	ma, err := strconv.Atoi(major)
	if err != nil {
		return Revision{}, fmt.Errorf("revision %q out of range: %w", raw, ErrAmbiguousRevision)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil {
		return Revision{}, fmt.Errorf("revision %q out of range: %w", raw, ErrAmbiguousRevision)
	}
	return Revision{Kind: RevisionLegacyDecimal, Major: ma, Minor: mi, Raw: raw}, nil
}

func isSingleLetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// String 规范化显示
func (r Revision) String() string {
	switch r.Kind {
	case RevisionNumeric:
		return strconv.Itoa(r.Major)
	case RevisionLetter:
		return string(rune('A' + r.Major - 1))
	case RevisionLegacyDecimal:
		return fmt.Sprintf("%d.%d", r.Major, r.Minor)
	default:
		return r.Raw
	}
}

// CompareRevisions 比较同类型版本号；类型不同返回 ErrAmbiguousRevision
func CompareRevisions(a, b Revision) (int, error) {
	if a.Kind != b.Kind {
		return 0, fmt.Errorf("cannot order %s revision %q against %s revision %q: %w",
			a.Kind, a.String(), b.Kind, b.String(), ErrAmbiguousRevision)
	}
	switch {
	case a.Major != b.Major:
		return sign(a.Major - b.Major), nil
	default:
		return sign(a.Minor - b.Minor), nil
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// RevisionCandidate Stack 内参与比较的一行
type RevisionCandidate struct {
	RowNo    int
	Revision Revision
}

// ResolveLatest 返回最大版本所在的候选下标
//
// 类型混用或最大值并列时返回 ErrAmbiguousRevision，不按输入顺序猜测。
func ResolveLatest(candidates []RevisionCandidate) (int, error) {
	if len(candidates) == 0 {
		return -1, fmt.Errorf("no parseable revision in stack: %w", ErrAmbiguousRevision)
	}

	kind := candidates[0].Revision.Kind
	for _, c := range candidates[1:] {
		if c.Revision.Kind != kind {
			return -1, fmt.Errorf("stack mixes %s and %s revisions: %w", kind, c.Revision.Kind, ErrAmbiguousRevision)
		}
	}

	best := 0
	tied := []int{candidates[0].RowNo}
	for i := 1; i < len(candidates); i++ {
		cmp, err := CompareRevisions(candidates[i].Revision, candidates[best].Revision)
		if err != nil {
			return -1, err
		}
		switch {
		case cmp > 0:
			best = i
			tied = []int{candidates[i].RowNo}
		case cmp == 0:
			tied = append(tied, candidates[i].RowNo)
		}
	}
	if len(tied) > 1 {
		return -1, fmt.Errorf("revision %s appears on rows %v: %w", candidates[best].Revision, tied, ErrAmbiguousRevision)
	}
	return best, nil
}
