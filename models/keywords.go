package models

import "strings"

// KeywordSet holds keywords by their trimmed text.
type KeywordSet map[string]struct{}

func NewKeywordSet(keywords ...string) KeywordSet {
	s := make(KeywordSet, len(keywords))
	for _, k := range keywords {
		s.Add(k)
	}
	return s
}

func (s KeywordSet) Add(keyword string) {
	if k := strings.TrimSpace(keyword); k != "" {
		s[k] = struct{}{}
	}
}

func (s KeywordSet) Has(keyword string) bool {
	_, ok := s[strings.TrimSpace(keyword)]
	return ok
}

func (s KeywordSet) Len() int {
	return len(s)
}
