package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// LocalID identifies a non fungible inside its resource. Only the integer
// form #n# is used.
type LocalID string

func IntegerLocalID(n uint64) LocalID {
	return LocalID(fmt.Sprintf("#%d#", n))
}

// ParseLocalID accepts both #n# and a bare n.
func ParseLocalID(s string) (LocalID, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") && strings.HasSuffix(s, "#") && len(s) > 2 {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid local id %q", s)
	}
	return IntegerLocalID(n), nil
}

func (id LocalID) Integer() (uint64, bool) {
	s := string(id)
	if len(s) < 3 || s[0] != '#' || s[len(s)-1] != '#' {
		return 0, false
	}
	n, err := strconv.ParseUint(s[1:len(s)-1], 10, 64)
	return n, err == nil
}

func (id LocalID) String() string {
	return string(id)
}

func sortLocalIDs(ids []LocalID) {
	sort.Slice(ids, func(i, j int) bool {
		a, aok := ids[i].Integer()
		b, bok := ids[j].Integer()
		if aok && bok {
			return a < b
		}
		return ids[i] < ids[j]
	})
}

func indexLocalID(ids []LocalID, id LocalID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func encodeLocalIDs(ids []LocalID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func decodeLocalIDs(ids []string) []LocalID {
	out := make([]LocalID, len(ids))
	for i, id := range ids {
		out[i] = LocalID(id)
	}
	return out
}
