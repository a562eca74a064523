// Package aliases maps localized artist names (Korean stage names,
// romanisations) to the canonical names artist pages are keyed by.
//
// A Table is immutable once built. Reloading produces a new Table which the
// Watcher swaps in atomically, so readers never observe a partial update.
package aliases

import (
	"sort"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// Table is an immutable alias -> canonical artist lookup
type Table struct {
	entries map[string]string // folded alias -> canonical
}

// New builds a table from alias -> canonical pairs. Blank keys or values are skipped.
func New(pairs map[string]string) *Table {
	t := &Table{entries: make(map[string]string, len(pairs))}
	for alias, canonical := range pairs {
		key := models.Fold(alias)
		if key == "" || canonical == "" {
			continue
		}
		t.entries[key] = canonical
	}
	return t
}

// Lookup returns the canonical name for an exact (case-folded) alias match.
func (t *Table) Lookup(query string) (string, bool) {
	if t == nil {
		return "", false
	}
	canonical, ok := t.entries[models.Fold(query)]
	return canonical, ok
}

// Len returns the number of aliases in the table
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// With returns a new table containing t's entries overlaid with pairs.
// t itself is left untouched.
func (t *Table) With(pairs map[string]string) *Table {
	merged := make(map[string]string, t.Len()+len(pairs))
	if t != nil {
		for k, v := range t.entries {
			merged[k] = v
		}
	}
	for alias, canonical := range pairs {
		key := models.Fold(alias)
		if key == "" || canonical == "" {
			continue
		}
		merged[key] = canonical
	}
	return &Table{entries: merged}
}

// Aliases returns the folded aliases in sorted order
func (t *Table) Aliases() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Diff lists the aliases next gained and lost relative to prev, each sorted
func Diff(prev, next *Table) (added, removed []string) {
	for _, k := range next.Aliases() {
		if _, ok := prev.lookupFolded(k); !ok {
			added = append(added, k)
		}
	}
	for _, k := range prev.Aliases() {
		if _, ok := next.lookupFolded(k); !ok {
			removed = append(removed, k)
		}
	}
	return added, removed
}

func (t *Table) lookupFolded(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.entries[key]
	return v, ok
}

// builtin holds the aliases shipped with the binary. A file loaded at
// startup overlays these.
var builtin = map[string]string{
	"뉴진스":       "NewJeans",
	"아이브":       "IVE",
	"르세라핌":      "LE SSERAFIM",
	"에스파":       "aespa",
	"방탄소년단":     "BTS",
	"블랙핑크":      "BLACKPINK",
	"세븐틴":       "SEVENTEEN",
	"스트레이 키즈":   "Stray Kids",
	"스키즈":       "Stray Kids",
	"아이유":       "IU",
	"트와이스":      "TWICE",
	"여자아이들":     "(G)I-DLE",
	"(여자)아이들":   "(G)I-DLE",
	"있지":        "ITZY",
	"엔시티 드림":    "NCT DREAM",
	"엔시티 127":   "NCT 127",
	"투모로우바이투게더": "TOMORROW X TOGETHER",
	"투바투":       "TOMORROW X TOGETHER",
	"제로베이스원":    "ZEROBASEONE",
	"라이즈":       "RIIZE",
	"키스오브라이프":   "KISS OF LIFE",
	"베이비몬스터":    "BABYMONSTER",
	"엑소":        "EXO",
	"레드벨벳":      "Red Velvet",
	"오마이걸":      "OH MY GIRL",
	"엔하이픈":      "ENHYPEN",
	"더보이즈":      "THE BOYZ",
	"보이넥스트도어":   "BOYNEXTDOOR",
	"프로미스나인":    "fromis_9",
	"태연":        "TAEYEON",
}

// Default returns a table holding the built-in aliases
func Default() *Table {
	return New(builtin)
}
