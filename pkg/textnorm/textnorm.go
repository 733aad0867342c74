// Package textnorm holds the Brazilian Portuguese text rules shared by rosters and reports.
package textnorm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Upper returns s in NFC form, trimmed and uppercased with pt-BR rules.
func Upper(s string) string {
	return cases.Upper(language.BrazilianPortuguese).String(norm.NFC.String(strings.TrimSpace(s)))
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
func ContainsFold(haystack, needle string) bool {
	lower := cases.Lower(language.BrazilianPortuguese)
	return strings.Contains(lower.String(norm.NFC.String(haystack)), lower.String(norm.NFC.String(needle)))
}

// SortBy orders items by key using pt-BR collation that ignores case and accents.
// Ties keep their input order.
func SortBy[T any](items []T, key func(T) string) {
	c := collate.New(language.BrazilianPortuguese, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(key(items[i]), key(items[j])) < 0
	})
}

// SortStrings sorts values in place with SortBy rules.
func SortStrings(values []string) {
	SortBy(values, func(s string) string { return s })
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese name of m, or "" when out of range.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// MonthYear formats t as "Março/2024".
func MonthYear(t time.Time) string {
	return fmt.Sprintf("%s/%d", MonthName(t.Month()), t.Year())
}
