package spotter

import (
	"log/slog"
	"sort"
	"strings"
)

// keywordTable maps the friendly names accepted in config to tokenized
// keyword entries in the format the spotting model was trained with (BPE
// tokens, then @ and the phrase the spotter reports on detection).
var keywordTable = map[string]string{
	"hey computer": "▁HE Y ▁COM PU TER @hey computer",
	"computer":     "▁COM PU TER @computer",
	"jarvis":       "▁JAR VIS @jarvis",
	"hey typist":   "▁HE Y ▁TY PI ST @hey typist",
	"listen up":    "▁LI STEN ▁UP @listen up",
}

// DefaultKeyword is the phrase used when the configured keyword is not in
// the table.
const DefaultKeyword = "hey computer"

// ResolveKeywords returns the keywords-file content for the configured
// name. An unknown name does not fail: it falls back to the default
// keyword list and reports the substitution through the logger.
func ResolveKeywords(name string, log *slog.Logger) (content string, fellBack bool) {
	if log == nil {
		log = slog.Default()
	}

	key := strings.ToLower(strings.TrimSpace(name))

	if entry, ok := keywordTable[key]; ok {
		return entry + "\n", false
	}

	log.Warn("configured wake keyword is not in the keyword table, using the default list",
		slog.String("keyword", name),
		slog.String("fallback", DefaultKeyword),
	)

	return defaultKeywordList(), true
}

// defaultKeywordList lists every table entry, the default phrase first and
// the rest in stable order.
func defaultKeywordList() string {
	names := make([]string, 0, len(keywordTable))

	for name := range keywordTable {
		if name == DefaultKeyword {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	lines := make([]string, 0, len(keywordTable))
	lines = append(lines, keywordTable[DefaultKeyword])

	for _, name := range names {
		lines = append(lines, keywordTable[name])
	}

	return strings.Join(lines, "\n") + "\n"
}
