package transform

import (
	"bufio"
	_ "embed"
	"math"
	"regexp"
	"strings"
	"sync"
)

//go:embed words.txt
var embeddedWords string

const (
	// minSplitLen is the shortest run Segment will try to split.
	minSplitLen = 8
	// unknownLetterCost is added per letter to the cost of leaving a run whole.
	unknownLetterCost = 1.25
)

var (
	defaultSegmenter     *Segmenter
	defaultSegmenterOnce sync.Once
	letterRun            = regexp.MustCompile(`[A-Za-z]+`)
)

// inflections maps a regular suffix to what replaces it on the stem.
var inflections = []struct{ suffix, stem string }{
	{"ies", "y"},
	{"ied", "y"},
	{"es", ""},
	{"s", ""},
	{"ed", ""},
	{"ed", "e"},
	{"d", ""},
	{"ing", ""},
	{"ing", "e"},
}

// Segmenter splits run-together words ("machinelearning") using a word list
// ordered by frequency. Word cost follows Zipf's law: log((rank+1) * log(N)).
type Segmenter struct {
	cost        map[string]float64
	maxLen      int
	unknownBase float64
}

// NewSegmenter builds a segmenter from words ordered most frequent first.
// Duplicates keep their first rank; blank lines are ignored.
func NewSegmenter(words []string) *Segmenter {
	s := &Segmenter{cost: make(map[string]float64, len(words))}

	unique := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		unique = append(unique, w)
	}

	logN := math.Log(float64(len(unique)))
	if logN <= 0 {
		logN = 1
	}
	for rank, w := range unique {
		s.cost[w] = math.Log(float64(rank+1) * logN)
		if len(w) > s.maxLen {
			s.maxLen = len(w)
		}
	}
	s.unknownBase = math.Log(float64(len(unique)+1) * logN)
	return s
}

// DefaultSegmenter returns the segmenter backed by the embedded word list.
func DefaultSegmenter() *Segmenter {
	defaultSegmenterOnce.Do(func() {
		var words []string
		scanner := bufio.NewScanner(strings.NewReader(embeddedWords))
		for scanner.Scan() {
			words = append(words, scanner.Text())
		}
		defaultSegmenter = NewSegmenter(words)
	})
	return defaultSegmenter
}

// Known reports whether word is in the vocabulary, either as listed or as a
// regular inflection of a listed word ("manages", "managed", "managing").
func (s *Segmenter) Known(word string) bool {
	word = strings.ToLower(word)
	if _, ok := s.cost[word]; ok {
		return true
	}
	for _, inf := range inflections {
		if !strings.HasSuffix(word, inf.suffix) {
			continue
		}
		stem := strings.TrimSuffix(word, inf.suffix) + inf.stem
		if len(stem) < 3 {
			continue
		}
		if _, ok := s.cost[stem]; ok {
			return true
		}
	}
	return false
}

// Segment re-splits alphabetic runs of at least minSplitLen letters that are
// not known words into their cheapest sequence of known words. A split is
// only taken when it costs less than treating the run as one unknown word,
// so rare words outside the vocabulary are left whole along with all other
// characters.
func (s *Segmenter) Segment(text string) string {
	if len(s.cost) == 0 {
		return text
	}
	return letterRun.ReplaceAllStringFunc(text, func(run string) string {
		if len(run) < minSplitLen || s.Known(run) {
			return run
		}
		words, cost, ok := s.split(run)
		if !ok || cost >= s.unknownCost(run) {
			return run
		}
		return strings.Join(words, " ")
	})
}

// unknownCost is the cost of keeping run as a single out-of-vocabulary word:
// one rank past the end of the list plus a per-letter charge.
func (s *Segmenter) unknownCost(run string) float64 {
	return s.unknownBase + unknownLetterCost*float64(len(run))
}

// Split returns the minimum-cost split of an ASCII letter run into known
// words, preserving the original casing. ok is false when no split covers the
// whole run.
func (s *Segmenter) Split(run string) ([]string, bool) {
	words, _, ok := s.split(run)
	return words, ok
}

func (s *Segmenter) split(run string) ([]string, float64, bool) {
	lower := strings.ToLower(run)
	n := len(lower)
	if n == 0 {
		return nil, 0, false
	}

	best := make([]float64, n+1)
	from := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(1)
		start := i - s.maxLen
		if start < 0 {
			start = 0
		}
		for j := start; j < i; j++ {
			if math.IsInf(best[j], 1) {
				continue
			}
			c, ok := s.cost[lower[j:i]]
			if !ok {
				continue
			}
			if total := best[j] + c; total < best[i] {
				best[i] = total
				from[i] = j
			}
		}
	}

	if math.IsInf(best[n], 1) {
		return nil, 0, false
	}

	var words []string
	for i := n; i > 0; i = from[i] {
		words = append(words, run[from[i]:i])
	}
	for l, r := 0, len(words)-1; l < r; l, r = l+1, r-1 {
		words[l], words[r] = words[r], words[l]
	}
	return words, best[n], true
}
