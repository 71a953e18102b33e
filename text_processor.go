package word2vec

import (
	"bufio"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

type Empty struct{}

// textProcessor implements the TextProcessor interface for multilingual text processing.
// Stop words are replaced by UnknownWord so that window distances between the remaining
// tokens are preserved.
type textProcessor struct {
	seg     gse.Segmenter
	segOnce sync.Once

	chineseStops map[string]Empty
	englishStops map[string]Empty

	englishTokenizer *regexp.Regexp
	mtx              sync.RWMutex
}

// NewTextProcessor creates a new TextProcessor with the default stop words
func NewTextProcessor() TextProcessor {
	return NewTextProcessorWithConfig(defaultChineseStopWords(), defaultEnglishStopWords())
}

// NewTextProcessorWithConfig creates a TextProcessor with custom stop word dictionaries
func NewTextProcessorWithConfig(chineseStops, englishStops map[string]Empty) TextProcessor {
	if chineseStops == nil {
		chineseStops = map[string]Empty{}
	}
	if englishStops == nil {
		englishStops = map[string]Empty{}
	}

	return &textProcessor{
		chineseStops:     chineseStops,
		englishStops:     englishStops,
		englishTokenizer: regexp.MustCompile(`\b\w+\b`),
	}
}

// NewTextProcessorWithStopWords creates a TextProcessor whose default stop words are extended
// with the words listed in stopWordsPath (one per line, '#' starts a comment line). Words
// containing Han characters extend the Chinese list, everything else the English list.
func NewTextProcessorWithStopWords(stopWordsPath string) (TextProcessor, error) {
	chineseStops := defaultChineseStopWords()
	englishStops := defaultEnglishStopWords()

	if stopWordsPath != "" {
		custom, err := loadStopWordsFromFile(stopWordsPath)
		if err != nil {
			return nil, err
		}
		for word := range custom {
			if containsChinese(word) {
				chineseStops[word] = Empty{}
			} else {
				englishStops[strings.ToLower(word)] = Empty{}
			}
		}
	}

	return NewTextProcessorWithConfig(chineseStops, englishStops), nil
}

// segmenter loads the GSE dictionary on first use; English-only workloads never pay for it
func (tp *textProcessor) segmenter() *gse.Segmenter {
	tp.segOnce.Do(func() {
		_ = tp.seg.LoadDict()
	})
	return &tp.seg
}

// Preprocess tokenizes text and replaces stop words with UnknownWord
func (tp *textProcessor) Preprocess(text string) []string {
	tp.mtx.RLock()
	defer tp.mtx.RUnlock()

	return tp.preprocessInternal(text)
}

// PreprocessBatch processes multiple texts efficiently
func (tp *textProcessor) PreprocessBatch(texts []string) [][]string {
	tp.mtx.RLock()
	defer tp.mtx.RUnlock()

	results := make([][]string, len(texts))
	for i, text := range texts {
		results[i] = tp.preprocessInternal(text)
	}

	return results
}

// preprocessInternal is the internal implementation without locking
func (tp *textProcessor) preprocessInternal(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	var tokens []string
	if containsChinese(text) {
		// GSE handles mixed text, English segments are re-tokenized
		tokens = tp.processMixedText(text)
	} else {
		tokens = tp.processEnglishText(text)
	}

	return tp.replaceStopWords(tokens)
}

// containsChinese checks if text contains Chinese characters
func containsChinese(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// containsEnglish checks if text contains English characters
func containsEnglish(text string) bool {
	for _, r := range text {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// processEnglishText tokenizes English text using regex
func (tp *textProcessor) processEnglishText(text string) []string {
	matches := tp.englishTokenizer.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(matches))

	for _, match := range matches {
		if match != "" && !isNumeric(match) {
			tokens = append(tokens, match)
		}
	}

	return tokens
}

// processMixedText segments text with GSE and lower-cases English segments
func (tp *textProcessor) processMixedText(text string) []string {
	var tokens []string

	for _, segment := range tp.segmenter().Segment([]byte(text)) {
		token := strings.TrimSpace(segment.Token().Text())
		if token == "" || isPunctuation(token) {
			continue
		}

		if containsChinese(token) {
			tokens = append(tokens, token)
		} else if containsEnglish(token) {
			tokens = append(tokens, tp.processEnglishText(token)...)
		}
	}

	return tokens
}

// replaceStopWords swaps stop words for UnknownWord
func (tp *textProcessor) replaceStopWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if token == "" {
			continue
		}

		stops := tp.englishStops
		if containsChinese(token) {
			stops = tp.chineseStops
		}

		if _, isStop := stops[token]; isStop {
			out = append(out, UnknownWord)
		} else {
			out = append(out, token)
		}
	}

	return out
}

// isPunctuation checks if a token is purely punctuation
func isPunctuation(token string) bool {
	for _, r := range token {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// isNumeric checks if a token is purely numeric
func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// defaultChineseStopWords returns a default set of Chinese stop words
func defaultChineseStopWords() map[string]Empty {
	stopWords := []string{
		"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都", "一", "一个", "上", "也", "很", "到",
		"说", "要", "去", "会", "着", "没有", "看", "好", "自己", "这", "那", "他", "她", "它", "们", "这个",
		"那个", "什么", "怎么", "为什么", "哪里", "哪个",
	}

	stopWordsMap := make(map[string]Empty, len(stopWords))
	for _, word := range stopWords {
		stopWordsMap[word] = Empty{}
	}

	return stopWordsMap
}

// defaultEnglishStopWords returns a default set of English stop words
func defaultEnglishStopWords() map[string]Empty {
	stopWords := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has", "he", "in", "is", "it", "its",
		"of", "on", "that", "the", "to", "was", "will", "with", "this", "but", "they", "have", "had",
		"what", "said", "each", "which", "she", "do", "how", "their", "if", "up", "out", "then", "them",
		"these", "so", "some", "her", "would", "into", "him", "more", "no", "could", "my", "than", "been",
		"who", "now", "did", "may", "i",
	}

	stopWordsMap := make(map[string]Empty, len(stopWords))
	for _, word := range stopWords {
		stopWordsMap[word] = Empty{}
	}

	return stopWordsMap
}

// loadStopWordsFromFile loads stop words from a text file (one word per line)
func loadStopWordsFromFile(path string) (map[string]Empty, error) {
	file, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stopWords := make(map[string]Empty)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" && !strings.HasPrefix(word, "#") { // Skip empty lines and comments
			stopWords[word] = Empty{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return stopWords, nil
}
