package word2vec

import (
	"fmt"
	"slices"
)

// HuffmanTree summarizes the tree built by EncodeHuffman
type HuffmanTree struct {
	Leaves        int `json:"leaves"`
	InternalNodes int `json:"internal_nodes"`
	MaxDepth      int `json:"max_depth"`
}

// EncodeHuffman builds a Huffman tree over word frequencies and annotates every word with
// its Code and Points, both ordered from the root down.
//
// Words are sorted ascending by frequency (stable, so ties keep input order) and merged
// with a two-pointer scan over unmerged leaves and already merged internal nodes,
// preferring the leaf when frequencies are equal. Internal node k, in creation order, is
// row k of the node matrix, which makes the root row len(words)-2.
func EncodeHuffman(words []*VocabWord) (*HuffmanTree, error) {
	n := len(words)
	if n < 2 {
		return nil, fmt.Errorf("%w: huffman tree needs at least 2 words, got %d", ErrInvalidVocabulary, n)
	}

	for _, w := range words {
		if w.Frequency < 1 {
			return nil, fmt.Errorf("%w: word %q has frequency %d", ErrInvalidVocabulary, w.Word, w.Frequency)
		}
	}

	sorted := slices.Clone(words)
	slices.SortStableFunc(sorted, func(a, b *VocabWord) int {
		switch {
		case a.Frequency < b.Frequency:
			return -1
		case a.Frequency > b.Frequency:
			return 1
		}
		return 0
	})

	// Node ids: 0..n-1 are leaves in sorted order, n+k is internal node k
	var (
		count  = make([]int64, 2*n-1)
		parent = make([]int, 2*n-1)
		branch = make([]int8, 2*n-1)
	)
	for i, w := range sorted {
		count[i] = w.Frequency
	}

	leaf, internal := 0, n
	pick := func(next int) int {
		if leaf < n && (internal >= next || count[leaf] <= count[internal]) {
			leaf++
			return leaf - 1
		}
		internal++
		return internal - 1
	}

	for k := range n - 1 {
		next := n + k
		min1 := pick(next)
		min2 := pick(next)

		count[next] = count[min1] + count[min2]
		parent[min1] = next
		parent[min2] = next
		branch[min2] = 1
	}

	root := 2*n - 2
	tree := &HuffmanTree{Leaves: n, InternalNodes: n - 1}

	for i, w := range sorted {
		var (
			code   []int8
			points []int
		)
		for node := i; node != root; node = parent[node] {
			code = append(code, branch[node])
			points = append(points, parent[node]-n)
		}
		slices.Reverse(code)
		slices.Reverse(points)

		w.Code = code
		w.Points = points
		tree.MaxDepth = max(tree.MaxDepth, len(code))
	}

	return tree, nil
}
